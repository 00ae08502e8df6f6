// Package rgb565 provides the packed 16-bit RGB565 pixel format consumed
// by common SPI display controllers.
//
// Each pixel occupies two bytes, big endian, with 5 bits of red, 6 bits of
// green and 5 bits of blue. The Image type exposes its Pix slice so a whole
// frame can be streamed to a display as-is.
package rgb565

import (
	"image"
	"image/color"
)

// RGB565 represents a packed 16-bit color: RRRRRGGGGGGBBBBB.
type RGB565 struct {
	V uint16
}

// RGBA converts the packed color to standard 16-bit-per-channel RGBA.
// Channel values are expanded by bit replication so that full scale maps to
// 0xFFFF exactly.
func (c RGB565) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c.V >> 11 & 0x1F)
	g6 := uint32(c.V >> 5 & 0x3F)
	b5 := uint32(c.V & 0x1F)
	r = r5<<11 | r5<<6 | r5<<1 | r5>>4
	g = g6<<10 | g6<<4 | g6>>2
	b = b5<<11 | b5<<6 | b5<<1 | b5>>4
	return r, g, b, 0xFFFF
}

// toRGB565 converts any color.Color to RGB565.
func toRGB565(c color.Color) color.Color {
	if v, ok := c.(RGB565); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return RGB565{V: uint16(r>>11)<<11 | uint16(g>>10)<<5 | uint16(b>>11)}
}

// Model converts colors to RGB565.
var Model = color.ModelFunc(toRGB565)

// Image is an in-memory RGB565 image. Pix holds big-endian packed pixels in
// the byte order the display consumes.
type Image struct {
	Pix    []byte          // 2 bytes per pixel, big endian
	Stride int             // bytes per row
	Rect   image.Rectangle // image bounds
}

// New creates an Image with the specified bounds.
func New(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &Image{Rect: r}
	}
	stride := w * 2
	return &Image{
		Pix:    make([]byte, stride*h),
		Stride: stride,
		Rect:   r,
	}
}

// ColorModel returns the color model of the image.
func (p *Image) ColorModel() color.Model {
	return Model
}

// Bounds returns the image bounds.
func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the color of the pixel at (x, y).
func (p *Image) At(x, y int) color.Color {
	return p.RGB565At(x, y)
}

// RGB565At returns the packed color of the pixel at (x, y).
func (p *Image) RGB565At(x, y int) RGB565 {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return RGB565{}
	}
	i := p.pixOffset(x, y)
	return RGB565{V: uint16(p.Pix[i])<<8 | uint16(p.Pix[i+1])}
}

// Set sets the color of the pixel at (x, y).
func (p *Image) Set(x, y int, c color.Color) {
	p.SetRGB565(x, y, Model.Convert(c).(RGB565))
}

// SetRGB565 sets the packed color of the pixel at (x, y). This is faster
// than Set as it skips the color conversion.
func (p *Image) SetRGB565(x, y int, c RGB565) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.pixOffset(x, y)
	p.Pix[i] = byte(c.V >> 8)
	p.Pix[i+1] = byte(c.V)
}

// pixOffset returns the byte offset of the pixel at (x, y).
func (p *Image) pixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}
