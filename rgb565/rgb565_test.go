package rgb565

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func TestRGBAExpansion(t *testing.T) {
	tests := []struct {
		name    string
		c       RGB565
		r, g, b uint32
	}{
		{"black", RGB565{V: 0x0000}, 0, 0, 0},
		{"white", RGB565{V: 0xFFFF}, 0xFFFF, 0xFFFF, 0xFFFF},
		{"pure red", RGB565{V: 0xF800}, 0xFFFF, 0, 0},
		{"pure green", RGB565{V: 0x07E0}, 0, 0xFFFF, 0},
		{"pure blue", RGB565{V: 0x001F}, 0, 0, 0xFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, a := tt.c.RGBA()
			if r != tt.r || g != tt.g || b != tt.b || a != 0xFFFF {
				t.Errorf("RGBA() = (%#x, %#x, %#x, %#x), want (%#x, %#x, %#x, 0xffff)",
					r, g, b, a, tt.r, tt.g, tt.b)
			}
		})
	}
}

func TestModelConversion(t *testing.T) {
	tests := []struct {
		name string
		in   color.Color
		want RGB565
	}{
		{"already packed", RGB565{V: 0x1234}, RGB565{V: 0x1234}},
		{"white", color.White, RGB565{V: 0xFFFF}},
		{"black", color.Black, RGB565{V: 0x0000}},
		{"red", color.RGBA{R: 0xFF, A: 0xFF}, RGB565{V: 0xF800}},
		{"green", color.RGBA{G: 0xFF, A: 0xFF}, RGB565{V: 0x07E0}},
		{"blue", color.RGBA{B: 0xFF, A: 0xFF}, RGB565{V: 0x001F}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Model.Convert(tt.in).(RGB565); got != tt.want {
				t.Errorf("Convert() = %#04x, want %#04x", got.V, tt.want.V)
			}
		})
	}
}

func TestImagePacking(t *testing.T) {
	img := New(image.Rect(0, 0, 2, 2))
	if len(img.Pix) != 8 {
		t.Fatalf("Pix length = %d, want 8", len(img.Pix))
	}
	img.SetRGB565(1, 0, RGB565{V: 0xF81F})

	// Big endian: high byte first, at pixel offset (x=1, y=0).
	if img.Pix[2] != 0xF8 || img.Pix[3] != 0x1F {
		t.Errorf("Pix[2:4] = %#02x %#02x, want 0xf8 0x1f", img.Pix[2], img.Pix[3])
	}
	if got := img.RGB565At(1, 0); got.V != 0xF81F {
		t.Errorf("RGB565At(1, 0) = %#04x, want 0xf81f", got.V)
	}
}

func TestImageSetAtRoundTrip(t *testing.T) {
	img := New(image.Rect(0, 0, 4, 4))
	img.Set(2, 3, color.RGBA{R: 0xFF, A: 0xFF})
	if got := img.RGB565At(2, 3); got.V != 0xF800 {
		t.Errorf("round trip = %#04x, want 0xf800", got.V)
	}
	// Out of bounds reads are zero, writes are dropped.
	img.Set(9, 9, color.White)
	if got := img.RGB565At(9, 9); got.V != 0 {
		t.Errorf("out of bounds read = %#04x, want 0", got.V)
	}
}

func TestImageDrawInterop(t *testing.T) {
	img := New(image.Rect(0, 0, 4, 2))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	for i, b := range img.Pix {
		if b != 0xFF {
			t.Fatalf("Pix[%d] = %#02x after filling white, want 0xff", i, b)
		}
	}
}

func TestNewDegenerateBounds(t *testing.T) {
	// image.Rect would canonicalize; build the degenerate rectangle
	// directly.
	img := New(image.Rectangle{Min: image.Point{}, Max: image.Point{X: -1, Y: 4}})
	if len(img.Pix) != 0 {
		t.Errorf("degenerate image has %d pixel bytes", len(img.Pix))
	}
}
