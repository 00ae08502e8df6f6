package spistream

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"

	"periph.io/x/devices/v3/spistream/spiarb"
)

// DefaultCapacity is the size in bytes of each of the two transfer buffers.
const DefaultCapacity = 320

var (
	// ErrBufferOverflow reports an append past the active buffer's
	// capacity. The Writer methods flush before this can happen; seeing it
	// means a caller bypassed the capacity check.
	ErrBufferOverflow = errors.New("spistream: buffer overflow")

	// ErrTransferTimeout reports that the hardware never signalled
	// completion within Opts.Timeout. The scheduler has been reset to idle
	// and the in-flight bytes are lost.
	ErrTransferTimeout = errors.New("spistream: transfer timeout")
)

// Opts is the configuration for a Dev.
type Opts struct {
	// Capacity is the size in bytes of each transfer buffer.
	// Defaults to DefaultCapacity.
	Capacity int

	// Timeout bounds every wait for transfer completion. Zero keeps the
	// base behavior of waiting forever.
	Timeout time.Duration

	// RST is an optional reset pin toggled by Reset.
	RST gpio.PinIO
}

// Dev is the stream writer for one display client on a shared SPI bus. It
// owns the client's bus configuration, the two transfer buffers and the
// transfer scheduler.
//
// Dev is not safe for concurrent use; it models a single producer feeding
// the display while transfers complete in the background.
type Dev struct {
	arb *spiarb.Arbiter
	cfg spiarb.Config
	bus Bus
	dc  gpio.PinOut
	rst gpio.PinIO

	pool  *bufferPool
	sched scheduler
}

// New creates a Dev for the display client described by cfg.
//
// The dc (Data/Command) pin must be provided. arb must be the arbiter of
// the bus the display shares with other clients. opts can be nil to use
// defaults.
func New(bus Bus, arb *spiarb.Arbiter, cfg spiarb.Config, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	capacity := opts.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if capacity < 1 {
		return nil, errors.New("spistream: capacity must be positive")
	}
	if bus == nil {
		return nil, errors.New("spistream: bus is required")
	}
	if arb == nil {
		return nil, errors.New("spistream: arbiter is required")
	}
	if dc == nil {
		return nil, errors.New("spistream: data/command pin is required")
	}

	return &Dev{
		arb:   arb,
		cfg:   cfg,
		bus:   bus,
		dc:    dc,
		rst:   opts.RST,
		pool:  newBufferPool(capacity),
		sched: scheduler{bus: bus, cs: cfg.CS, timeout: opts.Timeout},
	}, nil
}

// Acquire reconfigures the shared bus for this client and asserts its
// select line. Call it once before a burst of writes, whenever another
// client may have used the bus in between.
func (d *Dev) Acquire() error {
	if err := d.arb.Apply(d.cfg); err != nil {
		return err
	}
	// Data mode until the next command.
	return d.dc.Out(gpio.High)
}

// WriteData appends one data word to the active buffer and flushes it when
// the buffer fills. The call returns as soon as the byte is buffered; the
// transfer itself proceeds while the caller keeps producing.
func (d *Dev) WriteData(w byte) error {
	if err := d.pool.append(w); err != nil {
		return err
	}
	if d.pool.isFull() {
		return d.pool.beginFlush(&d.sched)
	}
	return nil
}

// Write implements io.Writer on top of WriteData.
func (d *Dev) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := d.WriteData(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// WriteCommand sends one command word. Commands change how the controller
// interprets the bytes that follow, so they must never reorder relative to
// surrounding data: pending data is flushed, the bus drains, and the word
// goes out synchronously with the data/command line held low.
func (d *Dev) WriteCommand(w byte) error {
	if err := d.Flush(); err != nil {
		return err
	}
	if err := d.sched.waitUntilIdle(); err != nil {
		return err
	}
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	var err error
	if d.cfg.CS != nil {
		err = d.cfg.CS.Out(gpio.Low)
	}
	if err == nil {
		_, err = d.bus.Exchange(w)
	}
	if d.cfg.CS != nil {
		if e := d.cfg.CS.Out(gpio.High); err == nil {
			err = e
		}
	}
	if e := d.dc.Out(gpio.High); err == nil {
		err = e
	}
	if err != nil {
		return fmt.Errorf("spistream: command %#02x: %w", w, err)
	}
	return nil
}

// Flush starts a transfer of any bytes pending in the active buffer,
// regardless of fill level. Call it at end of frame; full buffers flush on
// their own.
func (d *Dev) Flush() error {
	if d.pool.pending() == 0 {
		return nil
	}
	return d.pool.beginFlush(&d.sched)
}

// WaitUntilIdle blocks until no transfer is in flight.
func (d *Dev) WaitUntilIdle() error {
	return d.sched.waitUntilIdle()
}

// Pending returns the number of bytes buffered but not yet handed to the
// hardware.
func (d *Dev) Pending() int {
	return d.pool.pending()
}

// Reset toggles the optional reset pin with the controller's power-up
// timing. It is a no-op when no reset pin was configured.
func (d *Dev) Reset() error {
	if d.rst == nil {
		return nil
	}
	if err := d.rst.Out(gpio.High); err != nil {
		return fmt.Errorf("spistream: reset: %w", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := d.rst.Out(gpio.Low); err != nil {
		return fmt.Errorf("spistream: reset: %w", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := d.rst.Out(gpio.High); err != nil {
		return fmt.Errorf("spistream: reset: %w", err)
	}
	time.Sleep(150 * time.Millisecond)
	return nil
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("spistream.Dev{cap=%d, pending=%d}", len(d.pool.bufs[0]), d.pool.pending())
}
