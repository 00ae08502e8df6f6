package spistream

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"periph.io/x/devices/v3/spistream/spiarb"
)

// DefaultBaseClock is the peripheral clock the configured divider is
// applied to when none is set explicitly.
const DefaultBaseClock = 72 * physic.MegaHertz

// PortBus adapts a periph.io spi.Port to the Bus capability.
//
// The port is connected with spi.NoCS so that the arbiter and the scheduler
// can drive select lines directly. Reconfiguring mode, bit order or divider
// invalidates the connection; the next transfer reconnects with the updated
// parameters.
//
// Hosted SPI ports expose no completion interrupt, so BeginTransfer runs
// the port transaction on its own goroutine and reports completion from
// there. A transfer failure is latched and surfaced by the next operation.
type PortBus struct {
	// BaseClock is divided by the configured clock divider to obtain the
	// port frequency. Defaults to DefaultBaseClock when zero.
	BaseClock physic.Frequency

	port spi.Port

	mu      sync.Mutex
	c       conn.Conn
	mode    spi.Mode
	order   spiarb.BitOrder
	divider uint
	err     error

	busy atomic.Bool
}

// NewPortBus wraps an already opened SPI port. The electrical parameters
// are unset until an arbiter applies a client configuration.
func NewPortBus(p spi.Port) *PortBus {
	return &PortBus{port: p}
}

// SetMode implements spiarb.Bus.
func (b *PortBus) SetMode(m spi.Mode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mode = m
	b.c = nil
	return nil
}

// SetBitOrder implements spiarb.Bus.
func (b *PortBus) SetBitOrder(o spiarb.BitOrder) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.order = o
	b.c = nil
	return nil
}

// SetClockDivider implements spiarb.Bus.
func (b *PortBus) SetClockDivider(div uint) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.divider = div
	b.c = nil
	return nil
}

// connect lazily (re)establishes the port connection with the currently
// configured parameters. Must be called with b.mu held.
func (b *PortBus) connect() (conn.Conn, error) {
	if b.c != nil {
		return b.c, nil
	}
	if b.divider == 0 {
		return nil, errors.New("spistream: clock divider not configured")
	}
	base := b.BaseClock
	if base == 0 {
		base = DefaultBaseClock
	}
	mode := b.mode | spi.NoCS
	if b.order == spiarb.LSBFirst {
		mode |= spi.LSBFirst
	}
	c, err := b.port.Connect(base/physic.Frequency(b.divider), mode, 8)
	if err != nil {
		return nil, fmt.Errorf("spistream: connect: %w", err)
	}
	b.c = c
	return c, nil
}

// takeErr returns and clears the latched asynchronous transfer error.
// Must be called with b.mu held.
func (b *PortBus) takeErr() error {
	err := b.err
	b.err = nil
	return err
}

// BeginTransfer implements Bus.
func (b *PortBus) BeginTransfer(buf []byte, done func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeErr(); err != nil {
		return err
	}
	c, err := b.connect()
	if err != nil {
		return err
	}
	b.busy.Store(true)
	go func() {
		if err := c.Tx(buf, nil); err != nil {
			b.mu.Lock()
			if b.err == nil {
				b.err = fmt.Errorf("spistream: async transfer: %w", err)
			}
			b.mu.Unlock()
		}
		b.busy.Store(false)
		done()
	}()
	return nil
}

// Busy implements Bus.
func (b *PortBus) Busy() bool {
	return b.busy.Load()
}

// Exchange implements Bus.
func (b *PortBus) Exchange(w byte) (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.takeErr(); err != nil {
		return 0, err
	}
	c, err := b.connect()
	if err != nil {
		return 0, err
	}
	var r [1]byte
	if err := c.Tx([]byte{w}, r[:]); err != nil {
		return 0, fmt.Errorf("spistream: exchange: %w", err)
	}
	return r[0], nil
}

var _ Bus = &PortBus{}
