// Package spiarb arbitrates a single SPI peripheral shared by logical
// clients that need different electrical configurations.
//
// Each client declares its clock mode, bit order, clock divider and select
// line in a Config. The Arbiter remembers what is currently applied to the
// hardware and, when control passes to another client, reconfigures only the
// fields that actually differ before handing the chip select over. This
// avoids redundant, possibly disruptive, peripheral reconfiguration on every
// access.
package spiarb

import (
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
)

// BitOrder selects which bit of a word is clocked out first.
type BitOrder uint8

const (
	MSBFirst BitOrder = iota
	LSBFirst
)

// String returns the order as a human readable string.
func (o BitOrder) String() string {
	if o == LSBFirst {
		return "LSBFirst"
	}
	return "MSBFirst"
}

// Bus is the electrical surface of the shared peripheral. The Arbiter is
// the only component that may call these; everything else goes through a
// Config and Apply.
type Bus interface {
	// SetMode sets the clock phase and polarity (spi.Mode0..spi.Mode3).
	SetMode(m spi.Mode) error
	// SetBitOrder sets the bit significance of transferred words.
	SetBitOrder(o BitOrder) error
	// SetClockDivider sets the divider applied to the peripheral base
	// clock. div must be positive.
	SetClockDivider(div uint) error
}

// Config holds one client's electrical parameters for the shared bus.
//
// A nil CS means the client has no select line of its own; the arbiter then
// leaves select handoff to the caller. Divider must be positive; this is a
// documented precondition, not a runtime check.
type Config struct {
	Mode    spi.Mode
	Order   BitOrder
	Divider uint
	CS      gpio.PinOut
}

// Arbiter owns the bus's currently applied electrical configuration and the
// currently asserted select line. It lives as long as the bus does.
type Arbiter struct {
	mu      sync.Mutex
	bus     Bus
	mode    spi.Mode
	order   BitOrder
	divider uint
	cs      gpio.PinOut
	settled bool // false until the first Apply has pushed every field
}

// New returns an Arbiter for the given bus. The hardware's power-on state
// is unknown, so the first Apply pushes all three electrical fields.
func New(bus Bus) *Arbiter {
	return &Arbiter{bus: bus}
}

// Apply reconfigures the bus for the given client.
//
// Each electrical field is compared against the currently applied state and
// written to the hardware only when it differs. Once the electrical
// parameters are settled, the previously asserted select line (if any, and
// if different) is deasserted before the client's own line is asserted, so
// at most one select line is ever asserted.
//
// After Apply returns, the bus matches c exactly and the caller may perform
// a burst of transfers without consulting the arbiter again.
func (a *Arbiter) Apply(c Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.settled || a.mode != c.Mode {
		if err := a.bus.SetMode(c.Mode); err != nil {
			return err
		}
		a.mode = c.Mode
	}
	if !a.settled || a.order != c.Order {
		if err := a.bus.SetBitOrder(c.Order); err != nil {
			return err
		}
		a.order = c.Order
	}
	if !a.settled || a.divider != c.Divider {
		if err := a.bus.SetClockDivider(c.Divider); err != nil {
			return err
		}
		a.divider = c.Divider
	}
	a.settled = true

	if a.cs == c.CS {
		return nil
	}
	if a.cs != nil {
		if err := a.cs.Out(gpio.High); err != nil {
			return err
		}
		a.cs = nil
	}
	if c.CS != nil {
		if err := c.CS.Out(gpio.Low); err != nil {
			return err
		}
	}
	a.cs = c.CS
	return nil
}
