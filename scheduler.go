package spistream

import (
	"runtime"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// scheduler serializes asynchronous transfers over the bus. beginTransfer
// always drains the previous transfer first, so at most one is in flight
// and transfers start strictly in call order.
type scheduler struct {
	bus     Bus
	cs      gpio.PinOut   // client's select line, nil when the port drives CS itself
	busy    atomic.Bool   // set between transfer start and completion
	timeout time.Duration // bound on waitUntilIdle, 0 waits forever
}

// beginTransfer asserts the select line and starts a transfer of buf. done
// runs from the completion context, after the select line has been
// released.
func (s *scheduler) beginTransfer(buf []byte, done func()) error {
	if err := s.waitUntilIdle(); err != nil {
		return err
	}
	if s.cs != nil {
		if err := s.cs.Out(gpio.Low); err != nil {
			return err
		}
	}
	s.busy.Store(true)
	err := s.bus.BeginTransfer(buf, func() {
		if s.cs != nil {
			// The completion context has nowhere to report to.
			s.cs.Out(gpio.High)
		}
		done()
		s.busy.Store(false)
	})
	if err != nil {
		s.busy.Store(false)
		if s.cs != nil {
			s.cs.Out(gpio.High)
		}
	}
	return err
}

// waitUntilIdle blocks until no transfer is in flight. With a timeout
// configured it gives up once the deadline passes, releases the select line,
// resets to idle and reports ErrTransferTimeout; whatever the hardware was
// still doing with the in-flight bytes is lost.
func (s *scheduler) waitUntilIdle() error {
	var deadline time.Time
	if s.timeout > 0 {
		deadline = time.Now().Add(s.timeout)
	}
	for s.busy.Load() {
		if s.timeout > 0 && time.Now().After(deadline) {
			s.busy.Store(false)
			if s.cs != nil {
				s.cs.Out(gpio.High)
			}
			return ErrTransferTimeout
		}
		runtime.Gosched()
	}
	return nil
}

func (s *scheduler) idle() bool {
	return !s.busy.Load()
}
