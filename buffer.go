package spistream

import "sync/atomic"

// Per-slot buffer states. A slot owned by an asynchronous transfer must not
// be written to. The idle transition happens in the transfer's completion
// context, so the state lives in an atomic rather than a plain field.
const (
	slotIdle uint32 = iota
	slotFilling
	slotInFlight
)

// bufferPool accumulates outgoing bytes into one of two fixed-capacity
// buffers. Exactly one slot is filling at any time and at most one is owned
// by an in-flight transfer, never the same one.
type bufferPool struct {
	bufs   [2][]byte
	active int // slot currently filling
	n      int // bytes in the active slot
	state  [2]atomic.Uint32
}

func newBufferPool(capacity int) *bufferPool {
	p := &bufferPool{}
	p.bufs[0] = make([]byte, capacity)
	p.bufs[1] = make([]byte, capacity)
	p.state[0].Store(slotFilling)
	return p
}

// append writes one byte into the active buffer. It fails fast with
// ErrBufferOverflow instead of writing past capacity; callers must flush
// when isFull reports true.
func (p *bufferPool) append(b byte) error {
	if p.n >= len(p.bufs[p.active]) {
		return ErrBufferOverflow
	}
	p.bufs[p.active][p.n] = b
	p.n++
	return nil
}

func (p *bufferPool) isFull() bool {
	return p.n == len(p.bufs[p.active])
}

// pending returns the number of bytes waiting in the active buffer.
func (p *bufferPool) pending() int {
	return p.n
}

// beginFlush hands the active buffer to the scheduler and swaps filling to
// the other slot, so the caller can keep appending while the transfer is in
// flight. If the other slot is somehow still in flight it waits for the bus
// to drain before reusing it.
func (p *bufferPool) beginFlush(s *scheduler) error {
	slot := p.active
	st := &p.state[slot]
	st.Store(slotInFlight)
	if err := s.beginTransfer(p.bufs[slot][:p.n], func() { st.Store(slotIdle) }); err != nil {
		st.Store(slotFilling)
		return err
	}

	next := slot ^ 1
	// With a single transfer in flight the other slot has always drained by
	// the time beginTransfer returns; the wait keeps the no-overwrite
	// invariant if the scheduler ever runs deeper than one transfer.
	if p.state[next].Load() == slotInFlight {
		if err := s.waitUntilIdle(); err != nil {
			return err
		}
	}
	p.state[next].Store(slotFilling)
	p.active = next
	p.n = 0
	return nil
}
