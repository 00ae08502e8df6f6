package spistream

import (
	"periph.io/x/devices/v3/spistream/spiarb"
)

// Bus is the raw transfer surface of the shared SPI peripheral. It extends
// the electrical surface consumed by spiarb.Arbiter with the transfer
// operations the pipeline needs.
//
// BeginTransfer must not block for the duration of the transfer: it starts
// the hardware transfer of buf and returns immediately, then calls done
// exactly once from the hardware's completion context once the last byte
// has been clocked out. The pipeline guarantees buf is not mutated between
// BeginTransfer and done.
type Bus interface {
	spiarb.Bus

	// BeginTransfer starts an asynchronous write of buf.
	BeginTransfer(buf []byte, done func()) error
	// Busy reports whether an asynchronous transfer is still ongoing.
	Busy() bool
	// Exchange clocks a single word synchronously and returns the word
	// read back.
	Exchange(w byte) (byte, error)
}
