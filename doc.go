// Package spistream drives a display controller on a shared SPI bus
// through a double-buffered, asynchronous byte-stream pipeline.
//
// The package solves two tightly coupled problems:
//
// Bus arbitration. One physical SPI peripheral is shared by several logical
// clients (a display controller, a touch controller, ...), each demanding
// its own clock mode, bit order, clock divider and chip-select line. The
// spiarb subpackage tracks what is currently applied to the hardware and,
// when control passes between clients, reconfigures only the fields that
// differ and performs the select-line handoff. At most one select line is
// asserted at any instant.
//
// Asynchronous streaming. Outgoing bytes accumulate in one of two
// fixed-capacity buffers. When the active buffer fills (or Flush is
// called), it is handed to an asynchronous transfer and the other buffer
// becomes active, so the producer keeps running while the previous buffer
// is still being clocked out. Command words bypass buffering entirely: they
// flush pending data, wait for the bus to drain, and go out synchronously
// with the data/command line held low, so a command can never reorder
// against the pixel data around it.
//
// # Capability surface
//
// The pipeline consumes a Bus capability rather than a concrete device:
// three electrical setters for the arbiter, an asynchronous BeginTransfer
// with a completion callback, a Busy poll and a synchronous single-word
// Exchange. PortBus implements the capability on top of any periph.io
// spi.Port, emulating the completion interrupt with a goroutine; on bare
// metal the same interface maps directly onto a DMA engine and its transfer
// complete interrupt.
//
// # Basic usage
//
//	port, _ := spireg.Open("")
//	bus := spistream.NewPortBus(port)
//	arb := spiarb.New(bus)
//
//	display := spiarb.Config{
//		Mode:    spi.Mode0,
//		Order:   spiarb.MSBFirst,
//		Divider: 32,
//		CS:      gpioreg.ByName("GPIO8"),
//	}
//
//	dev, _ := spistream.New(bus, arb, display, gpioreg.ByName("GPIO25"), nil)
//	dev.Acquire()
//
//	dev.WriteCommand(0x2C) // memory write
//	dev.Write(frame)       // buffered, transfers overlap with production
//	dev.Flush()
//	dev.WaitUntilIdle()
//
// Other clients of the same bus call arb.Apply with their own Config before
// their bursts; the next Acquire hands the bus back to the display.
//
// # Ordering guarantees
//
//   - At most one buffer is in flight at any instant, and transfers start
//     strictly in the order they were scheduled.
//   - A buffer is never mutated while it is in flight.
//   - Chip-select assert/deassert pairs are strictly nested per transfer.
//   - WriteCommand always observes an idle bus before its synchronous
//     exchange.
//
// # Timeouts
//
// By default a wait for completion spins until the hardware signals done,
// matching controllers where a started transfer always finishes. Setting
// Opts.Timeout bounds every such wait; on expiry the select line is
// released, the scheduler resets to idle and ErrTransferTimeout is returned
// to the caller. The bytes of the abandoned transfer are lost.
package spistream
