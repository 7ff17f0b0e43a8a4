/*Package bus defines the SPI transaction layer used to reach the synthesis
board.

A Conn models one framed transaction at a time on a shared serial bus: the
caller configures the frame (width, clock dividers, polarity and phase, bit
order, chip select), then writes the word to clock out and/or reads the word
most recently clocked in.  The layer has no protocol knowledge beyond the
clocking parameters; framing rules live with the device drivers.

A Conn must never be shared between two driver instances.  There is no
mutual exclusion at this layer because the physical bus has none; exclusivity
is structural, one owner per bus.
*/
package bus

import "time"

// Flags is the set of clocking options for a single transaction.
type Flags int

// Transaction configuration flags.  These mirror the bit semantics of the
// bus master's configuration register.
const (
	// Offline disables the bus master outputs.
	Offline Flags = 1 << iota

	// End releases the chip select when the transfer completes.  A
	// transaction without End leaves the chip select asserted so a
	// follow-up transfer extends the same frame.
	End

	// Input captures the word clocked in during the transfer, making it
	// available to Read.
	Input

	// CSPolarity inverts the chip select line (active high).
	CSPolarity

	// ClkPolarity sets the idle level of the clock line.
	ClkPolarity

	// ClkPhase shifts the sample edge by half a clock period.
	ClkPhase

	// LSBFirst clocks the word out least significant bit first.  Exactly
	// one sub-device on the synthesis board latches data in this order;
	// drivers state it per transaction rather than toggling shared state.
	LSBFirst

	// HalfDuplex ties MOSI and MISO to a single data line.
	HalfDuplex
)

// Conn is a single-owner handle on the physical bus.
//
// Configure never fails: a malformed configuration is a caller bug, not a
// runtime condition.  Write and Read return errors only when the transport
// carrying the bus master is unreachable or rejects the telegram; the
// in-memory simulator never returns one.
//
// Conn is not reentrant.  The caller must not begin a transaction before
// the previous one completes.
type Conn interface {
	// Configure arms the next transaction: flags as above, bits is the
	// transfer length in bits (1..32), div the clock divider, cs the
	// chip select line.
	Configure(flags Flags, bits, div, cs int)

	// Write clocks out the most-significant-aligned bits of word and
	// completes the transaction.
	Write(word uint32) error

	// Read returns the word captured by the most recent Input transfer.
	Read() (uint32, error)
}

// Scheduler is the timing collaborator.  The driver never sleeps on its own;
// settling times between transactions are inserted by whatever owns the
// timeline, be it a real-time engine or the wall clock.
type Scheduler interface {
	// Delay advances the timeline by d before the next transaction.
	Delay(d time.Duration)
}

// Master is a bus handle with timing, the full collaborator surface the
// board driver needs.
type Master interface {
	Conn
	Scheduler
}
