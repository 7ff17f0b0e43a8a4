/*Package synth talks to a multi-chip RF synthesis board: a DAC34H84-class
DAC, two TRF372017-class quadrature modulators, and two digital step
attenuators behind one SPI bus.

The board exposes a 16-bit control-register file at short addresses, plus a
secondary address space of sub-devices reached by an 8-bit address prefix
held inside a single chip-select frame.  The sub-devices disagree about
framing: the DAC takes 24-bit MSB-first frames, the modulators 32-bit
LSB-first frames, the attenuators 16-bit frames.  Each handler states its
own framing explicitly; nothing here toggles shared bit-order state.

One Board owns one bus exclusively.  Operations run to completion before
another may begin; there is no locking because exclusivity is structural.
Two Board instances must never share a bus.Conn.
*/
package synth

import (
	"time"

	"github.com/synthlab/rfsynth/bus"
)

// base transaction configuration: chip select is active high on this board
const spiConfig = bus.CSPolarity

// SPI clock write and read dividers
const (
	divWrite = 4
	divRead  = 16
)

// spiCS is the chip select line wired to the board
const spiCS = 1

// we is the write-enable bit in a short-address frame
const we = 1 << 24

// Sub-device address prefixes in the extended address space.
const (
	ExtDAC  = 5
	ExtMod0 = 6
	ExtMod1 = 7
	ExtAtt0 = 8
	ExtAtt1 = 9
)

// settling times the hardware requires between transactions
const (
	regSettle      = 100 * time.Microsecond
	resetPulse     = 100 * time.Microsecond
	modReadSettle  = 5 * time.Microsecond
	lockSettle     = 30 * time.Millisecond
	selfTestSettle = 300 * time.Millisecond
)

// Variant selects the assembly variant of the board.
type Variant int

const (
	// Baseband boards omit the upconversion chain; the modulators are
	// not populated.
	Baseband Variant = iota

	// Upconverter boards carry both quadrature modulators.
	Upconverter
)

func (v Variant) String() string {
	switch v {
	case Baseband:
		return "baseband"
	case Upconverter:
		return "upconverter"
	default:
		return "invalid"
	}
}

// A RegisterField names a bit span inside one 16-bit board register:
// Length bits starting at bit Offset of register Addr.  Fields are values;
// the package-level descriptors in regs.go are the full map.
type RegisterField struct {
	Addr   uint8
	Offset uint8
	Length uint8
}

func (f RegisterField) mask() uint16 {
	return (1<<f.Length - 1) << f.Offset
}

// Board is a driver instance bound to one bus.
type Board struct {
	conn    bus.Conn
	sched   bus.Scheduler
	variant Variant

	// shadow of the write-only attenuators
	attMU [2]uint8
}

// New creates a Board on the given bus master.  The variant is fixed for
// the life of the instance and validated before any bus traffic.
func New(m bus.Master, variant Variant) (*Board, error) {
	if variant != Baseband && variant != Upconverter {
		return nil, ErrInvalidVariant
	}
	return &Board{conn: m, sched: m, variant: variant}, nil
}

// Variant returns the assembly variant the board was constructed with.
func (b *Board) Variant() Variant {
	return b.variant
}

// ReadReg reads a board control register.
func (b *Board) ReadReg(addr int) (uint16, error) {
	b.conn.Configure(spiConfig|bus.Input|bus.End, 24, divRead, spiCS)
	if err := b.conn.Write(uint32(addr) << 25); err != nil {
		return 0, err
	}
	w, err := b.conn.Read()
	return uint16(w & 0xffff), err
}

// WriteReg writes a board control register.
func (b *Board) WriteReg(addr int, data uint16) error {
	b.conn.Configure(spiConfig|bus.End, 24, divWrite, spiCS)
	return b.conn.Write(uint32(addr)<<25 | we | uint32(data)<<8)
}

// WriteExt performs an SPI write to a prefixed sub-device address.  The
// first 8-bit phase selects the sub-device and leaves the chip select
// asserted; the data phase completes the frame.
func (b *Board) WriteExt(addr, bits int, data uint32) error {
	b.conn.Configure(spiConfig, 8, divWrite, spiCS)
	if err := b.conn.Write(uint32(addr) << 25); err != nil {
		return err
	}
	b.conn.Configure(spiConfig|bus.End, bits, divWrite, spiCS)
	if bits < 32 {
		data <<= 32 - uint(bits)
	}
	return b.conn.Write(data)
}

// ReadExt performs an SPI read from a prefixed sub-device address, clocking
// out probe while the response is clocked in.  The probe encodes whatever
// read-address and read-flag layout the sub-device's own register map uses.
func (b *Board) ReadExt(addr, bits int, probe uint32) (uint32, error) {
	b.conn.Configure(spiConfig, 8, divWrite, spiCS)
	if err := b.conn.Write(uint32(addr) << 25); err != nil {
		return 0, err
	}
	b.conn.Configure(spiConfig|bus.Input|bus.End, bits, divRead, spiCS)
	if bits < 32 {
		probe <<= 32 - uint(bits)
	}
	if err := b.conn.Write(probe); err != nil {
		return 0, err
	}
	return b.conn.Read()
}

// ReadField reads one bit field of a board register.
func (b *Board) ReadField(f RegisterField) (uint16, error) {
	v, err := b.ReadReg(int(f.Addr))
	if err != nil {
		return 0, err
	}
	return (v >> f.Offset) & (1<<f.Length - 1), nil
}

// WriteField read-modify-writes one bit field of a board register, leaving
// every bit outside the field untouched.  Not atomic against other writers
// of the same register; the single-owner rule covers that.
func (b *Board) WriteField(f RegisterField, value uint16) error {
	v, err := b.ReadReg(int(f.Addr))
	if err != nil {
		return err
	}
	v &^= f.mask()
	v |= (value & (1<<f.Length - 1)) << f.Offset
	return b.WriteReg(int(f.Addr), v)
}
