package synth

import (
	"time"

	"github.com/synthlab/rfsynth/bus"
	"github.com/synthlab/rfsynth/util"
)

// Transaction is one framed bus transfer as the simulated board saw it.
type Transaction struct {
	Flags bus.Flags
	Bits  int
	Div   int
	CS    int
	Word  uint32
}

// Sim emulates the board at the register level: it implements bus.Master,
// decodes the frames a Board clocks at it, and keeps shadow register files
// for the board, the DAC and both modulators.  Every transfer and every
// delay is recorded for inspection.
//
// The zero value is not useful; NewSim returns a healthy board.
type Sim struct {
	regs [128]uint16
	dac  [128]uint16
	mod  [2][8]uint32
	att  [2]uint8

	// pending readback register per modulator, armed through the chip's
	// register 0
	modReadSel [2]int

	flags    bus.Flags
	bits     int
	div      int
	cs       int
	prefix   int // sub-device selected by an open prefix phase, -1 if none
	lastRead uint32

	Log    []Transaction
	Delays []time.Duration
}

// NewSim returns a simulated board that passes Init: hardware revision 1,
// protocol revision 0, upconverter strap, both modulators answering with
// their id byte, DAC version register correct, lock detect asserted.
func NewSim() *Sim {
	s := &Sim{prefix: -1}
	s.regs[regStatus] = 1<<2 | 3<<8 // hw rev 1, both PLLs locked, strap 0
	s.dac[dacRegVersion] = dacVersionID
	s.mod[0][0] = modIDByte
	s.mod[1][0] = modIDByte
	return s
}

// SetStatusField overwrites one field of the simulated status register,
// for driving the failure paths in tests.
func (s *Sim) SetStatusField(f RegisterField, v uint16) {
	w := s.regs[f.Addr]
	for i := uint(0); i < uint(f.Length); i++ {
		w = util.SetBit(w, uint(f.Offset)+i, v&(1<<i) != 0)
	}
	s.regs[f.Addr] = w
}

// SetDACReg overwrites one simulated DAC register.
func (s *Sim) SetDACReg(addr int, v uint16) { s.dac[addr&0x7f] = v }

// SetModReg overwrites one simulated modulator register.
func (s *Sim) SetModReg(mod, addr int, v uint32) { s.mod[mod][addr&0x7] = v }

// Reg returns one simulated board register.
func (s *Sim) Reg(addr int) uint16 { return s.regs[addr&0x7f] }

// DACReg returns one simulated DAC register.
func (s *Sim) DACReg(addr int) uint16 { return s.dac[addr&0x7f] }

// ModReg returns one simulated modulator register.
func (s *Sim) ModReg(mod, addr int) uint32 { return s.mod[mod][addr&0x7] }

// Att returns the last step code written to an attenuator.
func (s *Sim) Att(channel int) uint8 { return s.att[channel] }

// Configure implements bus.Conn.
func (s *Sim) Configure(flags bus.Flags, bits, div, cs int) {
	s.flags, s.bits, s.div, s.cs = flags, bits, div, cs
}

// Write implements bus.Conn, decoding the frame against the shadow
// registers.
func (s *Sim) Write(word uint32) error {
	s.Log = append(s.Log, Transaction{s.flags, s.bits, s.div, s.cs, word})

	if s.cs != spiCS {
		// transfer with no chip selected, e.g. the clock settling
		// dummy; nothing latches it
		return nil
	}
	if s.prefix >= 0 {
		sub := s.prefix
		if s.flags&bus.End != 0 {
			s.prefix = -1
		}
		s.subDevice(sub, word)
		return nil
	}

	switch {
	case s.bits == 8 && s.flags&bus.End == 0:
		// prefix phase: chip select stays asserted for the data phase
		s.prefix = int(word >> 25)
	case s.bits == 24:
		addr := word >> 25 & 0x7f
		if word&we != 0 {
			s.regs[addr] = uint16(word >> 8)
		} else {
			s.lastRead = uint32(s.regs[addr])
		}
	case s.bits == 16:
		// attenuator frame, extended address folded into the top bits
		ext := int(word >> 25)
		if ext == ExtAtt0 || ext == ExtAtt1 {
			s.att[ext-ExtAtt0] = uint8(word >> 16)
		}
	}
	return nil
}

// subDevice routes the data phase of a prefixed frame.
func (s *Sim) subDevice(sub int, word uint32) {
	switch sub {
	case ExtDAC:
		frame := word >> 8 // 24-bit frame, MSB aligned on the wire
		addr := frame >> 16 & 0xff
		if addr&0x80 != 0 {
			s.lastRead = uint32(s.dac[addr&0x7f])
		} else {
			s.dac[addr&0x7f] = uint16(frame)
		}
	case ExtMod0, ExtMod1:
		m := sub - ExtMod0
		if s.flags&bus.Input != 0 {
			s.lastRead = s.mod[m][s.modReadSel[m]]
			return
		}
		frame := word
		if s.flags&bus.LSBFirst == 0 {
			// the chip always latches LSB-first; a frame clocked
			// MSB-first arrives mirrored
			frame = util.Reverse32(word)
		}
		addr := int(frame & 0x7)
		data := frame >> 5
		if addr == 0 {
			// register 0 is the readback control word
			if data&(1<<26) != 0 {
				s.modReadSel[m] = int(data >> 23 & 0x7)
			}
			return
		}
		s.mod[m][addr] = data
	}
}

// Read implements bus.Conn.
func (s *Sim) Read() (uint32, error) {
	return s.lastRead, nil
}

// Delay implements bus.Scheduler.  Simulated time, recorded not slept.
func (s *Sim) Delay(d time.Duration) {
	s.Delays = append(s.Delays, d)
}
