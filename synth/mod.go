package synth

import "github.com/synthlab/rfsynth/bus"

// The modulators latch their 32-bit frames LSB-first, unlike every other
// chip on the board.  A write frame is
//
//	data<<5 | 1<<3 | addr&7
//
// with the write strobe at bit 3.  Reads have no flag of their own: the
// chip's register 0 carries a readback-enable bit and a 3-bit register
// count, and the response is clocked out on a phase-shifted clock.

// modReadSelect builds the register-0 payload that arms readback of the
// given register.
func modReadSelect(addr int) uint32 {
	return 1<<26 | uint32(addr&0x7)<<23
}

// WriteMod writes a modulator configuration register.  mod is 0 or 1.
func (b *Board) WriteMod(mod, addr int, data uint32) error {
	frame := data<<5 | 1<<3 | uint32(addr&0x7)
	b.conn.Configure(spiConfig, 8, divWrite, spiCS)
	if err := b.conn.Write(uint32(ExtMod0+mod) << 25); err != nil {
		return err
	}
	b.conn.Configure(spiConfig|bus.End|bus.LSBFirst, 32, divWrite, spiCS)
	return b.conn.Write(frame)
}

// ReadMod reads a modulator configuration register.
//
// The sequence is hardware mandated and must not be collapsed:
//
//  1. a WriteMod arming readback of the target register,
//  2. the phase-shifted read itself, preceded by a discarded 8-bit
//     transaction at chip select 0: the first transfer after a clock
//     phase change returns garbage, and the dummy settles the clock line
//     before the response is clocked in,
//  3. a WriteMod of 0 disarming readback.
//
// Omitting any step yields corrupted reads on real hardware.
func (b *Board) ReadMod(mod, addr int) (uint32, error) {
	if err := b.WriteMod(mod, 0, modReadSelect(addr)); err != nil {
		return 0, err
	}

	// settle the clock line at the shifted phase before the real read
	b.conn.Configure(spiConfig|bus.ClkPhase|bus.End, 8, divWrite, 0)
	if err := b.conn.Write(0); err != nil {
		return 0, err
	}

	b.conn.Configure(spiConfig|bus.ClkPhase, 8, divWrite, spiCS)
	if err := b.conn.Write(uint32(ExtMod0+mod) << 25); err != nil {
		return 0, err
	}
	b.conn.Configure(spiConfig|bus.ClkPhase|bus.Input|bus.End|bus.LSBFirst,
		32, divRead, spiCS)
	if err := b.conn.Write(0); err != nil {
		return 0, err
	}
	w, err := b.conn.Read()
	if err != nil {
		return 0, err
	}
	b.sched.Delay(modReadSettle)

	if err := b.WriteMod(mod, 0, 0); err != nil {
		return 0, err
	}
	return w, nil
}

// ModReadback is the diagnostic comparison for one programmed coefficient.
type ModReadback struct {
	Addr int    `json:"addr"`
	Want uint32 `json:"want"`
	Got0 uint32 `json:"got0"`
	Got1 uint32 `json:"got1"`
}

// Match reports whether both chips read back the programmed value.
func (r ModReadback) Match() bool {
	return r.Got0 == r.Want && r.Got1 == r.Want
}

// ModConfigResult is what ConfigureMod observed.  Mismatched readbacks and
// missing lock are data for the caller, not errors; whether to reprogram is
// the caller's call.
type ModConfigResult struct {
	Readbacks []ModReadback `json:"readbacks"`
	Locked0   bool          `json:"locked0"`
	Locked1   bool          `json:"locked1"`
}

// ConfigureMod programs the caller-supplied coefficient table into both
// modulator chips at successive register addresses starting at 1, reads
// each just-written address back from both chips for comparison, then
// waits out the lock settling time and samples both lock-detect fields.
//
// The chips decode a 3-bit register address and register 0 is the
// readback control word, so a table holds at most 7 coefficients.  An
// eighth entry would wrap onto register 0 and corrupt the control state
// mid-provisioning; longer tables return ErrTableTooLong before any bus
// traffic.
func (b *Board) ConfigureMod(table []uint32) (ModConfigResult, error) {
	if len(table) > 7 {
		return ModConfigResult{}, ErrTableTooLong
	}
	res := ModConfigResult{Readbacks: make([]ModReadback, 0, len(table))}
	for i, c := range table {
		addr := i + 1
		if err := b.WriteMod(0, addr, c); err != nil {
			return res, err
		}
		if err := b.WriteMod(1, addr, c); err != nil {
			return res, err
		}
		rb := ModReadback{Addr: addr, Want: c}
		var err error
		if rb.Got0, err = b.ReadMod(0, addr); err != nil {
			return res, err
		}
		if rb.Got1, err = b.ReadMod(1, addr); err != nil {
			return res, err
		}
		res.Readbacks = append(res.Readbacks, rb)
	}
	b.sched.Delay(lockSettle)
	var err error
	res.Locked0, res.Locked1, err = b.LockStatus()
	return res, err
}

// LockStatus samples the lock-detect field, one bit per modulator chip.
func (b *Board) LockStatus() (bool, bool, error) {
	ld, err := b.ReadField(FieldModLock)
	if err != nil {
		return false, false, err
	}
	return ld&1 != 0, ld&2 != 0, nil
}
