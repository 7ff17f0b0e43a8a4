package synth

import "fmt"

// Init brings the board from power-on to a configured-but-idle state.
//
// The sequence is linear and fails fast; each step is a distinct
// precondition check.  Nothing is retried internally: a failed handshake
// leaves partial hardware state behind, so the caller must re-run Init
// from the top rather than resume.
func (b *Board) Init() error {
	// 1. compatible hardware generation
	hwRev, err := b.ReadField(FieldHWRev)
	if err != nil {
		return err
	}
	b.sched.Delay(regSettle)
	if hwRev > 1 {
		return fmt.Errorf("%w: board reports revision %d", ErrUnsupportedHardware, hwRev)
	}

	// 2. compatible register protocol
	protoRev, err := b.ReadField(FieldProtoRev)
	if err != nil {
		return err
	}
	if protoRev > 0 {
		return fmt.Errorf("%w: gateware reports revision %d", ErrUnsupportedProtocol, protoRev)
	}

	// 3. on upconverter assemblies, both modulators must answer
	strap, err := b.ReadField(FieldVariantStrap)
	if err != nil {
		return err
	}
	if strap == 0 {
		for mod := 0; mod < 2; mod++ {
			id, err := b.ReadMod(mod, 0)
			if err != nil {
				return err
			}
			if id&0x7f != modIDByte {
				return &IdentificationError{
					Chip: fmt.Sprintf("modulator %d", mod),
					Want: modIDByte,
					Got:  id & 0x7f,
				}
			}
		}
	}

	// 4. release the attenuator resets, then pulse the DAC reset and
	// interface reset low; the chip wants a minimum low time before
	// normal operation
	if err := b.WriteField(FieldAtt0RstN, 1); err != nil {
		return err
	}
	if err := b.WriteField(FieldAtt1RstN, 1); err != nil {
		return err
	}
	if err := b.WriteField(FieldDACResetN, 0); err != nil {
		return err
	}
	if err := b.WriteField(FieldDACIFResetN, 0); err != nil {
		return err
	}
	b.sched.Delay(resetPulse)
	if err := b.WriteField(FieldDACResetN, 1); err != nil {
		return err
	}
	if err := b.WriteField(FieldDACIFResetN, 1); err != nil {
		return err
	}

	// 5. bring up the 4-wire control interface, then make sure the chip
	// on the other end is the one we expect
	if err := b.WriteDAC(dacRegConfig2, dacSIF4Ena); err != nil {
		return err
	}
	version, err := b.ReadDAC(dacRegVersion)
	if err != nil {
		return err
	}
	if version != dacVersionID {
		return &IdentificationError{Chip: "DAC", Want: dacVersionID, Got: uint32(version)}
	}
	b.sched.Delay(regSettle)

	// 6. built-in LVDS interface self test
	if err := b.WriteDAC(dacRegIOTest, dacIOTestEna); err != nil {
		return err
	}
	if err := b.WriteField(FieldDACTestEna, 1); err != nil {
		return err
	}
	if err := b.WriteField(FieldDACPlay, 1); err != nil {
		return err
	}
	b.sched.Delay(selfTestSettle)
	alarms, err := b.ReadAlarms()
	if err != nil {
		return err
	}
	if alarms.SelfTest {
		return ErrSelfTestFailed
	}

	// 7. leave the board configured but idle
	if err := b.WriteField(FieldDACPlay, 0); err != nil {
		return err
	}
	if err := b.WriteField(FieldDACTestEna, 0); err != nil {
		return err
	}
	return b.WriteDAC(dacRegIOTest, 0)
}
