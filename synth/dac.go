package synth

// WriteDAC writes a DAC configuration register: 24-bit frame, register
// address in the upper byte.
func (b *Board) WriteDAC(addr int, data uint16) error {
	return b.WriteExt(ExtDAC, 24, uint32(addr&0xff)<<16|uint32(data))
}

// ReadDAC reads a DAC configuration register.  Bit 7 of the address byte
// signals a read to the chip's serial interface decoder.
func (b *Board) ReadDAC(addr int) (uint16, error) {
	w, err := b.ReadExt(ExtDAC, 24, uint32(1<<7|addr)<<16)
	return uint16(w & 0xffff), err
}

// Alarms is a decoded snapshot of the DAC alarm register.  It is
// diagnostic data for operator inspection, not a failure: transient FIFO
// flags right after enabling generation are normal until the data clock
// settles.
type Alarms struct {
	ClockLost     bool   `json:"clockLost"`
	DataClockLost bool   `json:"dataClockLost"`
	FIFONearEmpty bool   `json:"fifoNearEmpty"`
	FIFONearFull  bool   `json:"fifoNearFull"`
	FIFOCollision bool   `json:"fifoCollision"`
	SelfTest      bool   `json:"selfTest"`
	Raw           uint16 `json:"raw"`
}

func decodeAlarms(w uint16) Alarms {
	return Alarms{
		ClockLost:     w&alarmDACClockGone != 0,
		DataClockLost: w&alarmDataClockGone != 0,
		FIFONearEmpty: w&alarmFIFONearEmpty != 0,
		FIFONearFull:  w&alarmFIFONearFull != 0,
		FIFOCollision: w&alarmFIFOCollision != 0,
		SelfTest:      w&alarmIOTest != 0,
		Raw:           w,
	}
}

// ReadAlarms reads and decodes the DAC alarm register.
func (b *Board) ReadAlarms() (Alarms, error) {
	w, err := b.ReadDAC(dacRegAlarmA)
	if err != nil {
		return Alarms{}, err
	}
	return decodeAlarms(w), nil
}

// EnableGeneration provisions the DAC output stage and starts sample
// playback.  The register script is write-only and order dependent; no
// intermediate state is validated.  The returned alarm snapshot is
// advisory, never an error: the caller decides whether the flags matter.
func (b *Board) EnableGeneration() (Alarms, error) {
	for _, w := range dacGenerationScript {
		if err := b.WriteDAC(w.addr, w.data); err != nil {
			return Alarms{}, err
		}
		b.sched.Delay(regSettle)
	}
	if err := b.WriteField(FieldDACPlay, 1); err != nil {
		return Alarms{}, err
	}
	if err := b.WriteField(FieldDACTxEna, 1); err != nil {
		return Alarms{}, err
	}
	b.sched.Delay(regSettle)
	return b.ReadAlarms()
}
