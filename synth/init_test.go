package synth

import (
	"errors"
	"testing"

	"github.com/synthlab/rfsynth/util"
)

func TestInitHappyPath(t *testing.T) {
	b, sim := newBoard(t)
	if err := b.Init(); err != nil {
		t.Fatalf("Init failed against a healthy board: %v", err)
	}

	ctrl := sim.Reg(regControl)
	for _, tc := range []struct {
		name string
		f    RegisterField
		want bool
	}{
		{"att0 reset released", FieldAtt0RstN, true},
		{"att1 reset released", FieldAtt1RstN, true},
		{"dac reset released", FieldDACResetN, true},
		{"dac if reset released", FieldDACIFResetN, true},
		{"play cleared", FieldDACPlay, false},
		{"test pattern cleared", FieldDACTestEna, false},
	} {
		if got := util.GetBit(ctrl, uint(tc.f.Offset)); got != tc.want {
			t.Errorf("%s: control register bit %d is %v, want %v",
				tc.name, tc.f.Offset, got, tc.want)
		}
	}
	if sim.DACReg(dacRegConfig2)&dacSIF4Ena == 0 {
		t.Error("4-wire interface not enabled")
	}
	if sim.DACReg(dacRegIOTest) != 0 {
		t.Error("IO test mode left enabled")
	}
}

func TestInitUnsupportedHardwareStopsImmediately(t *testing.T) {
	b, sim := newBoard(t)
	sim.SetStatusField(FieldHWRev, 2)
	err := b.Init()
	if !errors.Is(err, ErrUnsupportedHardware) {
		t.Fatalf("want ErrUnsupportedHardware, got %v", err)
	}
	// nothing may touch the bus after the failing revision read
	if len(sim.Log) != 1 {
		t.Errorf("expected exactly 1 transaction before the failure, got %d", len(sim.Log))
	}
}

func TestInitUnsupportedProtocol(t *testing.T) {
	b, sim := newBoard(t)
	sim.SetStatusField(FieldProtoRev, 1)
	if err := b.Init(); !errors.Is(err, ErrUnsupportedProtocol) {
		t.Fatalf("want ErrUnsupportedProtocol, got %v", err)
	}
}

func TestInitModIdentificationFailure(t *testing.T) {
	b, sim := newBoard(t)
	sim.SetModReg(1, 0, 0x13)
	err := b.Init()
	var ie *IdentificationError
	if !errors.As(err, &ie) {
		t.Fatalf("want IdentificationError, got %v", err)
	}
	if ie.Chip != "modulator 1" {
		t.Errorf("failure attributed to %q, want modulator 1", ie.Chip)
	}
	if ie.Got != 0x13 {
		t.Errorf("reported readout 0x%02X, want 0x13", ie.Got)
	}
}

func TestInitSkipsModCheckOnBasebandStrap(t *testing.T) {
	b, sim := newBoard(t)
	sim.SetStatusField(FieldVariantStrap, 1) // not an upconverter assembly
	sim.SetModReg(0, 0, 0)                   // would fail the id check if run
	sim.SetModReg(1, 0, 0)
	if err := b.Init(); err != nil {
		t.Fatalf("baseband strap must skip the modulator check, got %v", err)
	}
}

func TestInitDACVersionMismatch(t *testing.T) {
	b, sim := newBoard(t)
	sim.SetDACReg(dacRegVersion, 0x1234)
	err := b.Init()
	var ie *IdentificationError
	if !errors.As(err, &ie) {
		t.Fatalf("want IdentificationError, got %v", err)
	}
	if ie.Chip != "DAC" || ie.Want != dacVersionID {
		t.Errorf("unexpected identification report: %+v", ie)
	}
}

func TestInitSelfTestFailure(t *testing.T) {
	b, sim := newBoard(t)
	sim.SetDACReg(dacRegAlarmA, alarmIOTest)
	if err := b.Init(); !errors.Is(err, ErrSelfTestFailed) {
		t.Fatalf("want ErrSelfTestFailed, got %v", err)
	}
}

func TestInitHonorsSettlingTimes(t *testing.T) {
	b, sim := newBoard(t)
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	var sawReset, sawSelfTest bool
	for _, d := range sim.Delays {
		if d == resetPulse {
			sawReset = true
		}
		if d == selfTestSettle {
			sawSelfTest = true
		}
	}
	if !sawReset {
		t.Error("reset pulse width not inserted")
	}
	if !sawSelfTest {
		t.Error("self-test settling time not inserted")
	}
}

func TestEnableGenerationAlarms(t *testing.T) {
	b, sim := newBoard(t)
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	alarms, err := b.EnableGeneration()
	if err != nil {
		t.Fatal(err)
	}
	if alarms.Raw != 0 {
		t.Errorf("healthy board should report a clean alarm register, got 0x%04X", alarms.Raw)
	}
	if util.GetBit(sim.Reg(regControl), uint(FieldDACPlay.Offset)) != true {
		t.Error("play not enabled")
	}
	if util.GetBit(sim.Reg(regControl), uint(FieldDACTxEna.Offset)) != true {
		t.Error("txena not enabled")
	}
	// the provisioning script must land in the DAC shadow registers
	if sim.DACReg(dacRegFIFOOff) != 0x8000 {
		t.Errorf("FIFO offset not programmed, got 0x%04X", sim.DACReg(dacRegFIFOOff))
	}
	if sim.DACReg(dacRegFuse) != 0x0002 {
		t.Errorf("fuse-sleep not programmed, got 0x%04X", sim.DACReg(dacRegFuse))
	}

	// decoded alarm bits follow the raw word
	sim.SetDACReg(dacRegAlarmA, alarmFIFOCollision|alarmDACClockGone)
	alarms, err = b.ReadAlarms()
	if err != nil {
		t.Fatal(err)
	}
	if !alarms.FIFOCollision || !alarms.ClockLost {
		t.Errorf("alarm decode wrong: %+v", alarms)
	}
	if alarms.DataClockLost || alarms.SelfTest {
		t.Errorf("alarm decode set bits that are clear: %+v", alarms)
	}
}
