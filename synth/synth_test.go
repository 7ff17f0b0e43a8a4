package synth

import (
	"testing"

	"github.com/synthlab/rfsynth/bus"
)

func newBoard(t *testing.T) (*Board, *Sim) {
	t.Helper()
	sim := NewSim()
	b, err := New(sim, Upconverter)
	if err != nil {
		t.Fatalf("New returned %v", err)
	}
	return b, sim
}

func TestNewRejectsInvalidVariant(t *testing.T) {
	_, err := New(NewSim(), Variant(42))
	if err != ErrInvalidVariant {
		t.Fatalf("expected ErrInvalidVariant, got %v", err)
	}
}

func TestWriteRegFrameLayout(t *testing.T) {
	b, sim := newBoard(t)
	if err := b.WriteReg(3, 0xbeef); err != nil {
		t.Fatal(err)
	}
	if len(sim.Log) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(sim.Log))
	}
	tr := sim.Log[0]
	want := uint32(3)<<25 | 1<<24 | 0xbeef<<8
	if tr.Word != want {
		t.Errorf("frame mismatch: want 0x%08X got 0x%08X", want, tr.Word)
	}
	if tr.Bits != 24 || tr.CS != spiCS || tr.Flags&bus.End == 0 {
		t.Errorf("bad frame config: %+v", tr)
	}
}

func TestRegRoundTrip(t *testing.T) {
	b, _ := newBoard(t)
	for _, v := range []uint16{0, 1, 0x5409, 0xffff} {
		if err := b.WriteReg(4, v); err != nil {
			t.Fatal(err)
		}
		got, err := b.ReadReg(4)
		if err != nil {
			t.Fatal(err)
		}
		if got != v {
			t.Errorf("round trip of 0x%04X returned 0x%04X", v, got)
		}
	}
}

func TestFieldWriteThenRead(t *testing.T) {
	b, _ := newBoard(t)
	fields := []RegisterField{
		{4, 0, 1},
		{4, 3, 5},
		{4, 9, 7},
		{5, 0, 16},
	}
	for _, f := range fields {
		for _, v := range []uint16{0, 1, 0xbeef, 0xffff} {
			if err := b.WriteField(f, v); err != nil {
				t.Fatal(err)
			}
			got, err := b.ReadField(f)
			if err != nil {
				t.Fatal(err)
			}
			want := v & (1<<f.Length - 1)
			if got != want {
				t.Errorf("field %+v: wrote 0x%04X, want 0x%04X back, got 0x%04X",
					f, v, want, got)
			}
		}
	}
}

func TestFieldWritePreservesNeighbors(t *testing.T) {
	b, sim := newBoard(t)
	f := RegisterField{6, 4, 3}
	if err := b.WriteReg(6, 0xffff); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteField(f, 0); err != nil {
		t.Fatal(err)
	}
	got := sim.Reg(6)
	want := uint16(0xffff) &^ f.mask()
	if got != want {
		t.Errorf("neighbor bits disturbed: want 0x%04X got 0x%04X", want, got)
	}
	// and back the other way: field set against a zero background
	if err := b.WriteReg(6, 0); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteField(f, 0x7); err != nil {
		t.Fatal(err)
	}
	if got := sim.Reg(6); got != f.mask() {
		t.Errorf("expected only field bits set, got 0x%04X", got)
	}
}

func TestWriteDACFrame(t *testing.T) {
	b, sim := newBoard(t)
	if err := b.WriteDAC(0x1d, 0x00aa); err != nil {
		t.Fatal(err)
	}
	if len(sim.Log) != 2 {
		t.Fatalf("expected prefix + data transactions, got %d", len(sim.Log))
	}
	prefix := sim.Log[0]
	if prefix.Bits != 8 || prefix.Flags&bus.End != 0 || prefix.Word>>25 != ExtDAC {
		t.Errorf("bad prefix phase: %+v", prefix)
	}
	if sim.DACReg(0x1d) != 0x00aa {
		t.Errorf("DAC register not latched, got 0x%04X", sim.DACReg(0x1d))
	}
}

func TestReadDACUsesReadFlag(t *testing.T) {
	b, sim := newBoard(t)
	sim.SetDACReg(0x1d, 0x1234)
	got, err := b.ReadDAC(0x1d)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x1234 {
		t.Errorf("want 0x1234 got 0x%04X", got)
	}
	data := sim.Log[1]
	// probe must carry the read flag in bit 7 of the address byte
	if data.Word>>8>>16&0x80 == 0 {
		t.Errorf("probe word 0x%08X missing read flag", data.Word)
	}
}

func TestSetAttMURejectsBadChannel(t *testing.T) {
	b, sim := newBoard(t)
	for _, ch := range []int{-1, 2, 7} {
		if err := b.SetAttMU(ch, 0x10); err == nil {
			t.Errorf("channel %d accepted", ch)
		}
	}
	// rejection must happen before anything is clocked at the bus
	if len(sim.Log) != 0 {
		t.Errorf("bad channels issued %d bus transactions", len(sim.Log))
	}
}

func TestSetAttMU(t *testing.T) {
	b, sim := newBoard(t)
	if err := b.SetAttMU(1, 0x5a); err != nil {
		t.Fatal(err)
	}
	if sim.Att(1) != 0x5a {
		t.Errorf("attenuator 1 holds 0x%02X, want 0x5A", sim.Att(1))
	}
	if b.AttMU(1) != 0x5a {
		t.Errorf("shadow copy holds 0x%02X, want 0x5A", b.AttMU(1))
	}
	tr := sim.Log[0]
	if tr.Bits != 16 {
		t.Errorf("attenuator frame should be 16 bits, got %d", tr.Bits)
	}
	want := uint32(ExtAtt1)<<25 | 0x5a<<16
	if tr.Word != want {
		t.Errorf("frame mismatch: want 0x%08X got 0x%08X", want, tr.Word)
	}
}
