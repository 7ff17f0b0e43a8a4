package util_test

import (
	"fmt"
	"testing"

	"github.com/synthlab/rfsynth/util"
)

func ExampleSetBit_high() {
	out := util.SetBit(0, 15, true)
	fmt.Printf("%016b\n", out)
	// Output: 1000000000000000
}

func ExampleSetBit_low() {
	out := util.SetBit(0xffff, 0, false)
	fmt.Printf("%016b\n", out)
	// Output: 1111111111111110
}

func TestGetBit(t *testing.T) {
	var w uint16 = 1 << 9
	if !util.GetBit(w, 9) {
		t.Error("bit 9 should be set")
	}
	if util.GetBit(w, 8) {
		t.Error("bit 8 should be clear")
	}
}

func TestReverse32(t *testing.T) {
	cases := map[uint32]uint32{
		0x00000001: 0x80000000,
		0x80000000: 0x00000001,
		0xffffffff: 0xffffffff,
	}
	for in, want := range cases {
		if got := util.Reverse32(in); got != want {
			t.Errorf("Reverse32(0x%08X) = 0x%08X, want 0x%08X", in, got, want)
		}
	}
}
