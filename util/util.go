// Package util contains misc internal utilities.
package util

import "math/bits"

// GetBit returns the value of a given bit in a 16-bit register word
func GetBit(w uint16, bitIndex uint) bool {
	return (w & (1 << bitIndex)) != 0
}

// SetBit returns w with the given bit forced to high
func SetBit(w uint16, bitIndex uint, high bool) uint16 {
	if high {
		return w | (1 << bitIndex)
	}
	return w &^ (1 << bitIndex)
}

// Reverse32 mirrors the bit order of a word.  Frames for the one sub-device
// that latches LSB-first are reversed on the wire; the simulated board uses
// this to recover them.
func Reverse32(w uint32) uint32 {
	return bits.Reverse32(w)
}
