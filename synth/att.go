package synth

import (
	"fmt"

	"github.com/synthlab/rfsynth/bus"
)

// SetAttMU sets a digital step attenuator in machine units.  channel is 0
// or 1; att is the raw 8-bit step code, no dB conversion happens here.
// The attenuators take a single 16-bit frame with the extended address in
// the upper bits, no prefix phase.
func (b *Board) SetAttMU(channel int, att uint8) error {
	if channel < 0 || channel > 1 {
		return fmt.Errorf("synth: attenuator channel must be 0 or 1, got %d", channel)
	}
	b.conn.Configure(spiConfig|bus.End, 16, divWrite, spiCS)
	err := b.conn.Write(uint32(ExtAtt0+channel)<<25 | uint32(att)<<16)
	if err == nil {
		b.attMU[channel] = att
	}
	return err
}

// AttMU returns the last step code written to the given channel.  The
// attenuators are write-only parts; this is the driver's shadow copy, valid
// from the first SetAttMU after a reset.
func (b *Board) AttMU(channel int) uint8 {
	return b.attMU[channel]
}
