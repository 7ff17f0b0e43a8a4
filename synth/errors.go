package synth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidVariant is returned by New for a variant outside the
	// known enumeration.  It never reaches the bus.
	ErrInvalidVariant = errors.New("synth: variant must be Baseband or Upconverter")

	// ErrUnsupportedHardware means the board identifies as a hardware
	// generation this driver does not speak.
	ErrUnsupportedHardware = errors.New("synth: unsupported board revision")

	// ErrUnsupportedProtocol means the gateware register protocol is
	// newer than this driver.
	ErrUnsupportedProtocol = errors.New("synth: unsupported protocol revision")

	// ErrSelfTestFailed means the DAC's LVDS interface self test latched
	// a pattern mismatch.  Inspect the data lane wiring; re-running Init
	// without fixing it will fail again.
	ErrSelfTestFailed = errors.New("synth: DAC LVDS self test failed")

	// ErrTableTooLong means a coefficient table does not fit the
	// modulators' register file.  Rejected before any bus traffic.
	ErrTableTooLong = errors.New("synth: coefficient table longer than 7 entries")
)

// IdentificationError reports a sub-device that did not answer with its
// expected identification value during Init.  Fatal for that Init call;
// the full reset sequence must be re-run, not resumed.
type IdentificationError struct {
	Chip string
	Want uint32
	Got  uint32
}

func (e *IdentificationError) Error() string {
	return fmt.Sprintf("synth: %s identification mismatch: want 0x%04X, got 0x%04X",
		e.Chip, e.Want, e.Got)
}
