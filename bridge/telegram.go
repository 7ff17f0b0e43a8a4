/*Package bridge carries bus transactions to a remote SPI master over a
byte-stream transport.

The board's SPI master sits in gateware next to the real-time engine; this
package speaks its telegram protocol over TCP, RS232 or USB.  A telegram is

	[SOT] [opcode] [payload...] [CRC16] [EOT]

with SOT/EOT/ESC occurrences inside the body byte-stuffed.  The CRC is
CRC-CCITT XMODEM over opcode and payload, big endian.  Responses echo the
opcode with the high bit set.
*/
package bridge

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/snksoft/crc"
)

const (
	// telStart is the start of telegram byte
	telStart = 0x7e

	// telEnd is the end of telegram byte
	telEnd = 0x7c

	// telEsc marks a stuffed byte; the original is recovered by xor
	// with telEscShift
	telEsc      = 0x7d
	telEscShift = 0x20
)

// Master opcodes.  A response carries the opcode with respBit set.
const (
	opConfigure = 0x01
	opWrite     = 0x02
	opRead      = 0x03
	opDelay     = 0x04

	respBit = 0x80
)

var (
	crcTable = crc.NewTable(crc.XMODEM)

	// ErrNoStart is returned when a buffer does not contain a telegram start byte.
	ErrNoStart = errors.New("bridge: telegram start byte not found")

	// ErrNoEnd is returned when a buffer does not contain a telegram end byte.
	ErrNoEnd = errors.New("bridge: telegram end byte not found")

	// ErrCRCMismatch means data was lost in transit; the bus master's
	// state is unknown and the sequence in flight must be restarted.
	ErrCRCMismatch = errors.New("bridge: CRC mismatch, bus master state unknown")

	// ErrShortTelegram is returned for a telegram too small to carry an
	// opcode and CRC.
	ErrShortTelegram = errors.New("bridge: telegram too short")
)

// Telegram is one decoded message.
type Telegram struct {
	Op      byte
	Payload []byte
}

// stuff escapes framing bytes in the body.
func stuff(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		switch b {
		case telStart, telEnd, telEsc:
			out = append(out, telEsc, b^telEscShift)
		default:
			out = append(out, b)
		}
	}
	return out
}

// unstuff reverses stuff.
func unstuff(data []byte) []byte {
	out := make([]byte, 0, len(data))
	esc := false
	for _, b := range data {
		if esc {
			out = append(out, b^telEscShift)
			esc = false
			continue
		}
		if b == telEsc {
			esc = true
			continue
		}
		out = append(out, b)
	}
	return out
}

// crcBytes computes the two-byte CRC value in a concurrent safe way
func crcBytes(body []byte) []byte {
	crcUint := crcTable.InitCrc()
	crcUint = crcTable.UpdateCrc(crcUint, body)
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out, crcTable.CRC16(crcUint))
	return out
}

// Frame renders a telegram into its wire form.
func Frame(t Telegram) []byte {
	body := append([]byte{t.Op}, t.Payload...)
	body = append(body, crcBytes(body)...)
	out := append([]byte{telStart}, stuff(body)...)
	return append(out, telEnd)
}

// Unframe parses a wire buffer back into a telegram, dropping any noise
// outside the SOT/EOT pair and verifying the CRC.
func Unframe(raw []byte) (Telegram, error) {
	iStart := bytes.IndexByte(raw, telStart)
	if iStart < 0 {
		return Telegram{}, ErrNoStart
	}
	iEnd := bytes.IndexByte(raw[iStart:], telEnd)
	if iEnd < 0 {
		return Telegram{}, ErrNoEnd
	}
	body := unstuff(raw[iStart+1 : iStart+iEnd])
	if len(body) < 3 {
		return Telegram{}, ErrShortTelegram
	}
	fidx := len(body) - 2
	got := body[fidx:]
	body = body[:fidx]
	if !bytes.Equal(got, crcBytes(body)) {
		return Telegram{}, ErrCRCMismatch
	}
	return Telegram{Op: body[0], Payload: body[1:]}, nil
}

// expectResponse checks that t answers the given request opcode.
func expectResponse(t Telegram, op byte) error {
	if t.Op != op|respBit {
		return fmt.Errorf("bridge: response opcode 0x%02X does not match request 0x%02X", t.Op, op)
	}
	return nil
}
