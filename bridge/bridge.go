package bridge

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/synthlab/rfsynth/bus"

	"github.com/cenkalti/backoff"
	"github.com/tarm/serial"
)

// Bridge implements bus.Master over a byte-stream transport to the remote
// SPI master.  One Bridge serves one board; do not share it.
//
// Configure and Delay cannot report errors through the bus.Conn contract,
// so a transport failure in either is held and surfaced by the next Write
// or Read.  Driver sequences check every Write/Read, which bounds how far a
// sequence can run past a dead transport to one transaction.
type Bridge struct {
	conn io.ReadWriteCloser
	rdr  *bufio.Reader
	err  error
}

// New wraps an already-open transport.
func New(conn io.ReadWriteCloser) *Bridge {
	return &Bridge{conn: conn, rdr: bufio.NewReader(conn)}
}

// NewTCP dials the bus master gateway over TCP.  Dialing retries with
// exponential backoff; the gateway drops connections while its own link to
// the crate resets and does not like being connection thrashed.  Retry
// applies to connection establishment only, never to bus transactions.
func NewTCP(addr string) (*Bridge, error) {
	var conn net.Conn
	op := func() error {
		var err error
		conn, err = net.DialTimeout("tcp", addr, 3*time.Second)
		return err
	}
	err := backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     25 * time.Millisecond,
		RandomizationFactor: 0.,
		Multiplier:          2.,
		MaxInterval:         1 * time.Second,
		MaxElapsedTime:      3 * time.Second,
		Clock:               backoff.SystemClock})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "timeout") {
			return nil, fmt.Errorf("bridge: connection timeout to %s", addr)
		}
		return nil, err
	}
	return New(conn), nil
}

// NewSerial opens the bus master gateway on an RS232 port.
func NewSerial(port string, baud int) (*Bridge, error) {
	conn, err := serial.OpenPort(&serial.Config{
		Name:        port,
		Baud:        baud,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// Close closes the underlying transport.
func (b *Bridge) Close() error {
	return b.conn.Close()
}

// roundTrip frames a request, sends it, and reads back one telegram.
func (b *Bridge) roundTrip(t Telegram) (Telegram, error) {
	if _, err := b.conn.Write(Frame(t)); err != nil {
		return Telegram{}, err
	}
	raw, err := b.rdr.ReadBytes(telEnd)
	if err != nil {
		return Telegram{}, err
	}
	resp, err := Unframe(raw)
	if err != nil {
		return Telegram{}, err
	}
	if err := expectResponse(resp, t.Op); err != nil {
		return Telegram{}, err
	}
	return resp, nil
}

// sticky returns and clears the held error, if any.
func (b *Bridge) sticky() error {
	err := b.err
	b.err = nil
	return err
}

// Configure implements bus.Conn.
func (b *Bridge) Configure(flags bus.Flags, bits, div, cs int) {
	payload := []byte{byte(flags), byte(bits), byte(div), byte(cs)}
	if _, err := b.roundTrip(Telegram{Op: opConfigure, Payload: payload}); err != nil {
		b.err = err
	}
}

// Write implements bus.Conn.
func (b *Bridge) Write(word uint32) error {
	if err := b.sticky(); err != nil {
		return err
	}
	payload := make([]byte, 4)
	binary.BigEndian.PutUint32(payload, word)
	_, err := b.roundTrip(Telegram{Op: opWrite, Payload: payload})
	return err
}

// Read implements bus.Conn.
func (b *Bridge) Read() (uint32, error) {
	if err := b.sticky(); err != nil {
		return 0, err
	}
	resp, err := b.roundTrip(Telegram{Op: opRead})
	if err != nil {
		return 0, err
	}
	if len(resp.Payload) != 4 {
		return 0, fmt.Errorf("bridge: read response carries %d payload bytes, want 4", len(resp.Payload))
	}
	return binary.BigEndian.Uint32(resp.Payload), nil
}

// Delay implements bus.Scheduler.  The delay is inserted into the remote
// master's timeline between transactions, not slept here: settling times
// belong between bus edges, not between telegrams.
func (b *Bridge) Delay(d time.Duration) {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint32(payload, uint32(d/time.Microsecond))
	if _, err := b.roundTrip(Telegram{Op: opDelay, Payload: payload}); err != nil {
		b.err = err
	}
}
