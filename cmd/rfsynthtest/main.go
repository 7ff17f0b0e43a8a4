// Command rfsynthtest runs a bench bring-up of one RF synthesis board:
// init, DAC output enable, a throwaway modulator coefficient table, and an
// attenuator sweep, reporting diagnostics for each stage.  The exit code
// reflects the outcome so the tool slots into bench scripts.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/synthlab/rfsynth/bridge"
	"github.com/synthlab/rfsynth/bus"
	"github.com/synthlab/rfsynth/synth"

	"github.com/theckman/yacspin"
)

var (
	transport = flag.String("transport", "tcp", "tcp or serial")
	addr      = flag.String("addr", "localhost:2000", "gateway address or serial device path")
	baud      = flag.Int("baud", 115200, "serial line rate")
	variant   = flag.String("variant", "upconverter", "baseband or upconverter")
	att       = flag.Int("att", 0x20, "attenuator machine-unit code to program on both channels")
)

// testTable is a throwaway coefficient set: distinct values per address so
// a wiring fault shows up as a readback mismatch rather than a silent pass.
var testTable = []uint32{0x155, 0x2aa, 0x0f0}

func spinner(msg string) *yacspin.Spinner {
	s, err := yacspin.New(yacspin.Config{
		Frequency:         100 * time.Millisecond,
		CharSet:           yacspin.CharSets[59],
		Suffix:            " " + msg,
		SuffixAutoColon:   true,
		StopCharacter:     "✓",
		StopFailCharacter: "✗",
		StopColors:        []string{"fgGreen"},
		StopFailColors:    []string{"fgRed"},
	})
	if err != nil {
		log.Fatal(err)
	}
	s.Start()
	return s
}

func connect() (bus.Master, error) {
	switch *transport {
	case "tcp":
		return bridge.NewTCP(*addr)
	case "serial":
		return bridge.NewSerial(*addr, *baud)
	default:
		return nil, fmt.Errorf("unknown transport %q", *transport)
	}
}

func main() {
	flag.Parse()

	v := synth.Upconverter
	if *variant == "baseband" {
		v = synth.Baseband
	}

	s := spinner("connecting to bus master gateway")
	m, err := connect()
	if err != nil {
		s.StopFail()
		log.Fatal(err)
	}
	board, err := synth.New(m, v)
	if err != nil {
		s.StopFail()
		log.Fatal(err)
	}
	s.Stop()

	s = spinner("initializing board")
	if err := board.Init(); err != nil {
		s.StopFail()
		log.Fatal(err)
	}
	s.Stop()

	s = spinner("enabling DAC generation")
	alarms, err := board.EnableGeneration()
	if err != nil {
		s.StopFail()
		log.Fatal(err)
	}
	s.Stop()
	report := func(name string, bad bool) {
		state := "ok"
		if bad {
			state = "ALARM"
		}
		fmt.Printf("  %-18s %s\n", name, state)
	}
	report("clock", alarms.ClockLost)
	report("data clock", alarms.DataClockLost)
	report("fifo near empty", alarms.FIFONearEmpty)
	report("fifo near full", alarms.FIFONearFull)
	report("fifo collision", alarms.FIFOCollision)

	failed := false
	if v == synth.Upconverter {
		s = spinner("programming modulator coefficients")
		res, err := board.ConfigureMod(testTable)
		if err != nil {
			s.StopFail()
			log.Fatal(err)
		}
		s.Stop()
		for _, rb := range res.Readbacks {
			if !rb.Match() {
				failed = true
				fmt.Printf("  reg %d: wrote 0x%08X, read 0x%08X / 0x%08X\n",
					rb.Addr, rb.Want, rb.Got0, rb.Got1)
			}
		}
		fmt.Printf("  PLL lock: mod0=%v mod1=%v\n", res.Locked0, res.Locked1)
		if !res.Locked0 || !res.Locked1 {
			failed = true
		}
	}

	s = spinner("programming attenuators")
	for ch := 0; ch < 2; ch++ {
		if err := board.SetAttMU(ch, uint8(*att)); err != nil {
			s.StopFail()
			log.Fatal(err)
		}
	}
	s.Stop()

	if failed {
		fmt.Println("bring-up completed with faults")
		os.Exit(1)
	}
	fmt.Println("bring-up complete")
}
