package main

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/synthlab/rfsynth/bridge"
	"github.com/synthlab/rfsynth/bus"
	"github.com/synthlab/rfsynth/server/middleware/locker"
	"github.com/synthlab/rfsynth/server/middleware/throttle"
	"github.com/synthlab/rfsynth/synth"

	"goji.io"
	"goji.io/pat"
	"golang.org/x/time/rate"
)

// BoardSetup holds the parameters to bring one board online.
type BoardSetup struct {
	// Name labels the board in logs
	Name string `yaml:"Name" koanf:"Name"`

	// Transport selects how the bus master gateway is reached:
	// "tcp", "serial" or "usb"
	Transport string `yaml:"Transport" koanf:"Transport"`

	// Addr is the network address (tcp) or device path (serial)
	Addr string `yaml:"Addr" koanf:"Addr"`

	// Baud is the serial line rate; ignored for other transports
	Baud int `yaml:"Baud" koanf:"Baud"`

	// VID and PID identify the USB gateway; ignored for other transports
	VID uint16 `yaml:"VID" koanf:"VID"`
	PID uint16 `yaml:"PID" koanf:"PID"`

	// EndpointOut and EndpointIn are the USB bulk endpoint numbers
	EndpointOut int `yaml:"EndpointOut" koanf:"EndpointOut"`
	EndpointIn  int `yaml:"EndpointIn" koanf:"EndpointIn"`

	// Variant is the assembly variant, "baseband" or "upconverter"
	Variant string `yaml:"Variant" koanf:"Variant"`

	// URL is the path stem the board's routes are served under,
	// e.g. "crate1/synth0"
	URL string `yaml:"URL" koanf:"URL"`
}

// Config holds the initialization parameters of the daemon.
type Config struct {
	// Addr is the address to listen at
	Addr string `yaml:"Addr" koanf:"Addr"`

	// DebugRate caps raw register-access requests per second
	DebugRate float64 `yaml:"DebugRate" koanf:"DebugRate"`

	// Boards lists the boards to serve
	Boards []BoardSetup `yaml:"Boards" koanf:"Boards"`
}

func parseVariant(s string) (synth.Variant, error) {
	switch strings.ToLower(s) {
	case "baseband":
		return synth.Baseband, nil
	case "upconverter":
		return synth.Upconverter, nil
	default:
		return 0, fmt.Errorf("unknown variant %q", s)
	}
}

func dial(s BoardSetup) (bus.Master, error) {
	switch strings.ToLower(s.Transport) {
	case "tcp":
		return bridge.NewTCP(s.Addr)
	case "serial":
		return bridge.NewSerial(s.Addr, s.Baud)
	case "usb":
		return bridge.NewUSB(s.VID, s.PID, s.EndpointOut, s.EndpointIn)
	default:
		return nil, fmt.Errorf("unknown transport %q", s.Transport)
	}
}

// stem normalizes a configured URL into "/a/b/" form.
func stem(url string) string {
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	if !strings.HasSuffix(url, "/") {
		url = url + "/"
	}
	return url
}

// BuildMux connects every configured board and populates a mux with its
// routes, a lock surface, and a throttled debug surface.
func BuildMux(c Config) (*goji.Mux, error) {
	root := goji.NewMux()
	for _, setup := range c.Boards {
		variant, err := parseVariant(setup.Variant)
		if err != nil {
			return nil, fmt.Errorf("board %s: %v", setup.Name, err)
		}
		m, err := dial(setup)
		if err != nil {
			return nil, fmt.Errorf("board %s: %v", setup.Name, err)
		}
		board, err := synth.New(m, variant)
		if err != nil {
			return nil, fmt.Errorf("board %s: %v", setup.Name, err)
		}

		s := stem(setup.URL)
		lock := locker.New()
		wrapper := synth.NewHTTPWrapper("/", board)
		locker.Inject(wrapper, lock)

		sub := goji.SubMux()
		sub.Use(lock.Check)
		wrapper.RT().Bind(sub)

		// the debug router reads the raw URL path, so it mounts on the
		// root mux with the stem stripped, and shares the board's lock
		pace := throttle.New(rateOrDefault(c.DebugRate), 1)
		debug := http.StripPrefix(strings.TrimSuffix(s, "/")+"/debug",
			synth.DebugRouter(board))
		root.Handle(pat.New(s+"debug/*"), pace(lock.Check(debug)))

		root.Handle(pat.New(s+"*"), sub)
		log.Printf("board %s (%s) serving at %s", setup.Name, setup.Variant, s)
	}
	return root, nil
}

// rateOrDefault maps an unset debug rate to a conservative 5 req/s.
func rateOrDefault(rps float64) rate.Limit {
	if rps <= 0 {
		return rate.Limit(5)
	}
	return rate.Limit(rps)
}
