package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"

	yml "gopkg.in/yaml.v2"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "rfsynthd.yml"
	k              = koanf.New(".")
)

func setupconfig() {
	k.Load(structs.Provider(Config{
		Addr:      ":8000",
		DebugRate: 5,
		Boards:    []BoardSetup{}}, "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func root() {
	str := `rfsynthd talks to RF synthesis boards and exposes an HTTP interface to them.
This enables a server-client architecture, and the clients can leverage the
excellent HTTP libraries for any programming language.

Usage:
	rfsynthd <command>

Commands:
	run
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `rfsynthd is amenable to configuration via its .yml file.  For a primer on
YAML, see https://yaml.org/start.html

Without a configuration the server will close immediately with an error that
there are no boards.

Each board entry needs:
- Name:      a label used in logs
- Transport: "tcp", "serial" or "usb" -- how the bus master gateway is reached
- Addr:      host:port for tcp, device path for serial
- Baud:      serial line rate (serial only)
- VID/PID, EndpointOut/EndpointIn: USB identity and bulk endpoints (usb only)
- Variant:   "baseband" or "upconverter", matching the assembly
- URL:       path stem to serve the board under, e.g. crate1/synth0

Per board, routes under the stem include init, attenuation/{0,1},
enable-generation, configure-mod, alarms, lock-status, lock, and a raw
register surface under debug/ which is rate limited (DebugRate, req/s).`
	fmt.Println(str)
}

func mkconf() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := Config{}
	k.Unmarshal("", &c)
	err := yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("rfsynthd version %v\n", Version)
}

func run() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	if len(c.Boards) == 0 {
		log.Fatal("no boards configured, run rfsynthd mkconf and edit the result")
	}
	mux, err := BuildMux(c)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("now listening for requests at", c.Addr)
	log.Fatal(http.ListenAndServe(c.Addr, mux))
}

func main() {
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	switch strings.ToLower(args[1]) {
	case "help":
		help()
	case "mkconf":
		mkconf()
	case "conf":
		printconf()
	case "run":
		run()
	case "version":
		pversion()
	default:
		log.Fatal("unknown command")
	}
}
