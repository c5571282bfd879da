// pifirectl is a small operator CLI for the control core. It talks to the
// shared-state files directly through the store package rather than
// dialing an HTTP API — there is no server to dial, since the web/REST
// control surface is out of scope here — mirroring how an on-box systemd
// unit or cron job would poke at the same state pifired reads and writes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pifire-go/pifire-core/internal/store"
)

func main() {
	var (
		controlPath string
		mode        string
		holdTemp    float64
		nextMode    string
		showStatus  bool
	)

	errLog := log.New(os.Stderr, "", 0)

	flag.StringVar(&controlPath, "control", "./data/control.json", "path to control.json")
	flag.StringVar(&mode, "mode", "", "request a mode change (Stop, Startup, Smoke, Hold, Shutdown, Monitor, Manual)")
	flag.Float64Var(&holdTemp, "hold-temp", -1, "grill setpoint for -mode Hold (required, must be > 0)")
	flag.StringVar(&nextMode, "next", "Smoke", "mode to auto-advance into once -mode Startup completes (Smoke or Hold)")
	flag.BoolVar(&showStatus, "status", false, "print the current control snapshot and exit")
	flag.Parse()

	cs := store.NewControlStore(controlPath, errLog)

	if showStatus || mode == "" {
		ctrl, err := cs.Read()
		if err != nil {
			errLog.Fatalf("reading control state: %v", err)
		}
		printStatus(ctrl)
		return
	}

	requested := store.Mode(mode)
	switch requested {
	case store.ModeHold:
		if holdTemp <= 0 {
			errLog.Fatalf("-mode Hold requires -hold-temp > 0")
		}
		if err := cs.RequestHold(holdTemp); err != nil {
			errLog.Fatalf("requesting Hold: %v", err)
		}
		fmt.Printf("requested Hold at %.1f\n", holdTemp)
		return
	case store.ModeStartup:
		if err := cs.RequestStartup(store.Mode(nextMode)); err != nil {
			errLog.Fatalf("requesting Startup: %v", err)
		}
		fmt.Printf("requested Startup, advancing to %s on completion\n", nextMode)
		return
	}

	if err := cs.RequestMode(requested); err != nil {
		errLog.Fatalf("requesting mode %s: %v", requested, err)
	}
	fmt.Printf("requested mode %s\n", requested)
}

func printStatus(ctrl store.Control) {
	payload, err := json.MarshalIndent(ctrl, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error marshaling status: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(payload))
}
