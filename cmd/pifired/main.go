// pifired is the control-core daemon: it boots the shared-state stores,
// the HAL (simulated unless a hardware build tag wires real drivers), and
// runs the Control Orchestrator until killed, alongside a small
// diagnostics HTTP surface.
//
// Environment Variables:
// PIFIRE_CONTROL_PATH      - control.json path (default ./data/control.json)
// PIFIRE_SETTINGS_PATH     - settings.json path (default ./data/settings.json)
// PIFIRE_PELLETDB_PATH     - pelletdb.json path (default ./data/pelletdb.json)
// PIFIRE_HISTORY_PATH      - history.json path (default ./data/history.json)
// PIFIRE_TRIGGER_LEVEL     - "ActiveHigh" (default) or "ActiveLow"
// PIFIRE_DIAG_ADDR         - diagnostics HTTP listen address (default :9247)
// PIFIRE_PROBE_PORT_GRILL, _1, _2 - ADC channel indices for the three probes
package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"

	"github.com/pifire-go/pifire-core/internal/bootconfig"
	"github.com/pifire-go/pifire-core/internal/diag"
	"github.com/pifire-go/pifire-core/internal/hal"
	"github.com/pifire-go/pifire-core/internal/mode"
	"github.com/pifire-go/pifire-core/internal/notify"
	"github.com/pifire-go/pifire-core/internal/orchestrator"
	"github.com/pifire-go/pifire-core/internal/probe"
	"github.com/pifire-go/pifire-core/internal/safety"
	"github.com/pifire-go/pifire-core/internal/store"
)

func main() {
	name := os.Args[0]
	errLog := log.New(os.Stderr, name+" ERROR: ", log.LstdFlags|log.Lshortfile)
	infoLog := log.New(os.Stdout, name+" INFO: ", log.LstdFlags)

	cfg, err := bootconfig.Load()
	if err != nil {
		errLog.Fatalf("loading boot configuration: %v", err)
	}

	controlStore := store.NewControlStore(cfg.ControlPath, errLog)
	settingsStore := store.NewSettingsStore(cfg.SettingsPath, errLog)
	pelletStore := store.NewPelletDBStore(cfg.PelletDBPath, errLog)
	historyStore := store.NewHistoryStore(cfg.HistoryPath, errLog)

	settings, err := settingsStore.Read()
	if err != nil {
		errLog.Fatalf("reading initial settings: %v", err)
	}

	hub := notify.NewHub(errLog, infoLog)
	dispatcher := notify.NewDispatcher(controlStore, hub, errLog)

	// No hardware build tag is wired yet (spec §1's HAL concrete drivers
	// are out of this module's scope); boot against the in-memory
	// simulators so the daemon runs end-to-end without real hardware.
	outputs := hal.NewSimOutputs(triggerToHAL(cfg.TriggerLevel))
	adc := hal.NewSimADC()
	distance := hal.NewSimDistance(100)
	display := hal.NewSimDisplay()

	conditioner := probe.NewConditioner(unitsToProbe(settings.Units),
		coeffsFromProfile(settings.ProbeProfiles["grill"]),
		coeffsFromProfile(settings.ProbeProfiles["probe1"]),
		coeffsFromProfile(settings.ProbeProfiles["probe2"]),
		0,
	)

	supervisor := safety.NewSupervisor(controlStore, dispatcher, display, errLog)

	diagServer := diag.NewServer(controlStore, hub, errLog, infoLog)

	deps := mode.Deps{
		Outputs: outputs, ADC: adc, Distance: distance, Display: display,
		Conditioner: conditioner,
		Control:     controlStore, Settings: settingsStore, PelletDB: pelletStore, History: historyStore,
		Notify:  dispatcher,
		Safety:  supervisor,
		Metrics: diagServer.Metrics,
		ErrLog:  errLog, InfoLog: infoLog,
	}

	wg := &sync.WaitGroup{}

	hub.WaitGroup = wg
	go hub.Run()

	stopSettingsWatch, err := settingsStore.Watch(func(store.Settings) {
		infoLog.Printf("settings file changed on disk; reload will take effect on next mode entry\n")
	})
	if err != nil {
		errLog.Printf("settings file watch unavailable: %v\n", err)
	}
	defer stopSettingsWatch()

	orch := orchestrator.New(deps, controlStore, errLog, infoLog)
	orch.WaitGroup = wg
	go orch.Run()

	infoLog.Printf("starting diagnostics server on %s\n", cfg.DiagListenAddr)
	go func() {
		if err := http.ListenAndServe(cfg.DiagListenAddr, diagServer); err != nil {
			errLog.Printf("diagnostics server error: %v\n", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, os.Kill)
	<-sig
	infoLog.Printf("received kill signal\n")

	close(orch.Stop)
	close(hub.Stop)
	wg.Wait()
	os.Exit(0)
}

func coeffsFromProfile(p store.ProbeProfile) probe.Coefficients {
	return probe.Coefficients{Vs: p.Vs, Rd: p.Rd, A: p.A, B: p.B, C: p.C}
}

func unitsToProbe(u store.Units) probe.Units {
	if u == store.UnitsC {
		return probe.Celsius
	}
	return probe.Fahrenheit
}

func triggerToHAL(t store.TriggerLevel) hal.TriggerLevel {
	if t == store.TriggerActiveLow {
		return hal.ActiveLow
	}
	return hal.ActiveHigh
}
