// Package mode implements the Mode Executor (C4): the single work-loop
// body re-entered, once per mode, from the Control Orchestrator (C8).
// Each mode session runs entry actions, a polling loop that sleeps 50ms
// (200ms in Manual) between ticks and exits on the first tick that observes
// control.updated, and exit actions.
package mode

import (
	"log"
	"time"

	"github.com/pifire-go/pifire-core/internal/diag"
	"github.com/pifire-go/pifire-core/internal/hal"
	"github.com/pifire-go/pifire-core/internal/notify"
	"github.com/pifire-go/pifire-core/internal/pid"
	"github.com/pifire-go/pifire-core/internal/probe"
	"github.com/pifire-go/pifire-core/internal/safety"
	"github.com/pifire-go/pifire-core/internal/store"
)

// Deps bundles every collaborator the executor needs. All fields are
// required in production; tests substitute hal.Sim* implementations and a
// manually-advanced fake clock.
type Deps struct {
	Outputs     hal.Outputs
	ADC         hal.ADC
	Distance    hal.Distance
	Display     hal.Display
	Conditioner *probe.Conditioner

	Control  *store.ControlStore
	Settings *store.SettingsStore
	PelletDB *store.PelletDBStore
	History  *store.HistoryStore

	Notify *notify.Dispatcher
	Safety *safety.Supervisor

	// Metrics is optional; when set, the tick loop reports grill/probe
	// temps, hopper level and the active mode to it each display cadence.
	Metrics *diag.Metrics

	Clock hal.Clock

	ErrLog, InfoLog *log.Logger
}

// ExitReason is why RunMode's loop returned control to the orchestrator.
type ExitReason int

const (
	ExitUpdated ExitReason = iota
	ExitSelectorStop
	ExitTerminalTimeout
	ExitError
)

func (r ExitReason) String() string {
	switch r {
	case ExitUpdated:
		return "updated"
	case ExitSelectorStop:
		return "selector-stop"
	case ExitTerminalTimeout:
		return "terminal-timeout"
	case ExitError:
		return "error"
	default:
		return "unknown"
	}
}

const (
	workPeriod   = 50 * time.Millisecond
	manualPeriod = 200 * time.Millisecond

	controlReloadInterval = 100 * time.Millisecond
	pelletCheckInterval   = 20 * time.Minute
	hopperCheckInterval   = 300 * time.Second
	holdFanInterval       = 6 * time.Second
	displayInterval       = 500 * time.Millisecond
	historyInterval       = 3 * time.Second

	startupTimeout = 240 * time.Second
)

// Executor runs one mode session at a time; all the fields below are
// ephemeral per-session state, reset by resetSession at the top of
// RunMode (matching the PID lifecycle of spec §3: "created on Hold entry,
// destroyed on Hold exit"). The probe rolling averages live in
// deps.Conditioner and are not reset between sessions.
type Executor struct {
	deps Deps

	mode    store.Mode
	entered time.Time

	ctrl store.Control
	cfg  store.Settings

	cycling CyclingState
	timing  CycleTiming

	pidCtrl    *pid.PID
	holdFirst  bool
	lastHoldFan time.Time

	smokePlusLast time.Time

	lastControlReload time.Time
	lastPelletCheck   time.Time
	lastHopperCheck   time.Time
	lastDisplay       time.Time
	lastHistory       time.Time
}

func NewExecutor(deps Deps) *Executor {
	if deps.Clock == nil {
		deps.Clock = hal.RealClock{}
	}
	if deps.ErrLog == nil {
		deps.ErrLog = log.Default()
	}
	if deps.InfoLog == nil {
		deps.InfoLog = log.Default()
	}
	return &Executor{deps: deps}
}

func (e *Executor) now() time.Time { return e.deps.Clock.Now() }

// RunMode runs mode to completion: entry actions, safety prelude, the
// per-tick loop, and exit actions. It returns the reason the loop exited;
// the orchestrator uses this (plus the re-read Control snapshot) to pick
// the next mode.
func (e *Executor) RunMode(mode store.Mode) (ExitReason, error) {
	if err := e.resetSession(mode); err != nil {
		return ExitError, err
	}

	if err := e.runEntryActions(mode); err != nil {
		e.deps.ErrLog.Printf("mode %s: entry actions failed: %v", mode, err)
	}

	if skip, err := e.runSafetyPrelude(mode); err != nil {
		e.deps.ErrLog.Printf("mode %s: safety prelude failed: %v", mode, err)
	} else if skip {
		return ExitUpdated, nil
	}

	period := workPeriod
	if mode == store.ModeManual {
		period = manualPeriod
	}

	var reason ExitReason
	for {
		exit, r, err := e.tick(mode)
		if err != nil {
			e.deps.ErrLog.Printf("mode %s: tick error: %v", mode, err)
		}
		if exit {
			reason = r
			break
		}
		time.Sleep(period)
	}

	e.runExitActions(mode)
	return reason, nil
}

func (e *Executor) resetSession(mode store.Mode) error {
	e.mode = mode
	e.entered = e.now()
	e.cycling = CyclingState{}
	e.holdFirst = true
	e.smokePlusLast = e.entered
	e.lastControlReload = time.Time{}
	e.lastPelletCheck = time.Time{}
	e.lastHopperCheck = time.Time{}
	e.lastDisplay = time.Time{}
	e.lastHistory = time.Time{}
	e.lastHoldFan = time.Time{}
	e.pidCtrl = nil

	ctrl, err := e.deps.Control.Read()
	if err != nil {
		return err
	}
	e.ctrl = ctrl

	cfg, err := e.deps.Settings.Read()
	if err != nil {
		return err
	}
	e.cfg = cfg
	return nil
}

func (e *Executor) reloadControl() {
	ctrl, err := e.deps.Control.Read()
	if err != nil {
		e.deps.ErrLog.Printf("mode %s: control reload failed: %v", e.mode, err)
		return
	}
	e.ctrl = ctrl
}
