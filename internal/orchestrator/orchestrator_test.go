package orchestrator

import (
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pifire-go/pifire-core/internal/hal"
	"github.com/pifire-go/pifire-core/internal/mode"
	"github.com/pifire-go/pifire-core/internal/notify"
	"github.com/pifire-go/pifire-core/internal/probe"
	"github.com/pifire-go/pifire-core/internal/safety"
	"github.com/pifire-go/pifire-core/internal/store"
)

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }

// TestRunDispatchesStopModeAndHonorsStopSignal exercises the orchestrator
// against Stop mode, which forces every output off and has no terminal
// timeout of its own; we rely on the Stop channel, not a mode exit, to end
// the loop, the way the real binary's shutdown handler does.
func TestRunDispatchesStopModeAndHonorsStopSignal(t *testing.T) {
	dir := t.TempDir()
	controlStore := store.NewControlStore(filepath.Join(dir, "control.json"), nil)
	settingsStore := store.NewSettingsStore(filepath.Join(dir, "settings.json"), nil)
	pelletStore := store.NewPelletDBStore(filepath.Join(dir, "pelletdb.json"), nil)
	historyStore := store.NewHistoryStore(filepath.Join(dir, "history.json"), nil)

	require.NoError(t, settingsStore.Write(store.Settings{Units: store.UnitsF}))
	require.NoError(t, controlStore.Write(store.Control{Mode: store.ModeStop}))

	hub := notify.NewHub(nil, nil)
	dispatcher := notify.NewDispatcher(controlStore, hub, nil)
	display := hal.NewSimDisplay()
	supervisor := safety.NewSupervisor(controlStore, dispatcher, display, nil)
	conditioner := probe.NewConditioner(probe.Fahrenheit, probe.Coefficients{}, probe.Coefficients{}, probe.Coefficients{}, 10)

	deps := mode.Deps{
		Outputs: hal.NewSimOutputs(hal.ActiveHigh), ADC: hal.NewSimADC(),
		Distance: hal.NewSimDistance(50), Display: display,
		Conditioner: conditioner,
		Control:     controlStore, Settings: settingsStore, PelletDB: pelletStore, History: historyStore,
		Notify: dispatcher, Safety: supervisor,
	}

	o := New(deps, controlStore, nil, nil)

	go o.Run()

	// Stop mode's loop only exits on control.updated / selector-flip; let
	// Run() enter it, then close Stop, which Run turns into control.updated.
	time.Sleep(20 * time.Millisecond)
	close(o.Stop)

	deadline := time.After(2 * time.Second)
	for o.Running {
		select {
		case <-deadline:
			t.Fatal("orchestrator did not stop in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestAdvanceAfterStartupUsesRecordedNextMode(t *testing.T) {
	controlStore := store.NewControlStore(filepath.Join(t.TempDir(), "control.json"), nil)
	require.NoError(t, controlStore.Write(store.Control{Mode: store.ModeStartup, NextMode: store.ModeSmoke}))

	o := &Orchestrator{control: controlStore, errLog: discardLogger(), infoLog: discardLogger()}

	o.advanceAfterStartup()

	got, err := controlStore.Read()
	require.NoError(t, err)
	require.Equal(t, store.ModeSmoke, got.Mode)
}

func TestAdvanceAfterStartupDefaultsToHoldWhenNextModeUnset(t *testing.T) {
	controlStore := store.NewControlStore(filepath.Join(t.TempDir(), "control.json"), nil)
	require.NoError(t, controlStore.Write(store.Control{Mode: store.ModeReignite}))

	o := &Orchestrator{control: controlStore, errLog: discardLogger(), infoLog: discardLogger()}
	o.advanceAfterStartup()

	got, err := controlStore.Read()
	require.NoError(t, err)
	require.Equal(t, store.ModeHold, got.Mode)
}
