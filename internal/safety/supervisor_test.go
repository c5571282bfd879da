package safety

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pifire-go/pifire-core/internal/hal"
	"github.com/pifire-go/pifire-core/internal/notify"
	"github.com/pifire-go/pifire-core/internal/store"
)

func newTestSupervisor(t *testing.T) (*Supervisor, *store.ControlStore) {
	t.Helper()
	cs := store.NewControlStore(filepath.Join(t.TempDir(), "control.json"), nil)
	hub := notify.NewHub(nil, nil)
	d := notify.NewDispatcher(cs, hub, nil)
	return NewSupervisor(cs, d, nil, nil), cs
}

func newTestSupervisorWithDisplay(t *testing.T) (*Supervisor, *store.ControlStore, *hal.SimDisplay) {
	t.Helper()
	cs := store.NewControlStore(filepath.Join(t.TempDir(), "control.json"), nil)
	hub := notify.NewHub(nil, nil)
	d := notify.NewDispatcher(cs, hub, nil)
	display := hal.NewSimDisplay()
	return NewSupervisor(cs, d, display, nil), cs, display
}

// Scenario 1 from spec §8: initial grill 75F, min/max startup 75/100.
func TestPrepareStartupClampsMultiplier(t *testing.T) {
	sup, cs := newTestSupervisor(t)
	cfg := store.Safety{MinStartupTemp: 75, MaxStartupTemp: 100}

	require.NoError(t, sup.PrepareStartup(75, cfg))

	got, err := cs.Read()
	require.NoError(t, err)
	assert.Equal(t, 75.0, got.Safety.StartupTemp) // clamp(0.4*75=30, [75,100]) = 75
	assert.Equal(t, 75.0, got.Safety.AfterStartTemp)
}

// Scenario 2 from spec §8: Reignite retry decrements and records prior mode.
func TestReigniteRetryDecrementsAndRecordsState(t *testing.T) {
	sup, cs := newTestSupervisor(t)
	require.NoError(t, cs.Write(store.Control{
		Mode:   store.ModeSmoke,
		Safety: store.SafetyState{StartupTemp: 150, ReigniteRetries: 2},
	}))

	terminate, err := sup.EvaluateHoldSmoke(145, 500, time.Now())
	require.NoError(t, err)
	assert.True(t, terminate)

	got, err := cs.Read()
	require.NoError(t, err)
	assert.Equal(t, 1, got.Safety.ReigniteRetries)
	assert.Equal(t, store.ModeReignite, got.Mode)
	assert.Equal(t, store.ModeSmoke, got.Safety.ReigniteLastState)
	assert.True(t, got.Updated)
}

func TestReigniteExhaustedGoesToError(t *testing.T) {
	sup, cs := newTestSupervisor(t)
	require.NoError(t, cs.Write(store.Control{
		Mode:   store.ModeSmoke,
		Safety: store.SafetyState{StartupTemp: 150, ReigniteRetries: 0},
	}))

	terminate, err := sup.EvaluateHoldSmoke(145, 500, time.Now())
	require.NoError(t, err)
	assert.True(t, terminate)

	got, err := cs.Read()
	require.NoError(t, err)
	assert.Equal(t, store.ModeError, got.Mode)
}

// Scenario 3 from spec §8: max-temp trip.
func TestMaxTempTripGoesToError(t *testing.T) {
	sup, cs := newTestSupervisor(t)
	require.NoError(t, cs.Write(store.Control{
		Mode:   store.ModeHold,
		Safety: store.SafetyState{StartupTemp: 75, ReigniteRetries: 2},
	}))

	terminate, err := sup.EvaluateHoldSmoke(505, 500, time.Now())
	require.NoError(t, err)
	assert.True(t, terminate)

	got, err := cs.Read()
	require.NoError(t, err)
	assert.Equal(t, store.ModeError, got.Mode)
	assert.Equal(t, 2, got.Safety.ReigniteRetries, "max-temp trip must not touch reignite retries")
}

func TestEvaluateMonitorOnlyChecksMaxTemp(t *testing.T) {
	sup, cs := newTestSupervisor(t)
	require.NoError(t, cs.Write(store.Control{
		Mode:   store.ModeMonitor,
		Safety: store.SafetyState{StartupTemp: 200}, // would fail the startup check if applied
	}))

	terminate, err := sup.EvaluateMonitor(50, 500, time.Now())
	require.NoError(t, err)
	assert.False(t, terminate, "monitor mode must not apply the startup-temp check")

	terminate, err = sup.EvaluateMonitor(600, 500, time.Now())
	require.NoError(t, err)
	assert.True(t, terminate)
}

func TestReigniteRetryShowsReigniteDisplayText(t *testing.T) {
	sup, cs, display := newTestSupervisorWithDisplay(t)
	require.NoError(t, cs.Write(store.Control{
		Mode:   store.ModeSmoke,
		Safety: store.SafetyState{StartupTemp: 150, ReigniteRetries: 2},
	}))

	_, err := sup.EvaluateHoldSmoke(145, 500, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Re-Ignite", display.LastText)
}

func TestReigniteExhaustedShowsErrorDisplayText(t *testing.T) {
	sup, cs, display := newTestSupervisorWithDisplay(t)
	require.NoError(t, cs.Write(store.Control{
		Mode:   store.ModeSmoke,
		Safety: store.SafetyState{StartupTemp: 150, ReigniteRetries: 0},
	}))

	_, err := sup.EvaluateHoldSmoke(145, 500, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "ERROR", display.LastText, "retries exhausted transitions to Error, display must match")
}

func TestCheckEntryNoOpWhenStartupSustained(t *testing.T) {
	sup, cs := newTestSupervisor(t)
	require.NoError(t, cs.Write(store.Control{
		Mode:   store.ModeSmoke,
		Safety: store.SafetyState{StartupTemp: 75, AfterStartTemp: 80},
	}))

	transitioned, err := sup.CheckEntry(time.Now())
	require.NoError(t, err)
	assert.False(t, transitioned)
}
