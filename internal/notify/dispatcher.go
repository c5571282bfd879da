package notify

import (
	"log"
	"time"

	"github.com/pifire-go/pifire-core/internal/store"
)

// Temps is the subset of the per-tick in_data bundle the dispatcher needs
// to evaluate thresholds (spec §4.4 step 11 / §4.6).
type Temps struct {
	Grill, Probe1, Probe2 float64
}

// Dispatcher implements the Notification Dispatcher (C6): it evaluates
// armed thresholds against the current Control snapshot and fires events,
// clearing requests (and, where specified, transitioning mode) atomically
// via ControlStore.Update.
type Dispatcher struct {
	control *store.ControlStore
	hub     *Hub
	errLog  *log.Logger
}

func NewDispatcher(control *store.ControlStore, hub *Hub, errLog *log.Logger) *Dispatcher {
	if errLog == nil {
		errLog = log.Default()
	}
	return &Dispatcher{control: control, hub: hub, errLog: errLog}
}

// activeMode reports whether m is one of the modes in which a probe/timer
// auto-shutdown is honored, per spec §4.6.
func activeMode(m store.Mode) bool {
	switch m {
	case store.ModeSmoke, store.ModeHold, store.ModeStartup, store.ModeReignite:
		return true
	default:
		return false
	}
}

// CheckNotify evaluates grill/probe/timer thresholds against temps and
// now, firing events and clearing requests for anything that crossed.
// Transport errors from Emit never propagate (spec §4.6).
func (d *Dispatcher) CheckNotify(temps Temps, now time.Time) error {
	return d.control.Update(func(c *store.Control) error {
		if c.NotifyReq.Grill && temps.Grill >= c.Setpoints.Grill {
			d.fire(EventGrillTempAchieved, "grill reached setpoint", now)
			c.NotifyReq.Grill = false
		}

		if c.NotifyReq.Probe1 && temps.Probe1 >= c.Setpoints.Probe1 {
			d.fire(EventProbe1TempAchieved, "probe 1 reached setpoint", now)
			c.NotifyReq.Probe1 = false
			if c.NotifyData.P1Shutdown && activeMode(c.Mode) {
				c.NotifyData.P1Shutdown = false
				c.Mode = store.ModeShutdown
				c.Updated = true
			}
		}

		if c.NotifyReq.Probe2 && temps.Probe2 >= c.Setpoints.Probe2 {
			d.fire(EventProbe2TempAchieved, "probe 2 reached setpoint", now)
			c.NotifyReq.Probe2 = false
			if c.NotifyData.P2Shutdown && activeMode(c.Mode) {
				c.NotifyData.P2Shutdown = false
				c.Mode = store.ModeShutdown
				c.Updated = true
			}
		}

		if c.NotifyReq.Timer && c.Timer.Armed() && now.Unix() >= c.Timer.End {
			d.fire(EventTimerExpired, "timer expired", now)
			c.NotifyReq.Timer = false
			c.Timer = store.Timer{}
			if c.NotifyData.TimerShutdown && activeMode(c.Mode) {
				c.NotifyData.TimerShutdown = false
				c.Mode = store.ModeShutdown
				c.Updated = true
			}
		}

		return nil
	})
}

// CheckPelletLevel fires Pellet_Level_Low when warningEnabled and
// hopperPercent is at or below warningLevel (spec §4.6). The caller
// controls cadence (on mode entry and every 20 minutes, per spec §4.4
// step 3).
func (d *Dispatcher) CheckPelletLevel(hopperPercent, warningLevel float64, warningEnabled bool, now time.Time) {
	if warningEnabled && hopperPercent <= warningLevel {
		d.fire(EventPelletLevelLow, "hopper level low", now)
	}
}

// FireError emits one of the Grill_Error_* events directly, used by the
// Safety Supervisor (C5) which already holds the lock via its own
// ControlStore.Update call and so fires outside of CheckNotify.
func (d *Dispatcher) FireError(event Event, message string, now time.Time) {
	d.fire(event, message, now)
}

func (d *Dispatcher) fire(event Event, message string, now time.Time) {
	n := Notification{Event: event, Message: message, At: now.Unix()}
	if d.hub != nil {
		d.hub.Emit(n)
	}
	d.errLog.Printf("notify: %s: %s", event, message)
}
