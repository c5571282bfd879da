// Package safety implements the Safety Supervisor (C5): the startup-temp
// and max-temp envelope checks, plus the Startup/Reignite entry prelude
// that establishes startup_temp/after_start_temp. Out-of-bounds readings
// react by transitioning the mode to Reignite or Error.
package safety

import (
	"log"
	"time"

	"github.com/pifire-go/pifire-core/internal/notify"
	"github.com/pifire-go/pifire-core/internal/store"
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Supervisor evaluates the temperature envelope each tick and drives mode
// transitions through the same ControlStore the rest of the core uses.
type Supervisor struct {
	control *store.ControlStore
	notify  *notify.Dispatcher
	display interface {
		DisplayText(string) error
	}
	errLog *log.Logger
}

func NewSupervisor(control *store.ControlStore, dispatcher *notify.Dispatcher, display interface {
	DisplayText(string) error
}, errLog *log.Logger) *Supervisor {
	if errLog == nil {
		errLog = log.Default()
	}
	return &Supervisor{control: control, notify: dispatcher, display: display, errLog: errLog}
}

// PrepareStartup computes startup_temp and after_start_temp at
// Startup/Reignite entry (spec §4.4 safety prelude):
//
//	startup_temp = clamp(multiplier * avg_grill, [min_startup_temp, max_startup_temp])
//	after_start_temp = avg_grill
//
// multiplier defaults to 0.4 (SPEC_FULL.md Open Question 2); settings may
// override via safety.startup_temp_multiplier.
func (s *Supervisor) PrepareStartup(avgGrill float64, cfg store.Safety) error {
	multiplier := cfg.StartupTempMultiplier
	if multiplier <= 0 {
		multiplier = 0.4
	}
	startupTemp := clamp(multiplier*avgGrill, cfg.MinStartupTemp, cfg.MaxStartupTemp)
	return s.control.Update(func(c *store.Control) error {
		c.Safety.StartupTemp = startupTemp
		c.Safety.AfterStartTemp = avgGrill
		return nil
	})
}

// CheckEntry implements the Smoke/Hold entry prelude: if the grill never
// sustained heat through Startup (after_start_temp < startup_temp), force
// a transition to Reignite (if retries remain) or Error, firing
// Grill_Error_02. Returns true if a transition was forced (caller should
// not proceed to run the mode it was about to enter).
func (s *Supervisor) CheckEntry(now time.Time) (transitioned bool, err error) {
	err = s.control.Update(func(c *store.Control) error {
		if c.Safety.AfterStartTemp >= c.Safety.StartupTemp {
			return nil
		}
		transitioned = true
		if c.Safety.ReigniteRetries == 0 {
			c.Mode = store.ModeError
			c.Updated = true
			return nil
		}
		c.Safety.ReigniteRetries--
		c.Safety.ReigniteLastState = c.Mode
		c.Mode = store.ModeReignite
		c.Updated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if transitioned {
		s.fireStartupFailure(now)
	}
	return transitioned, nil
}

// EvaluateHoldSmoke is the per-tick safety check for Hold/Smoke (spec
// §4.5 step 1-2). Returns terminate=true if the mode executor's loop
// should exit because a transition was forced.
func (s *Supervisor) EvaluateHoldSmoke(avgGrill, maxTemp float64, now time.Time) (terminate bool, err error) {
	var startupFailure, maxTempTrip, retriesExhausted bool
	err = s.control.Update(func(c *store.Control) error {
		if avgGrill < c.Safety.StartupTemp {
			terminate = true
			startupFailure = true
			if c.Safety.ReigniteRetries == 0 {
				retriesExhausted = true
				c.Mode = store.ModeError
				c.Updated = true
				return nil
			}
			c.Safety.ReigniteRetries--
			c.Safety.ReigniteLastState = c.Mode
			c.Mode = store.ModeReignite
			c.Updated = true
			return nil
		}
		if avgGrill > maxTemp {
			terminate = true
			maxTempTrip = true
			c.Mode = store.ModeError
			c.Updated = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if startupFailure {
		s.reactToTermination(now, true, retriesExhausted)
	} else if maxTempTrip {
		s.reactToTermination(now, false, false)
	}
	return terminate, nil
}

// EvaluateMonitor is the per-tick safety check for Monitor mode: only the
// max-temp trip applies (spec §4.5).
func (s *Supervisor) EvaluateMonitor(avgGrill, maxTemp float64, now time.Time) (terminate bool, err error) {
	if avgGrill <= maxTemp {
		return false, nil
	}
	err = s.control.Update(func(c *store.Control) error {
		c.Mode = store.ModeError
		c.Updated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	s.fireMaxTempTrip(now)
	return true, nil
}

// reactToTermination fires the notification and, for a startup failure,
// shows "Re-Ignite" only when a retry is actually being attempted — once
// reignite_retries is exhausted the transition is to Error, and the
// display must match (spec §4.5 step 1).
func (s *Supervisor) reactToTermination(now time.Time, wasStartupFailure, retriesExhausted bool) {
	if wasStartupFailure {
		s.fireStartupFailure(now)
		if s.display != nil {
			if retriesExhausted {
				_ = s.display.DisplayText("ERROR")
			} else {
				_ = s.display.DisplayText("Re-Ignite")
			}
		}
		return
	}
	s.fireMaxTempTrip(now)
}

func (s *Supervisor) fireStartupFailure(now time.Time) {
	if s.notify != nil {
		s.notify.FireError(notify.EventGrillError02, "grill did not sustain startup temperature", now)
	}
}

func (s *Supervisor) fireMaxTempTrip(now time.Time) {
	if s.notify != nil {
		s.notify.FireError(notify.EventGrillError01, "grill exceeded maximum temperature", now)
	}
	if s.display != nil {
		_ = s.display.DisplayText("ERROR")
	}
}
