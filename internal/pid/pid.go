// Package pid implements a cycle-ratio PID controller: standard-form
// proportional/integral/derivative terms plus an asymmetric integral
// anti-windup undo (a high clamp undoes 100%; a low clamp undoes 100% when
// error>10 and 70% otherwise) that a fixed
// symmetric output clamp can't express, so it's hand-rolled rather than
// built on a third-party PID library — see DESIGN.md.
package pid

import (
	"time"

	"github.com/pifire-go/pifire-core/internal/hal"
)

// FanSpeedParams tunes PID.ComputeFanSpeed's piecewise-linear mapping from
// recent-average cycle ratio to fan duty, per spec §4.3.
type FanSpeedParams struct {
	MinFanPercent float64 // duty at u_min
	MaxFanPercent float64 // duty at MaxCycleRatio
	MaxCycleRatio float64 // cycle ratio at which duty saturates at MaxFanPercent
}

// Config holds the tunables a PID is constructed with, taken from
// settings.cycle_data (spec §3).
type Config struct {
	PB, Ti, Td       float64
	Center           float64
	UMin, UMax       float64
	HoldCycleTimeS   float64 // used to size the recent-cycle-ratio window
	FanSpeed         FanSpeedParams
}

// PID is the standard-form cycle-ratio controller: u = Kp*e + Kp/Ti*∫e·dt
// + Kp*Td*de/dt + center, Kp = -1/PB.
type PID struct {
	clock hal.Clock

	kp, ki, kd float64
	center     float64
	uMin, uMax float64

	setPoint float64
	inter    float64
	last     float64
	haveLast bool
	lastTick time.Time

	u float64

	fanSpeed       FanSpeedParams
	recentRatios   []float64
	recentIdx      int
	lastFanPercent float64
}

// New builds a PID from settings.cycle_data tunables. The recent-ratio
// window length is fixed at 120/HoldCycleTimeS entries, about 120 seconds
// of history at one Update per Hold cycle (spec §4.3), initialized to UMin.
func New(cfg Config, clock hal.Clock) *PID {
	if clock == nil {
		clock = hal.RealClock{}
	}
	windowLen := 15
	if cfg.HoldCycleTimeS > 0 {
		windowLen = int(120 / cfg.HoldCycleTimeS)
		if windowLen < 1 {
			windowLen = 1
		}
	}
	p := &PID{
		clock:    clock,
		center:   cfg.Center,
		uMin:     cfg.UMin,
		uMax:     cfg.UMax,
		fanSpeed: cfg.FanSpeed,
	}
	p.calculateGains(cfg.PB, cfg.Ti, cfg.Td)
	p.recentRatios = make([]float64, windowLen)
	for i := range p.recentRatios {
		p.recentRatios[i] = cfg.UMin
	}
	p.lastFanPercent = p.fanSpeed.MinFanPercent
	return p
}

func (p *PID) calculateGains(pb, ti, td float64) {
	p.kp = -1 / pb
	p.ki = p.kp / ti
	p.kd = p.kp * td
}

// SetGains re-tunes PB/Ti/Td without resetting the controller's state,
// matching pid.py's setGains.
func (p *PID) SetGains(pb, ti, td float64) {
	p.calculateGains(pb, ti, td)
}

// SetTarget resets the integral, derivative and last-update bookkeeping
// and establishes a new setpoint, matching pid.py's setTarget.
func (p *PID) SetTarget(setPoint float64) {
	p.setPoint = setPoint
	p.inter = 0
	p.haveLast = false
	p.lastTick = p.clock.Now()
}

// Update computes and returns the clamped cycle ratio for the given
// current grill temperature.
func (p *PID) Update(current float64) float64 {
	now := p.clock.Now()
	if !p.haveLast {
		// avoid a derivative spike on the very first update
		p.last = current
		p.haveLast = true
		p.lastTick = now
	}

	dt := now.Sub(p.lastTick).Seconds()
	if dt <= 0 {
		dt = 1e-3
	}

	errVal := current - p.setPoint
	propTerm := p.kp*errVal + p.center

	if errVal != 0 {
		p.inter += errVal * dt
	}
	integralTerm := p.ki * p.inter

	derivative := (current - p.last) / dt
	derivTerm := p.kd * derivative

	u := propTerm + integralTerm + derivTerm

	switch {
	case u > p.uMax:
		p.inter -= errVal * dt // undo this tick's accumulation entirely
		u = p.uMax
	case u < p.uMin:
		if errVal > 10 {
			p.inter -= errVal * dt // undo fully: let CR approach u_min from above
		} else {
			p.inter -= errVal * dt * 0.7 // undo only 70%: let the integral drift down
		}
		u = p.uMin
	}

	p.last = current
	p.lastTick = now
	p.u = u

	p.recentIdx = (p.recentIdx + 1) % len(p.recentRatios)
	p.recentRatios[p.recentIdx] = u

	return u
}

// Get returns the most recently computed cycle ratio.
func (p *PID) Get() float64 { return p.u }

// recentAverage is the arithmetic mean of the recent-cycle-ratio window.
func (p *PID) recentAverage() float64 {
	var sum float64
	for _, r := range p.recentRatios {
		sum += r
	}
	return sum / float64(len(p.recentRatios))
}

// ComputeFanSpeed maps the recent-window-average cycle ratio into a fan
// duty percentage via a piecewise-linear mapping from (UMin, MinFanPercent)
// to (MaxCycleRatio, MaxFanPercent), rate-limited to ±5% versus the
// previous call (spec §4.3). This is the PID-native fan strategy; spec §9
// notes the executor's own stepwise table is used instead by default — see
// SPEC_FULL.md Open Question 1.
func (p *PID) ComputeFanSpeed() int {
	avg := p.recentAverage()

	fp := p.fanSpeed
	var target float64
	switch {
	case fp.MaxCycleRatio <= p.uMin:
		target = fp.MaxFanPercent
	case avg <= p.uMin:
		target = fp.MinFanPercent
	case avg >= fp.MaxCycleRatio:
		target = fp.MaxFanPercent
	default:
		frac := (avg - p.uMin) / (fp.MaxCycleRatio - p.uMin)
		target = fp.MinFanPercent + frac*(fp.MaxFanPercent-fp.MinFanPercent)
	}

	delta := target - p.lastFanPercent
	if delta > 5 {
		delta = 5
	} else if delta < -5 {
		delta = -5
	}
	result := p.lastFanPercent + delta
	p.lastFanPercent = result
	return int(result)
}
