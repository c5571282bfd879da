package mode

import "time"

// AugerAction is what the per-tick auger cycling state machine (spec §4.4
// step 7) decides to do this tick.
type AugerAction int

const (
	AugerNoOp AugerAction = iota
	AugerTurnOn
	AugerTurnOff
)

// CycleTiming is one mode's On/Off/Period/Ratio tuple (spec §4.4 table).
// Hold recomputes Ratio (and therefore On/Off) every time the PID fires;
// Startup/Smoke/Reignite hold it fixed for the whole mode session.
type CycleTiming struct {
	Period time.Duration
	Ratio  float64 // fraction of Period the auger is on
}

func (c CycleTiming) onDuration() time.Duration  { return time.Duration(float64(c.Period) * c.Ratio) }
func (c CycleTiming) offDuration() time.Duration { return c.Period - c.onDuration() }

// StartupCycleTiming builds the Startup/Reignite/Smoke timing per spec
// §4.4: on=SmokeCycleTimeS, off=45+PMode*10, ratio derived from the sum.
func StartupCycleTiming(smokeCycleTimeS float64, pMode int) CycleTiming {
	on := time.Duration(smokeCycleTimeS * float64(time.Second))
	off := time.Duration((45+float64(pMode)*10) * float64(time.Second))
	period := on + off
	var ratio float64
	if period > 0 {
		ratio = float64(on) / float64(period)
	}
	return CycleTiming{Period: period, Ratio: ratio}
}

// ShutdownCycleTiming is always a fixed 100s period, 0 ratio (auger off).
func ShutdownCycleTiming() CycleTiming {
	return CycleTiming{Period: 100 * time.Second, Ratio: 0}
}

// HoldCycleTiming builds the Hold timing from the PID's cycle ratio;
// firstCycle applies the "fast-first-cycle" debug convenience documented
// in spec §9 (on=0.1, off=0.9 normalized, i.e. ratio 0.1): when both
// firstCycle and fastFirstCycleEnabled are set, the ratio is 0.1 whatever
// cycleRatio is, and the period stays holdCycleTimeS.
func HoldCycleTiming(holdCycleTimeS float64, cycleRatio float64, firstCycle bool, fastFirstCycleEnabled bool) CycleTiming {
	period := time.Duration(holdCycleTimeS * float64(time.Second))
	ratio := cycleRatio
	if firstCycle && fastFirstCycleEnabled {
		ratio = 0.1
	}
	return CycleTiming{Period: period, Ratio: ratio}
}

// CyclingState tracks the auger's last toggle time and decides, each
// tick, whether to flip it (spec §4.4 step 7).
type CyclingState struct {
	LastToggle time.Time
	primed     bool
}

// Tick evaluates the auger on/off state machine. augerOn is the HAL's
// current observed auger state (the state machine is driven off hardware
// state, not an internally-tracked boolean, matching spec §4.4's
// "state machine on HAL auger state").
func (s *CyclingState) Tick(now time.Time, augerOn bool, timing CycleTiming) AugerAction {
	if !s.primed {
		s.LastToggle = now
		s.primed = true
	}
	elapsed := now.Sub(s.LastToggle)
	if !augerOn {
		if elapsed > timing.offDuration() {
			s.LastToggle = now
			return AugerTurnOn
		}
		return AugerNoOp
	}
	if elapsed > timing.onDuration() {
		s.LastToggle = now
		return AugerTurnOff
	}
	return AugerNoOp
}

// FanDutyForCycleRatio is the stepwise table spec §4.4 step 8 specifies as
// the executor's Hold fan-duty strategy (the alternative to
// pid.PID.ComputeFanSpeed, per spec §9's "Implementations SHOULD make the
// choice explicit" — SPEC_FULL.md Open Question 1 makes stepwise the
// default).
func FanDutyForCycleRatio(ratio float64) int {
	switch {
	case ratio > 0.35:
		return 95
	case ratio > 0.3:
		return 85
	case ratio > 0.2:
		return 70
	default:
		return 55
	}
}
