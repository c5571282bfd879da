package mode

import (
	"time"

	"github.com/pifire-go/pifire-core/internal/hal"
	"github.com/pifire-go/pifire-core/internal/notify"
	"github.com/pifire-go/pifire-core/internal/probe"
	"github.com/pifire-go/pifire-core/internal/store"
)

// tick runs one iteration of the per-mode work loop, spec §4.4 steps 1-16.
// It never sleeps; RunMode paces calls to it.
func (e *Executor) tick(mode store.Mode) (exit bool, reason ExitReason, err error) {
	now := e.now()

	if e.deps.Display != nil {
		_ = e.deps.Display.EventDetect()
	}

	if now.Sub(e.lastControlReload) >= controlReloadInterval {
		e.lastControlReload = now
		e.reloadControl()
	}

	if now.Sub(e.lastPelletCheck) >= pelletCheckInterval {
		e.lastPelletCheck = now
		e.checkPelletLevel(now)
	}

	if e.ctrl.Updated {
		return true, ExitUpdated, nil
	}

	if e.ctrl.HopperCheck || now.Sub(e.lastHopperCheck) >= hopperCheckInterval {
		e.lastHopperCheck = now
		e.checkHopperLevel()
	}

	if e.deps.Outputs != nil {
		if pos, serr := e.deps.Outputs.GetInputStatus(); serr == nil && pos == hal.SelectorOEM {
			_ = e.deps.Control.RequestMode(store.ModeStop)
			return true, ExitSelectorStop, nil
		} else if serr != nil {
			err = serr
		}
	}

	if mode == store.ModeManual {
		e.driveManual()
		return false, 0, nil
	}

	e.runAugerCycling(mode, now)

	if mode == store.ModeHold && now.Sub(e.lastHoldFan) >= holdFanInterval {
		e.lastHoldFan = now
		e.recomputeHoldFanDuty()
	}

	if e.ctrl.ProbeProfileUpdate {
		e.applyProbeProfiles()
		_ = e.deps.Control.Update(func(c *store.Control) error {
			c.ProbeProfileUpdate = false
			return nil
		})
	}

	reading := e.readProbes(&err)

	if derr := e.deps.Notify.CheckNotify(notify.Temps{
		Grill: reading.GrillTemp, Probe1: reading.Probe1Temp, Probe2: reading.Probe2Temp,
	}, now); derr != nil {
		err = derr
	}

	if now.Sub(e.lastDisplay) >= displayInterval {
		e.lastDisplay = now
		if e.deps.Display != nil {
			e.updateDisplay(mode, reading)
		}
		e.reportMetrics(mode, reading)
	}

	if terminate, serr := e.evaluateSafety(mode, reading.GrillTemp, now); serr != nil {
		err = serr
	} else if terminate {
		return true, ExitTerminalTimeout, nil
	}

	if mode == store.ModeSmoke || (mode == store.ModeHold && reading.GrillTemp >= e.ctrl.Setpoints.Grill) {
		e.tickSmokePlus(reading.GrillTemp, now)
	}

	if now.Sub(e.lastHistory) >= historyInterval {
		e.lastHistory = now
		_ = e.deps.History.Append(store.HistorySample{
			At: now, Mode: mode,
			GrillTemp: reading.GrillTemp, Probe1Temp: reading.Probe1Temp, Probe2Temp: reading.Probe2Temp,
			SetGrill: e.ctrl.Setpoints.Grill, SetProbe1: e.ctrl.Setpoints.Probe1, SetProbe2: e.ctrl.Setpoints.Probe2,
		})
	}

	if e.checkTerminalTimeout(mode, now) {
		return true, ExitTerminalTimeout, nil
	}

	return false, 0, err
}

func (e *Executor) checkPelletLevel(now time.Time) {
	hopper, err := e.deps.PelletDB.HopperLevel()
	if err != nil {
		e.deps.ErrLog.Printf("mode %s: pellet level read failed: %v", e.mode, err)
		return
	}
	e.deps.Notify.CheckPelletLevel(hopper, e.cfg.PelletLevel.WarningLevel, e.cfg.PelletLevel.WarningEnabled, now)
}

func (e *Executor) checkHopperLevel() {
	if e.deps.Distance == nil {
		return
	}
	pct, err := e.deps.Distance.GetLevel()
	if err != nil {
		e.deps.ErrLog.Printf("mode %s: hopper distance read failed: %v", e.mode, err)
		return
	}
	_ = e.deps.PelletDB.SetHopperLevel(pct)
	if e.ctrl.HopperCheck {
		_ = e.deps.Control.Update(func(c *store.Control) error {
			c.HopperCheck = false
			return nil
		})
	}
}

func (e *Executor) runAugerCycling(mode store.Mode, now time.Time) {
	switch mode {
	case store.ModeStartup, store.ModeSmoke, store.ModeHold, store.ModeReignite:
	default:
		return
	}

	status, err := e.deps.Outputs.GetOutputStatus()
	if err != nil {
		e.deps.ErrLog.Printf("mode %s: output status read failed: %v", mode, err)
		return
	}

	switch e.cycling.Tick(now, bool(status.Auger), e.timing) {
	case AugerTurnOn:
		_ = e.deps.Outputs.AugerOn()
		// Hold: a new cycle starts, so re-run the PID and recompute timing;
		// the entry-time (fast-)first cycle ends here.
		if mode == store.ModeHold && e.pidCtrl != nil {
			ratio := e.pidCtrl.Update(e.deps.Conditioner.Average(probe.Grill))
			e.holdFirst = false
			e.timing = HoldCycleTiming(e.cfg.CycleData.HoldCycleTimeS, ratio, e.holdFirst, e.cfg.CycleData.FastFirstCycle)
		}
	case AugerTurnOff:
		_ = e.deps.Outputs.AugerOff()
	}
}

func (e *Executor) recomputeHoldFanDuty() {
	var duty int
	if e.cfg.CycleData.FanStrategy == "pid" && e.pidCtrl != nil {
		duty = e.pidCtrl.ComputeFanSpeed()
	} else {
		duty = FanDutyForCycleRatio(e.timing.Ratio)
	}
	_ = e.deps.Outputs.FanDutyCycle(duty)
}

func (e *Executor) driveManual() {
	m := e.ctrl.Manual
	if !m.Change {
		return
	}
	out := e.deps.Outputs
	if m.Power {
		_ = out.PowerOn()
	} else {
		_ = out.PowerOff()
	}
	if m.Auger {
		_ = out.AugerOn()
	} else {
		_ = out.AugerOff()
	}
	if m.Igniter {
		_ = out.IgniterOn()
	} else {
		_ = out.IgniterOff()
	}
	if m.Fan {
		_ = out.FanOn()
		_ = out.FanDutyCycle(m.PWM)
	} else {
		_ = out.FanOff()
	}
	_ = e.deps.Control.Update(func(c *store.Control) error {
		c.Manual.Change = false
		return nil
	})
}

func (e *Executor) applyProbeProfiles() {
	grill := e.cfg.ProbeProfiles["grill"]
	p1 := e.cfg.ProbeProfiles["probe1"]
	p2 := e.cfg.ProbeProfiles["probe2"]

	halProfile := func(p store.ProbeProfile) hal.ProbeProfile {
		return hal.ProbeProfile{Name: p.Name, Vs: p.Vs, Rd: p.Rd, A: p.A, B: p.B, C: p.C}
	}
	coeffs := func(p store.ProbeProfile) probe.Coefficients {
		return probe.Coefficients{Vs: p.Vs, Rd: p.Rd, A: p.A, B: p.B, C: p.C}
	}

	if e.deps.ADC != nil {
		if err := e.deps.ADC.SetProfiles(halProfile(grill), halProfile(p1), halProfile(p2)); err != nil {
			e.deps.ErrLog.Printf("mode %s: ADC.SetProfiles failed: %v", e.mode, err)
		}
	}
	e.deps.Conditioner.SetProfiles(coeffs(grill), coeffs(p1), coeffs(p2))
}

func (e *Executor) readProbes(errOut *error) probe.Reading {
	if e.deps.ADC == nil {
		return probe.Reading{}
	}
	raw, err := e.deps.ADC.ReadAllPorts()
	if err != nil {
		*errOut = err
		return probe.Reading{}
	}
	return e.deps.Conditioner.Ingest(probe.Sample{GrillV: raw.GrillV, Probe1V: raw.Probe1V, Probe2V: raw.Probe2V})
}

func (e *Executor) updateDisplay(mode store.Mode, reading probe.Reading) {
	status, _ := e.deps.Outputs.GetOutputStatus()
	hopperPct, _ := e.deps.PelletDB.HopperLevel()
	_ = e.deps.Display.DisplayStatus(
		hal.DisplayInData{
			GrillTemp: reading.GrillTemp, Probe1Temp: reading.Probe1Temp, Probe2Temp: reading.Probe2Temp,
			SetGrill: e.ctrl.Setpoints.Grill, SetProbe1: e.ctrl.Setpoints.Probe1, SetProbe2: e.ctrl.Setpoints.Probe2,
			GrillTr: reading.GrillTr, Probe1Tr: reading.Probe1Tr, Probe2Tr: reading.Probe2Tr,
		},
		hal.DisplayStatusData{
			Mode: string(mode), HopperPct: hopperPct, Units: string(e.cfg.Units), OutputStatus: status,
		},
	)
}

var allModeNames = []string{
	string(store.ModeStop), string(store.ModeStartup), string(store.ModeSmoke), string(store.ModeHold),
	string(store.ModeShutdown), string(store.ModeReignite), string(store.ModeMonitor), string(store.ModeManual),
	string(store.ModeError),
}

func (e *Executor) reportMetrics(mode store.Mode, reading probe.Reading) {
	if e.deps.Metrics == nil {
		return
	}
	e.deps.Metrics.GrillTemp.Set(reading.GrillTemp)
	e.deps.Metrics.Probe1Temp.Set(reading.Probe1Temp)
	e.deps.Metrics.Probe2Temp.Set(reading.Probe2Temp)
	if hopperPct, err := e.deps.PelletDB.HopperLevel(); err == nil {
		e.deps.Metrics.HopperPct.Set(hopperPct)
	}
	e.deps.Metrics.SetMode(string(mode), allModeNames)
}

func (e *Executor) evaluateSafety(mode store.Mode, avgGrill float64, now time.Time) (terminate bool, err error) {
	switch mode {
	case store.ModeHold, store.ModeSmoke:
		return e.deps.Safety.EvaluateHoldSmoke(avgGrill, e.cfg.Safety.MaxTemp, now)
	case store.ModeMonitor:
		return e.deps.Safety.EvaluateMonitor(avgGrill, e.cfg.Safety.MaxTemp, now)
	default:
		return false, nil
	}
}

// tickSmokePlus toggles the combustion fan at smoke_plus.cycle_s/2 while
// s_plus is armed (spec §4.4 step 14), keyed off control.s_plus — the live
// operator toggle — rather than settings.smoke_plus.enabled, which only
// supplies the band/cycle/duty tunables. Excursions past min/max_temp
// override the toggle with a forced fan-on at 75% duty; when s_plus is off,
// the fail-safe leaves (or puts) the fan running so a prior smoke-plus
// cycle can never strand it off.
func (e *Executor) tickSmokePlus(avgGrill float64, now time.Time) {
	sp := e.cfg.SmokePlus

	status, err := e.deps.Outputs.GetOutputStatus()
	if err != nil {
		e.deps.ErrLog.Printf("mode %s: smoke-plus output status read failed: %v", e.mode, err)
		return
	}

	if !e.ctrl.SPlus {
		if status.Fan == hal.Off {
			_ = e.deps.Outputs.FanOn()
		}
		return
	}

	if avgGrill > sp.MaxTemp || avgGrill < sp.MinTemp {
		_ = e.deps.Outputs.FanOn()
		_ = e.deps.Outputs.FanDutyCycle(75)
		return
	}

	cycle := time.Duration(sp.CycleS * float64(time.Second))
	if cycle <= 0 || now.Sub(e.smokePlusLast) < cycle/2 {
		return
	}
	e.smokePlusLast = now
	_ = e.deps.Outputs.FanToggle()
}

// checkTerminalTimeout reports whether mode's elapsed-time limit has been
// reached. For Startup/Reignite, 240s is the normal completion signal, not
// a failure (spec §4.4 step 16 / §8 scenario 1): it exits the tick loop
// without forcing a mode transition, leaving next-mode selection to the
// Control Orchestrator.
func (e *Executor) checkTerminalTimeout(mode store.Mode, now time.Time) bool {
	switch mode {
	case store.ModeStartup, store.ModeReignite:
		return now.Sub(e.entered) >= startupTimeout
	case store.ModeShutdown:
		limit := time.Duration(e.cfg.ShutdownTimerS * float64(time.Second))
		if limit <= 0 {
			limit = 100 * time.Second
		}
		if now.Sub(e.entered) < limit {
			return false
		}
		_ = e.deps.Control.Update(func(c *store.Control) error {
			c.Mode = store.ModeStop
			c.Updated = true
			return nil
		})
		return true
	default:
		return false
	}
}
