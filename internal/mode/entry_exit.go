package mode

import (
	"github.com/pifire-go/pifire-core/internal/probe"
	"github.com/pifire-go/pifire-core/internal/store"
)

// runEntryActions performs the fixed HAL sequence spec §4.4 lists per mode,
// and seeds the session's cycle timing / PID where applicable.
func (e *Executor) runEntryActions(mode store.Mode) error {
	out := e.deps.Outputs

	switch mode {
	case store.ModeStartup, store.ModeReignite, store.ModeSmoke, store.ModeHold:
		if err := out.FanOn(); err != nil {
			return err
		}
		_ = out.IgniterOff()
		_ = out.AugerOff()
		if err := out.PowerOn(); err != nil {
			return err
		}
		_ = out.FanDutyCycle(50)

		if mode == store.ModeStartup || mode == store.ModeReignite {
			_ = out.IgniterOn()
		}
		_ = out.AugerOn()
		_ = out.FanDutyCycle(55)

	case store.ModeShutdown:
		e.timing = ShutdownCycleTiming()
		return nil

	case store.ModeMonitor, store.ModeStop, store.ModeError:
		_ = out.AugerOff()
		_ = out.IgniterOff()
		_ = out.FanOff()
		_ = out.PowerOff()
		return nil

	case store.ModeManual:
		return nil
	}

	switch mode {
	case store.ModeStartup, store.ModeReignite:
		e.timing = StartupCycleTiming(e.cfg.CycleData.SmokeCycleTimeS, e.cfg.CycleData.PMode)
	case store.ModeSmoke:
		e.timing = StartupCycleTiming(e.cfg.CycleData.SmokeCycleTimeS, e.cfg.CycleData.PMode)
	case store.ModeHold:
		cd := e.cfg.CycleData
		e.pidCtrl = pidNew(cd, e.deps.Clock)
		e.pidCtrl.SetTarget(e.ctrl.Setpoints.Grill)
		e.timing = HoldCycleTiming(cd.HoldCycleTimeS, cd.UMin, true, cd.FastFirstCycle)
	}
	return nil
}

// runSafetyPrelude runs the Safety Supervisor check spec §4.4 requires
// immediately after entry actions, before the tick loop starts. Startup and
// Reignite establish startup_temp/after_start_temp from the grill's current
// average; Smoke and Hold verify the grill actually sustained that startup
// temperature, forcing a Reignite/Error transition otherwise. skip reports
// whether the prelude already transitioned the mode away, in which case
// RunMode must not enter the tick loop for the mode it was about to run.
func (e *Executor) runSafetyPrelude(mode store.Mode) (skip bool, err error) {
	switch mode {
	case store.ModeStartup, store.ModeReignite:
		avg := e.deps.Conditioner.Average(probe.Grill)
		return false, e.deps.Safety.PrepareStartup(avg, e.cfg.Safety)
	case store.ModeSmoke, store.ModeHold:
		return e.deps.Safety.CheckEntry(e.now())
	default:
		return false, nil
	}
}

// runExitActions performs spec §4.4's fixed exit sequence.
func (e *Executor) runExitActions(mode store.Mode) {
	out := e.deps.Outputs
	_ = out.AugerOff()
	_ = out.IgniterOff()

	switch mode {
	case store.ModeShutdown:
		_ = out.FanDutyCycle(0)
		_ = out.FanOff()
		_ = out.PowerOff()
	case store.ModeStartup, store.ModeReignite:
		avg := e.deps.Conditioner.Average(probe.Grill)
		_ = e.deps.Control.Update(func(c *store.Control) error {
			c.Safety.AfterStartTemp = avg
			return nil
		})
	case store.ModeMonitor, store.ModeStop, store.ModeError:
		_ = out.FanOff()
		_ = out.PowerOff()
	}
}
