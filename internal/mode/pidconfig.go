package mode

import (
	"github.com/pifire-go/pifire-core/internal/hal"
	"github.com/pifire-go/pifire-core/internal/pid"
	"github.com/pifire-go/pifire-core/internal/store"
)

// pidNew builds a pid.PID from settings.cycle_data, instantiated fresh on
// every Hold entry per spec §3's "created on Hold entry, destroyed on Hold
// exit" lifecycle.
func pidNew(cd store.CycleData, clock hal.Clock) *pid.PID {
	return pid.New(pid.Config{
		PB: cd.PB, Ti: cd.Ti, Td: cd.Td,
		Center:         cd.Center,
		UMin:           cd.UMin,
		UMax:           cd.UMax,
		HoldCycleTimeS: cd.HoldCycleTimeS,
		FanSpeed: pid.FanSpeedParams{
			MinFanPercent: cd.MinFanPercent,
			MaxFanPercent: cd.MaxFanPercent,
			MaxCycleRatio: cd.MaxCycleRatio,
		},
	}, clock)
}
