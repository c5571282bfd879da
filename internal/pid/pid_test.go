package pid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }
func (f *fakeClock) advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestPID(clock *fakeClock) *PID {
	return New(Config{
		PB: 60, Ti: 180, Td: 45, Center: 0.5,
		UMin: 0.1, UMax: 0.9,
		HoldCycleTimeS: 8,
		FanSpeed: FanSpeedParams{MinFanPercent: 55, MaxFanPercent: 100, MaxCycleRatio: 0.9},
	}, clock)
}

func TestUpdateStaysWithinBounds(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	p := newTestPID(clock)
	p.SetTarget(225)

	for i := 0; i < 50; i++ {
		clock.advance(time.Second)
		u := p.Update(180)
		assert.GreaterOrEqual(t, u, 0.1)
		assert.LessOrEqual(t, u, 0.9)
	}
}

func TestFirstUpdateSeedsDerivativeNoSpike(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	p := newTestPID(clock)
	p.SetTarget(225)

	clock.advance(time.Second)
	u1 := p.Update(215) // stays inside [u_min, u_max]; derivative should be 0 on first tick
	// with Last seeded to Current, D term is 0 on the first tick: only P (+center) and I contribute
	expectedP := p.kp*(215-225) + p.center
	assert.InDelta(t, expectedP, u1, 0.5, "first update should not show a derivative spike")
}

// Scenario 4 from spec §8: setpoint 225, avg 180 (cool grill; this update
// clamps high). Clamping low with a large positive error must then undo
// the full accumulation.
func TestAntiWindupUndoesFullyWhenErrorLarge(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	p := newTestPID(clock)
	p.SetTarget(225)

	clock.advance(time.Second)
	p.Update(180) // error = -45 (current < target): not the >10 branch (error is negative)

	// Drive current above target so error > 10 triggers the "undo fully" branch.
	clock.advance(time.Second)
	before := p.inter
	u := p.Update(240) // error = 15 > 10
	require.Equal(t, p.uMin, u, "expect clamp to u_min to exercise undo-fully branch")
	// undone fully means inter only reflects pre-tick state (no net change from this tick's error*dt)
	assert.InDelta(t, before, p.inter, 1e-9)
}

func TestAntiWindupPartialUndoWhenErrorSmall(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	p := newTestPID(clock)
	p.SetTarget(225)

	clock.advance(time.Second)
	p.Update(220) // error = -5, small magnitude, clamps low if output < u_min

	clock.advance(time.Second)
	before := p.inter
	errVal := 222.0 - p.setPoint
	u := p.Update(222) // error still small; whichever branch applies, inter should move by 0.3*error*dt if clamped low
	if u == p.uMin {
		assert.InDelta(t, before+errVal*1.0*0.3, p.inter, 1e-6)
	}
}

func TestComputeFanSpeedRateLimited(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	p := newTestPID(clock)
	p.SetTarget(225)

	// Force a high recent-average cycle ratio so the target fan duty jumps.
	for i := range p.recentRatios {
		p.recentRatios[i] = 0.9
	}
	p.lastFanPercent = 55

	first := p.ComputeFanSpeed()
	assert.LessOrEqual(t, first-55, 5)

	second := p.ComputeFanSpeed()
	assert.LessOrEqual(t, second-first, 5)
}

func TestSetTargetResetsIntegral(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	p := newTestPID(clock)
	p.SetTarget(225)
	clock.advance(time.Second)
	p.Update(220) // unclamped, so this tick's accumulation is kept
	assert.NotEqual(t, 0.0, p.inter)

	p.SetTarget(200)
	assert.Equal(t, 0.0, p.inter)
}
