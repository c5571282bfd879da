package probe

import "sync"

// Channel identifies one of the three thermistor inputs.
type Channel int

const (
	Grill Channel = iota
	Probe1
	Probe2
)

// ProbeState is one channel's conditioning state: its calibration
// coefficients, rolling average window, last-good reading and degraded
// flag. Per spec §4.2, an open/shorted probe holds its last valid average
// and is marked degraded rather than producing a garbage temperature.
type ProbeState struct {
	coeffs   Coefficients
	window   *RollingAverage
	lastGood float64
	degraded bool
}

// Conditioner owns the three probe channels' rolling averages and
// Steinhart-Hart conversion, per spec C2. windowSize follows spec §3: 30
// samples for the grill by default, implementation-defined (same default)
// for the two meat probes.
type Conditioner struct {
	mu       sync.Mutex
	units    Units
	channels map[Channel]*ProbeState
}

const defaultWindowSize = 30

// NewConditioner builds a Conditioner with the given per-channel
// calibration coefficients and the given rolling-window size (0 uses the
// spec default of 30).
func NewConditioner(units Units, grill, probe1, probe2 Coefficients, windowSize int) *Conditioner {
	if windowSize <= 0 {
		windowSize = defaultWindowSize
	}
	return &Conditioner{
		units: units,
		channels: map[Channel]*ProbeState{
			Grill:  {coeffs: grill, window: NewRollingAverage(windowSize)},
			Probe1: {coeffs: probe1, window: NewRollingAverage(windowSize)},
			Probe2: {coeffs: probe2, window: NewRollingAverage(windowSize)},
		},
	}
}

// SetProfiles replaces all three channels' calibration coefficients, used
// when control.probe_profile_update fires (spec §4.4 step 9). The rolling
// windows are left intact; only calibration changes.
func (c *Conditioner) SetProfiles(grill, probe1, probe2 Coefficients) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels[Grill].coeffs = grill
	c.channels[Probe1].coeffs = probe1
	c.channels[Probe2].coeffs = probe2
}

// Sample is one raw voltage reading for all three channels.
type Sample struct {
	GrillV, Probe1V, Probe2V float64
}

// Reading is the conditioned output of one tick: converted temperatures,
// raw resistances (for the tuning UI) and per-channel degraded flags.
type Reading struct {
	GrillTemp, Probe1Temp, Probe2Temp    float64
	GrillTr, Probe1Tr, Probe2Tr          float64
	GrillDegraded, Probe1Degraded, Probe2Degraded bool
}

// Ingest converts one raw voltage sample per channel, enqueues the
// resulting temperature into each channel's rolling window, and returns
// the freshly assembled rolling-average bundle.
func (c *Conditioner) Ingest(s Sample) Reading {
	c.mu.Lock()
	defer c.mu.Unlock()

	gv, gtr, gdeg := c.convert(Grill, s.GrillV)
	p1v, p1tr, p1deg := c.convert(Probe1, s.Probe1V)
	p2v, p2tr, p2deg := c.convert(Probe2, s.Probe2V)

	return Reading{
		GrillTemp: gv, Probe1Temp: p1v, Probe2Temp: p2v,
		GrillTr: gtr, Probe1Tr: p1tr, Probe2Tr: p2tr,
		GrillDegraded: gdeg, Probe1Degraded: p1deg, Probe2Degraded: p2deg,
	}
}

func (c *Conditioner) convert(ch Channel, vMeasured float64) (temp, tr float64, degraded bool) {
	st := c.channels[ch]
	tr = st.coeffs.ResistanceFromVoltage(vMeasured)

	tempF, ok := TrToTemp(tr, st.coeffs)
	if !ok {
		// open/short: hold last valid average, mark degraded (spec §4.2)
		st.degraded = true
		return st.window.Average(), tr, true
	}

	temp = tempF
	if c.units == Celsius {
		temp = (tempF - 32) * 5 / 9
	}
	st.degraded = false
	st.lastGood = temp
	st.window.Enqueue(temp)
	return st.window.Average(), tr, false
}

// Average returns the current rolling average for one channel without
// ingesting a new sample.
func (c *Conditioner) Average(ch Channel) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[ch].window.Average()
}

// Degraded reports whether a channel's most recent reading was
// open/short.
func (c *Conditioner) Degraded(ch Channel) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[ch].degraded
}

// ResetWindows discards all accumulated samples and rebuilds every window
// with the given size (0 uses the default of 30). The mode executor does
// not call it, so windows carry over from one mode session to the next.
func (c *Conditioner) ResetWindows(size int) {
	if size <= 0 {
		size = defaultWindowSize
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, st := range c.channels {
		st.window = NewRollingAverage(size)
	}
}
