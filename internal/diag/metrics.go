package diag

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the gauges the mode executor's tick loop updates once per
// display interval (spec §4.4 step 12 is the natural cadence for this
// ambient concern too — it's already the "how's the cook doing" moment).
type Metrics struct {
	GrillTemp  prometheus.Gauge
	Probe1Temp prometheus.Gauge
	Probe2Temp prometheus.Gauge
	HopperPct  prometheus.Gauge
	ModeInfo   *prometheus.GaugeVec
}

// NewMetrics registers the gauges against reg and returns the bundle.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		GrillTemp:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "pifire_grill_temp", Help: "Current grill temperature, in settings.units."}),
		Probe1Temp: prometheus.NewGauge(prometheus.GaugeOpts{Name: "pifire_probe1_temp", Help: "Current probe 1 temperature."}),
		Probe2Temp: prometheus.NewGauge(prometheus.GaugeOpts{Name: "pifire_probe2_temp", Help: "Current probe 2 temperature."}),
		HopperPct:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "pifire_hopper_level_pct", Help: "Last-measured pellet hopper level, percent."}),
		ModeInfo:   prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "pifire_mode_info", Help: "1 for the currently active mode, labeled by mode name."}, []string{"mode"}),
	}
	reg.MustRegister(m.GrillTemp, m.Probe1Temp, m.Probe2Temp, m.HopperPct, m.ModeInfo)
	return m
}

// SetMode zeroes every mode label except the active one, so the gauge
// vector always has exactly one active time series.
func (m *Metrics) SetMode(active string, all []string) {
	for _, name := range all {
		v := 0.0
		if name == active {
			v = 1.0
		}
		m.ModeInfo.WithLabelValues(name).Set(v)
	}
}
