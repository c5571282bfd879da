package probe

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConditionerIngestTracksAverage(t *testing.T) {
	c := testCoeffs()
	cond := NewConditioner(Fahrenheit, c, c, c, 3)

	// feed the same voltage three times; average should match a single
	// conversion since there's no variance.
	v := 1.5
	var last Reading
	for i := 0; i < 3; i++ {
		last = cond.Ingest(Sample{GrillV: v, Probe1V: v, Probe2V: v})
	}
	assert.False(t, last.GrillDegraded)
	assert.Greater(t, last.GrillTemp, 0.0)
	assert.Equal(t, last.GrillTemp, cond.Average(Grill))
}

func TestConditionerOpenProbeHoldsLastGood(t *testing.T) {
	c := testCoeffs()
	cond := NewConditioner(Fahrenheit, c, c, c, 5)

	good := cond.Ingest(Sample{GrillV: 1.5, Probe1V: 1.5, Probe2V: 1.5})
	assert.False(t, good.GrillDegraded)

	// vMeasured == 0 => resistance = +Inf => Steinhart-Hart fails => degraded
	degraded := cond.Ingest(Sample{GrillV: 0, Probe1V: 1.5, Probe2V: 1.5})
	assert.True(t, degraded.GrillDegraded)
	assert.Equal(t, good.GrillTemp, degraded.GrillTemp)
	assert.True(t, math.IsInf(degraded.GrillTr, 1))
}

func TestConditionerResetWindows(t *testing.T) {
	c := testCoeffs()
	cond := NewConditioner(Fahrenheit, c, c, c, 3)
	cond.Ingest(Sample{GrillV: 1.5, Probe1V: 1.5, Probe2V: 1.5})
	assert.NotEqual(t, 0.0, cond.Average(Grill))

	cond.ResetWindows(3)
	assert.Equal(t, 0.0, cond.Average(Grill))
}
