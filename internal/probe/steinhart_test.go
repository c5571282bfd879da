package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Typical PiFire probe profile (e.g. a Fireboard-style meat probe).
func testCoeffs() Coefficients {
	return Coefficients{
		Vs: 3.3, Rd: 10000,
		A: 0.7973425098945116e-3,
		B: 2.1807541433923e-4,
		C: 0.8089283529890004e-7,
	}
}

func TestTrToTempRoundTrip(t *testing.T) {
	c := testCoeffs()
	for _, r := range []float64{5000, 10000, 25000, 100000} {
		tempF, ok := TrToTemp(r, c)
		require.True(t, ok)

		rBack, ok := TempToTr(tempF, c)
		require.True(t, ok)
		assert.InEpsilon(t, r, rBack, 0.05, "round trip for R=%v", r)
	}
}

func TestResistanceFromVoltageOpenShort(t *testing.T) {
	c := testCoeffs()
	assert.True(t, isInf(c.ResistanceFromVoltage(0)))
	assert.Equal(t, 0.0, c.ResistanceFromVoltage(c.Vs))
	assert.Equal(t, 0.0, c.ResistanceFromVoltage(c.Vs*2))
}

func isInf(f float64) bool { return f > 1e300 }

func TestCalcSteinhartHartCoefficientsRecoversKnownCurve(t *testing.T) {
	c := testCoeffs()
	// Pick three calibration points on the known curve and re-derive A/B/C.
	t1, okA := TrToTemp(5000, c)
	t2, okB := TrToTemp(25000, c)
	t3, okC := TrToTemp(100000, c)
	require.True(t, okA)
	require.True(t, okB)
	require.True(t, okC)

	a, b, cc, ok := CalcSteinhartHartCoefficients(t1, t2, t3, 5000, 25000, 100000)
	require.True(t, ok)
	assert.InEpsilon(t, c.A, a, 1e-3)
	assert.InEpsilon(t, c.B, b, 1e-3)
	assert.InEpsilon(t, c.C, cc, 1e-2)
}
