package probe

import "math"

// Units selects the temperature scale settings.units carries.
type Units int

const (
	Fahrenheit Units = iota
	Celsius
)

// Coefficients is the Steinhart-Hart A/B/C triple plus the divider
// parameters needed to turn a measured voltage into a resistance, as
// loaded from settings.probe_profiles.
type Coefficients struct {
	Vs      float64 // divider supply voltage
	Rd      float64 // divider resistor, ohms
	A, B, C float64
}

// ResistanceFromVoltage applies the voltage-divider equation
// R = Rd * (Vs/Vmeasured - 1). Returns +Inf for Vmeasured<=0 (open probe)
// and 0 for Vmeasured>=Vs (shorted probe), both of which the caller must
// treat as a degraded reading rather than feeding to Steinhart-Hart.
func (c Coefficients) ResistanceFromVoltage(vMeasured float64) float64 {
	if vMeasured <= 0 {
		return math.Inf(1)
	}
	if vMeasured >= c.Vs {
		return 0
	}
	return c.Rd * (c.Vs/vMeasured - 1)
}

// TempKelvin applies the Steinhart-Hart equation
// 1/T = A + B*ln(R) + C*ln(R)^3.
func (c Coefficients) TempKelvin(r float64) (float64, bool) {
	if r <= 0 || math.IsInf(r, 0) {
		return 0, false
	}
	lnR := math.Log(r)
	invT := c.A + c.B*lnR + c.C*lnR*lnR*lnR
	if invT <= 0 {
		return 0, false
	}
	t := 1 / invT
	if t <= 0 || math.IsNaN(t) {
		return 0, false
	}
	return t, true
}

// TempF converts a Kelvin reading to Fahrenheit.
func TempF(tempK float64) float64 {
	return (tempK-273.15)*9/5 + 32
}

// TempC converts a Kelvin reading to Celsius.
func TempC(tempK float64) float64 {
	return tempK - 273.15
}

// TrToTemp converts a raw resistance reading directly to a Fahrenheit
// temperature. Returns ok=false on a physically implausible result
// (open/shorted probe); callers fall back to the last valid average.
func TrToTemp(tr float64, c Coefficients) (tempF float64, ok bool) {
	tk, ok := c.TempKelvin(tr)
	if !ok {
		return 0, false
	}
	return TempF(tk), true
}

// TempToTr is the numerically ill-conditioned inverse of TrToTemp, used
// only by calibration/tuning tooling.
func TempToTr(tempF float64, c Coefficients) (resistance float64, ok bool) {
	tempK := (tempF-32)*(5.0/9.0) + 273.15
	if c.C == 0 || tempK == 0 {
		return 0, false
	}
	x := (1 / (2 * c.C)) * (c.A - (1 / tempK))
	inner := math.Pow(c.B/(3*c.C), 3) + x*x
	if inner < 0 {
		return 0, false
	}
	y := math.Sqrt(inner)
	a := y - x
	b := y + x
	if a < 0 || b < 0 {
		// cube root of a negative number in the real domain
		return 0, false
	}
	tr := math.Exp(math.Cbrt(a) - math.Cbrt(b))
	return tr, true
}

// CalcSteinhartHartCoefficients derives A, B, C from three
// (temperature-F, resistance-ohm) calibration points. Used by calibration
// tooling, not the hot control-loop path; kept here because it shares the
// same math.
func CalcSteinhartHartCoefficients(t1, t2, t3, r1, r2, r3 float64) (a, b, c float64, ok bool) {
	toK := func(f float64) float64 { return (f-32)*(5.0/9.0) + 273.15 }
	t1k, t2k, t3k := toK(t1), toK(t2), toK(t3)

	l1, l2, l3 := math.Log(r1), math.Log(r2), math.Log(r3)
	y1, y2, y3 := 1/t1k, 1/t2k, 1/t3k

	if l2 == l1 || l3 == l1 || l3 == l2 {
		return 0, 0, 0, false
	}

	g2 := (y2 - y1) / (l2 - l1)
	g3 := (y3 - y1) / (l3 - l1)

	denom := l1 + l2 + l3
	if denom == 0 {
		return 0, 0, 0, false
	}
	c = ((g3 - g2) / (l3 - l2)) / denom
	b = g2 - c*(l1*l1+l1*l2+l2*l2)
	a = y1 - (b+l1*l1*c)*l1

	if math.IsNaN(a) || math.IsNaN(b) || math.IsNaN(c) {
		return 0, 0, 0, false
	}
	return a, b, c, true
}
