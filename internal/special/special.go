// Package special provides the standard-normal distribution functions used
// throughout the simulation engine.
//
// Both functions are fixed-coefficient rational approximations rather than
// calls into math.Erf so that prices are reproducible against the reference
// tables the engine was validated with:
//   - NormalCDF: Abramowitz & Stegun 26.2.17, |error| < 7.5e-8
//   - NormalInverse: Acklam's algorithm, relative error < 1.15e-9
package special

import "math"

// Abramowitz & Stegun 26.2.17 coefficients.
const (
	asP  = 0.2316419
	asB1 = 0.319381530
	asB2 = -0.356563782
	asB3 = 1.781477937
	asB4 = -1.821255978
	asB5 = 1.330274429
)

// Acklam region boundaries.
const (
	pLow  = 0.02425
	pHigh = 1 - pLow
)

var (
	acklamA = [6]float64{
		-3.969683028665376e+01, 2.209460984245205e+02, -2.759285104469687e+02,
		1.383577518672690e+02, -3.066479806614716e+01, 2.506628277459239e+00,
	}
	acklamB = [5]float64{
		-5.447609879822406e+01, 1.615858368580409e+02, -1.556989798598866e+02,
		6.680131188771972e+01, -1.328068155288572e+01,
	}
	acklamC = [6]float64{
		-7.784894002430293e-03, -3.223964580411365e-01, -2.400758277161838e+00,
		-2.549732539343734e+00, 4.374664141464968e+00, 2.938163982698783e+00,
	}
	acklamD = [4]float64{
		7.784695709041462e-03, 3.224671290700398e-01, 2.445134137142996e+00,
		3.754408661907416e+00,
	}
)

var invSqrt2Pi = 1 / math.Sqrt(2*math.Pi)

// NormalPDF returns the standard normal density φ(x).
func NormalPDF(x float64) float64 {
	return invSqrt2Pi * math.Exp(-0.5*x*x)
}

// NormalCDF returns Φ(x) using the A&S polynomial in t = 1/(1+p|x|).
// The approximation is evaluated on |x| and reflected for negative x.
func NormalCDF(x float64) float64 {
	if math.IsNaN(x) {
		return math.NaN()
	}
	ax := math.Abs(x)
	t := 1 / (1 + asP*ax)
	poly := t * (asB1 + t*(asB2+t*(asB3+t*(asB4+t*asB5))))
	upper := NormalPDF(ax) * poly // 1 - Φ(|x|)
	if x >= 0 {
		return 1 - upper
	}
	return upper
}

// NormalInverse returns Φ⁻¹(p) for p in the open interval (0, 1).
// For p outside (0, 1) the result is NaN; callers are expected to draw
// p from an open uniform.
func NormalInverse(p float64) float64 {
	if !(p > 0 && p < 1) {
		return math.NaN()
	}

	switch {
	case p < pLow:
		q := math.Sqrt(-2 * math.Log(p))
		return tail(q)
	case p > pHigh:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -tail(q)
	default:
		q := p - 0.5
		r := q * q
		a, b := acklamA, acklamB
		num := (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q
		den := ((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1
		return num / den
	}
}

// tail evaluates the lower-tail rational function shared by both tails.
func tail(q float64) float64 {
	c, d := acklamC, acklamD
	num := ((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]
	den := (((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1
	return num / den
}
