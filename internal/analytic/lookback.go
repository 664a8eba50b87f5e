package analytic

import (
	"fmt"
	"math"

	"github.com/atmx/exotics-engine/internal/model"
	"github.com/atmx/exotics-engine/internal/special"
)

// LookbackFloating prices a floating-strike lookback at inception
// (S_min = S_max = S) with the Goldman–Sosin–Gatto formulas, b = r:
//
//	a1 = (r + σ²/2)√T/σ,  a2 = a1 − σ√T,  a3 = (σ²/2 − r)√T/σ
//	call = S·[N(a1) − σ²/(2r)·N(−a1) − e^{−rT}·(N(a2) − σ²/(2r)·N(−a3))]
//
//	b1 = (σ²/2 − r)√T/σ,  b2 = b1 − σ√T
//	put  = S·[e^{−rT}·(1 − σ²/(2r))·N(b1) + σ²/(2r)·N(−b2) − N(b2)]
//
// The formulas divide by r; r = 0 returns ErrUnsupported.
func LookbackFloating(s, r, sigma, t float64, typ model.OptionType) (float64, error) {
	if r == 0 {
		return 0, fmt.Errorf("%w: lookback closed form requires a non-zero rate", ErrUnsupported)
	}
	sqrtT := math.Sqrt(t)
	sigmaSqrtT := sigma * sqrtT
	k := sigma * sigma / (2 * r)
	df := math.Exp(-r * t)
	N := special.NormalCDF

	if typ == model.Put {
		b1 := (0.5*sigma*sigma - r) * sqrtT / sigma
		b2 := b1 - sigmaSqrtT
		return s * (df*(1-k)*N(b1) + k*N(-b2) - N(b2)), nil
	}

	a1 := (r + 0.5*sigma*sigma) * sqrtT / sigma
	a2 := a1 - sigmaSqrtT
	a3 := (0.5*sigma*sigma - r) * sqrtT / sigma
	return s * (N(a1) - k*N(-a1) - df*(N(a2)-k*N(-a3))), nil
}

// LookbackFixed prices a fixed-strike lookback at inception
// (S_min = S_max = S) with the Conze–Viswanathan formulas, b = r.
//
// Call, K > S_max:
//
//	S·N(d1) − K·e^{−rT}·N(d2) + S·e^{−rT}·σ²/(2r)·[−(S/K)^{−2r/σ²}·N(d1 − 2r√T/σ) + e^{rT}·N(d1)]
//
// Call, K ≤ S_max: the same with K replaced by S_max, plus e^{−rT}·(S_max − K).
// The put mirrors both branches around S_min.
//
// The formulas divide by r; r = 0 returns ErrUnsupported.
func LookbackFixed(s, k, r, sigma, t float64, typ model.OptionType) (float64, error) {
	if r == 0 {
		return 0, fmt.Errorf("%w: lookback closed form requires a non-zero rate", ErrUnsupported)
	}
	extremum := s // S_max for calls, S_min for puts

	if typ == model.Put {
		if k < extremum {
			return fixedPut(s, k, r, sigma, t), nil
		}
		return math.Exp(-r*t)*(k-extremum) + fixedPut(s, extremum, r, sigma, t), nil
	}
	if k > extremum {
		return fixedCall(s, k, r, sigma, t), nil
	}
	return math.Exp(-r*t)*(extremum-k) + fixedCall(s, extremum, r, sigma, t), nil
}

// fixedCall is the K > S_max branch of the Conze–Viswanathan call.
func fixedCall(s, k, r, sigma, t float64) float64 {
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT
	df := math.Exp(-r * t)
	ratio := sigma * sigma / (2 * r)
	N := special.NormalCDF

	return s*N(d1) - k*df*N(d2) +
		s*df*ratio*(-math.Pow(s/k, -2*r/(sigma*sigma))*N(d1-2*r*sqrtT/sigma)+math.Exp(r*t)*N(d1))
}

// fixedPut is the K < S_min branch of the Conze–Viswanathan put.
func fixedPut(s, k, r, sigma, t float64) float64 {
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT
	df := math.Exp(-r * t)
	ratio := sigma * sigma / (2 * r)
	N := special.NormalCDF

	return -s*N(-d1) + k*df*N(-d2) +
		s*df*ratio*(math.Pow(s/k, -2*r/(sigma*sigma))*N(-d1+2*r*sqrtT/sigma)-math.Exp(r*t)*N(-d1))
}
