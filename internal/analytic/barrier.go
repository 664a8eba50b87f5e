package analytic

import (
	"fmt"
	"math"

	"github.com/atmx/exotics-engine/internal/model"
	"github.com/atmx/exotics-engine/internal/special"
)

// Barrier prices a continuously monitored single-barrier option with the
// Reiner–Rubinstein reflection formulas (no rebate, b = r).
//
// With μ = (r − σ²/2)/σ² and a = (1+μ)σ√T:
//
//	x1 = ln(S/K)/(σ√T) + a       x2 = ln(S/H)/(σ√T) + a
//	y1 = ln(H²/(SK))/(σ√T) + a   y2 = ln(H/S)/(σ√T) + a
//
//	A = φS·N(φx1) − φK·e^{−rT}·N(φx1 − φσ√T)
//	B = φS·N(φx2) − φK·e^{−rT}·N(φx2 − φσ√T)
//	C = φS·(H/S)^{2(μ+1)}·N(ηy1) − φK·e^{−rT}·(H/S)^{2μ}·N(ηy1 − ησ√T)
//	D = φS·(H/S)^{2(μ+1)}·N(ηy2) − φK·e^{−rT}·(H/S)^{2μ}·N(ηy2 − ησ√T)
//
// Up-and-out call (η=−1, φ=1): A − B + C − D when K < H, else 0.
// Down-and-out put (η=1, φ=−1): A − B + C − D when K > H, else 0.
func Barrier(s, k, h, r, sigma, t float64, spec model.BarrierSpec, typ model.OptionType) (float64, error) {
	var phi, eta float64
	switch {
	case spec.Direction == model.Up && spec.Knock == model.KnockOut && typ == model.Call:
		if h <= s {
			return 0, fmt.Errorf("%w: up barrier %g at or below spot %g", ErrUnsupported, h, s)
		}
		if k >= h {
			return 0, nil
		}
		phi, eta = 1, -1
	case spec.Direction == model.Down && spec.Knock == model.KnockOut && typ == model.Put:
		if h >= s {
			return 0, fmt.Errorf("%w: down barrier %g at or above spot %g", ErrUnsupported, h, s)
		}
		if k <= h {
			return 0, nil
		}
		phi, eta = -1, 1
	default:
		return 0, fmt.Errorf("%w: barrier-%s-%s-%s", ErrUnsupported, spec.Direction, spec.Knock, typ)
	}

	sigmaSqrtT := sigma * math.Sqrt(t)
	mu := (r - 0.5*sigma*sigma) / (sigma * sigma)
	shift := (1 + mu) * sigmaSqrtT
	df := math.Exp(-r * t)

	x1 := math.Log(s/k)/sigmaSqrtT + shift
	x2 := math.Log(s/h)/sigmaSqrtT + shift
	y1 := math.Log(h*h/(s*k))/sigmaSqrtT + shift
	y2 := math.Log(h/s)/sigmaSqrtT + shift

	vanillaTerm := func(x float64) float64 {
		return phi*s*special.NormalCDF(phi*x) - phi*k*df*special.NormalCDF(phi*x-phi*sigmaSqrtT)
	}
	hs := h / s
	reflectedTerm := func(y float64) float64 {
		return phi*s*math.Pow(hs, 2*(mu+1))*special.NormalCDF(eta*y) -
			phi*k*df*math.Pow(hs, 2*mu)*special.NormalCDF(eta*y-eta*sigmaSqrtT)
	}

	price := vanillaTerm(x1) - vanillaTerm(x2) + reflectedTerm(y1) - reflectedTerm(y2)
	return math.Max(price, 0), nil
}
