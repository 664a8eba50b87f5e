// Package analytic provides closed-form reference prices for the exotic
// families, used as correctness cross-checks and as the control variate for
// arithmetic Asian options.
//
// All formulas assume GBM without dividends (cost of carry b = r) and
// continuous monitoring, except the geometric Asian price, which is exact
// for discrete averaging over n+1 equally spaced fixings including S0.
//
// Supported closed forms:
//   - Black–Scholes vanilla call and put
//   - discrete geometric-average Asian call and put
//   - up-and-out call and down-and-out put (Reiner–Rubinstein)
//   - floating-strike lookback call and put (Goldman–Sosin–Gatto)
//   - fixed-strike lookback call and put (Conze–Viswanathan)
//
// Any other combination returns ErrUnsupported so callers can fall back to
// the Monte Carlo estimate.
package analytic

import (
	"errors"
	"fmt"
	"math"

	"github.com/atmx/exotics-engine/internal/model"
	"github.com/atmx/exotics-engine/internal/special"
)

var ErrUnsupported = errors.New("analytic: no closed form for this option")

// Price returns the closed-form price for the option described by p.
//
// Arithmetic Asian options are quoted with the geometric closed form, which
// is a lower bound for the arithmetic price and the anchor of its control
// variate. Lookback formulas are evaluated at inception
// (running extremum = S0).
func Price(p model.SimulationParameters) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	o := p.Option

	switch o.Family {
	case model.FamilyAsian:
		return GeometricAsian(p.Spot, p.Strike, p.Rate, p.Volatility, p.Maturity, p.Steps, o.Type), nil
	case model.FamilyBarrier:
		return Barrier(p.Spot, p.Strike, o.Barrier.Level, p.Rate, p.Volatility, p.Maturity, *o.Barrier, o.Type)
	case model.FamilyLookback:
		if o.Lookback.Strike == model.FloatingStrike {
			return LookbackFloating(p.Spot, p.Rate, p.Volatility, p.Maturity, o.Type)
		}
		return LookbackFixed(p.Spot, p.Strike, p.Rate, p.Volatility, p.Maturity, o.Type)
	}
	return 0, fmt.Errorf("%w: family %q", ErrUnsupported, o.Family)
}

// BlackScholes returns the European vanilla price.
//
//	d1 = (ln(S/K) + (r + σ²/2)T) / (σ√T),  d2 = d1 − σ√T
//	call = S·N(d1) − K·e^{−rT}·N(d2)
//	put  = K·e^{−rT}·N(−d2) − S·N(−d1)
func BlackScholes(s, k, r, sigma, t float64, typ model.OptionType) float64 {
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT
	df := math.Exp(-r * t)

	if typ == model.Put {
		return k*df*special.NormalCDF(-d2) - s*special.NormalCDF(-d1)
	}
	return s*special.NormalCDF(d1) - k*df*special.NormalCDF(d2)
}

// GeometricAsian prices a geometric-average Asian option whose average runs
// over the n+1 fixings S_0, S_{T/n}, ..., S_T.
//
// ln G is normal with
//
//	mean     m = ln S + (r − σ²/2)·T/2
//	variance v = σ²·T·(2n+1) / (6(n+1))
//
// so the price is e^{−rT}·[e^{m+v/2}·N(d1) − K·N(d2)] for a call, with
// d1 = (m − ln K + v)/√v and d2 = d1 − √v.
func GeometricAsian(s, k, r, sigma, t float64, steps int, typ model.OptionType) float64 {
	n := float64(steps)
	m := math.Log(s) + (r-0.5*sigma*sigma)*t/2
	v := sigma * sigma * t * (2*n + 1) / (6 * (n + 1))
	sqrtV := math.Sqrt(v)

	d1 := (m - math.Log(k) + v) / sqrtV
	d2 := d1 - sqrtV
	forward := math.Exp(m + v/2)
	df := math.Exp(-r * t)

	if typ == model.Put {
		return df * (k*special.NormalCDF(-d2) - forward*special.NormalCDF(-d1))
	}
	return df * (forward*special.NormalCDF(d1) - k*special.NormalCDF(d2))
}

// AdjustedVolatility returns σ_adj = σ·√((2n+1)/(6(n+1))), the volatility of
// the discrete geometric average per unit √T.
func AdjustedVolatility(sigma float64, steps int) float64 {
	n := float64(steps)
	return sigma * math.Sqrt((2*n+1)/(6*(n+1)))
}
