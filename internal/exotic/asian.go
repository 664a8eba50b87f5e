package exotic

import (
	"gonum.org/v1/gonum/stat"

	"github.com/atmx/exotics-engine/internal/analytic"
	"github.com/atmx/exotics-engine/internal/model"
)

// evaluateAsian prices an average-rate Asian option. The average runs over
// all n+1 points of each path, S0 included.
//
// With the control variate enabled on an arithmetic option, each payoff is
// adjusted with the geometric payoff on the same path:
//
//	Y_i = A_i − β·(G_i − G*),   β = Cov(A, G) / Var(G)
//
// where G* is the closed-form discrete geometric Asian price. The control
// is skipped under jump diffusion, where G* is not the mean of G.
func evaluateAsian(p model.SimulationParameters, paths []model.Path) *model.PricingResult {
	k, typ := p.Strike, p.Option.Type

	if p.Option.Asian.Average == model.Geometric {
		payoffs := discounted(p, paths, func(path model.Path) float64 {
			return vanilla(path.GeometricMean(), k, typ)
		})
		return result(payoffs, stat.Mean(payoffs, nil))
	}

	arith := discounted(p, paths, func(path model.Path) float64 {
		return vanilla(path.Mean(), k, typ)
	})
	raw := stat.Mean(arith, nil)
	if !p.ControlVariate || p.JumpDiffusion || len(paths) < 2 {
		return result(arith, raw)
	}

	geom := discounted(p, paths, func(path model.Path) float64 {
		return vanilla(path.GeometricMean(), k, typ)
	})
	target := analytic.GeometricAsian(p.Spot, k, p.Rate, p.Volatility, p.Maturity, p.Steps, typ)
	beta := ControlBeta(arith, geom)

	adjusted := make([]float64, len(arith))
	for i := range arith {
		adjusted[i] = arith[i] - beta*(geom[i]-target)
	}
	res := result(adjusted, raw)
	res.Beta = beta
	return res
}

// ControlBeta returns the variance-minimising coefficient Cov(y, x)/Var(x).
// A control with zero variance gets β = 0.
func ControlBeta(y, x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	v := stat.Variance(x, nil)
	if v == 0 {
		return 0
	}
	return stat.Covariance(y, x, nil) / v
}
