package exotic

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/atmx/exotics-engine/internal/model"
)

// evaluateLookback prices a lookback option on the running extrema.
//
//	fixed call:    max(M − K, 0)     fixed put:    max(K − m, 0)
//	floating call: S_T − m           floating put: M − S_T
//
// with M and m the path maximum and minimum, S0 included. The
// continuous-monitoring correction scales every discounted payoff by
// e^{+βσ√dt} for calls and e^{−βσ√dt} for puts.
func evaluateLookback(p model.SimulationParameters, paths []model.Path) *model.PricingResult {
	k, typ := p.Strike, p.Option.Type
	floating := p.Option.Lookback.Strike == model.FloatingStrike

	payoffs := discounted(p, paths, func(path model.Path) float64 {
		switch {
		case floating && typ == model.Call:
			return path.Terminal() - path.Min()
		case floating:
			return path.Max() - path.Terminal()
		case typ == model.Call:
			return math.Max(path.Max()-k, 0)
		default:
			return math.Max(k-path.Min(), 0)
		}
	})
	raw := stat.Mean(payoffs, nil)
	if !p.ContinuityCorrection {
		return result(payoffs, raw)
	}

	factor := math.Exp(continuityShift(p))
	if typ == model.Put {
		factor = 1 / factor
	}
	for i := range payoffs {
		payoffs[i] *= factor
	}
	return result(payoffs, raw)
}
