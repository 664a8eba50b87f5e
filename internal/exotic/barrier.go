package exotic

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/atmx/exotics-engine/internal/model"
)

// evaluateBarrier prices a single-barrier option from the full path scan.
//
// The continuous-monitoring correction re-evaluates the same paths against
// a barrier moved toward spot by e^{β·σ·√dt}:
//
//	up:   H' = H·e^{−βσ√dt}
//	down: H' = H·e^{+βσ√dt}
//
// A discretely monitored barrier at H' approximates a continuously
// monitored one at H.
func evaluateBarrier(p model.SimulationParameters, paths []model.Path) *model.PricingResult {
	spec := *p.Option.Barrier
	raw := BarrierPayoffs(p, paths, spec.Level)
	if !p.ContinuityCorrection {
		return result(raw, stat.Mean(raw, nil))
	}

	shift := continuityShift(p)
	level := spec.Level * math.Exp(-shift)
	if spec.Direction == model.Down {
		level = spec.Level * math.Exp(shift)
	}
	return result(BarrierPayoffs(p, paths, level), stat.Mean(raw, nil))
}

// BarrierPayoffs returns the discounted payoffs of the barrier option in p
// with its level replaced by level. It does not modify p.
//
// A path breaches an up barrier when any point is ≥ level and a down
// barrier when any point is ≤ level. Knock-out options pay the vanilla
// payoff on unbreached paths, knock-in options on breached ones.
func BarrierPayoffs(p model.SimulationParameters, paths []model.Path, level float64) []float64 {
	spec := *p.Option.Barrier
	k, typ := p.Strike, p.Option.Type

	return discounted(p, paths, func(path model.Path) float64 {
		if breached(path, level, spec.Direction) == (spec.Knock == model.KnockIn) {
			return vanilla(path.Terminal(), k, typ)
		}
		return 0
	})
}

func breached(path model.Path, level float64, dir model.BarrierDirection) bool {
	if dir == model.Up {
		for _, s := range path {
			if s >= level {
				return true
			}
		}
		return false
	}
	for _, s := range path {
		if s <= level {
			return true
		}
	}
	return false
}
