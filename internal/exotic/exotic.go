// Package exotic prices Asian, Barrier and Lookback options by Monte Carlo.
//
// A pricing run has two stages:
//   - montecarlo.GeneratePaths simulates the path set
//   - Evaluate dispatches on the option family and turns the paths into
//     discounted payoffs, a price and a 95% confidence interval
//
// Discounting is e^{−rT} applied uniformly to every path payoff. Barrier
// and lookback prices carry a continuous-monitoring correction when
// ContinuityCorrection is set; Asian arithmetic prices use the geometric
// control variate when ControlVariate is set.
package exotic

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/atmx/exotics-engine/internal/model"
	"github.com/atmx/exotics-engine/internal/montecarlo"
)

// ContinuityBeta is the Broadie–Glasserman–Kou constant −ζ(1/2)/√(2π).
const ContinuityBeta = 0.5826

var ErrInvalidBarrier = errors.New("exotic: invalid barrier")

// Price validates p, simulates a fresh path set from rng and evaluates it.
func Price(p model.SimulationParameters, rng *rand.Rand) (*model.PricingResult, error) {
	if err := check(p); err != nil {
		return nil, err
	}
	paths := montecarlo.GeneratePaths(p, rng)
	return evaluate(p, paths), nil
}

// Evaluate prices p on an existing path set. Paths must have been generated
// with the same spot, steps and maturity as p.
func Evaluate(p model.SimulationParameters, paths []model.Path) (*model.PricingResult, error) {
	if err := check(p); err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: empty path set", model.ErrInvalidParameters)
	}
	for i, path := range paths {
		if len(path) != p.Steps+1 {
			return nil, fmt.Errorf("%w: path %d has %d points, want %d", model.ErrInvalidParameters, i, len(path), p.Steps+1)
		}
	}
	return evaluate(p, paths), nil
}

func check(p model.SimulationParameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Option.Family == model.FamilyBarrier {
		return ValidateBarrier(p.Spot, *p.Option.Barrier)
	}
	return nil
}

func evaluate(p model.SimulationParameters, paths []model.Path) *model.PricingResult {
	var res *model.PricingResult
	switch p.Option.Family {
	case model.FamilyAsian:
		res = evaluateAsian(p, paths)
	case model.FamilyBarrier:
		res = evaluateBarrier(p, paths)
	case model.FamilyLookback:
		res = evaluateLookback(p, paths)
	}
	res.Paths = paths
	return res
}

// ValidateBarrier rejects up barriers at or below spot and down barriers at
// or above spot.
func ValidateBarrier(spot float64, b model.BarrierSpec) error {
	if !(b.Level > 0) || math.IsInf(b.Level, 0) {
		return fmt.Errorf("%w: level must be positive, got %v", ErrInvalidBarrier, b.Level)
	}
	switch b.Direction {
	case model.Up:
		if b.Level <= spot {
			return fmt.Errorf("%w: up barrier %v must be above spot %v", ErrInvalidBarrier, b.Level, spot)
		}
	case model.Down:
		if b.Level >= spot {
			return fmt.Errorf("%w: down barrier %v must be below spot %v", ErrInvalidBarrier, b.Level, spot)
		}
	default:
		return fmt.Errorf("%w: direction %q", ErrInvalidBarrier, b.Direction)
	}
	return nil
}

// vanilla returns the undiscounted European payoff on x.
func vanilla(x, k float64, typ model.OptionType) float64 {
	if typ == model.Put {
		return math.Max(k-x, 0)
	}
	return math.Max(x-k, 0)
}

// continuityShift returns β·σ·√dt.
func continuityShift(p model.SimulationParameters) float64 {
	return ContinuityBeta * p.Volatility * math.Sqrt(p.Dt())
}
