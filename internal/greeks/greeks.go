// Package greeks estimates option sensitivities by bump-and-reprice.
//
// Each sensitivity re-runs the full Monte Carlo pipeline under one relative
// bump of h = 1%, with its own independently seeded path set:
//
//	Delta = (P(S+) − P(S−)) / (2hS)
//	Gamma = (P(S+) − 2P + P(S−)) / (hS)²
//	Theta = −(P − P(T−)) / (hT)
//	Vega  = (P(σ+) − P) / (hσ)
//	Rho   = (P(r+) − P) / (hr)
//
// No random numbers are shared between runs, so every estimate carries its
// own Monte Carlo noise on top of the finite-difference bias.
package greeks

import (
	"context"
	"math"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"github.com/atmx/exotics-engine/internal/exotic"
	"github.com/atmx/exotics-engine/internal/model"
)

// Bump is the relative finite-difference step.
const Bump = 0.01

// Runs is the number of simulations Compute performs when the rate is
// non-zero.
const Runs = 6

// Names used in GreeksResult.Undefined.
const (
	Delta = "delta"
	Gamma = "gamma"
	Theta = "theta"
	Vega  = "vega"
	Rho   = "rho"
)

// run indices
const (
	base = iota
	spotUp
	spotDown
	shorter
	volUp
	rateUp
)

// Compute estimates the five Greeks of p. The runs execute concurrently;
// each run's seed is derived from p.Seed, so results are reproducible.
//
// With a zero rate, Rho is NaN, listed in Undefined, and its run is
// skipped. Cancelling ctx stops runs that have not started yet.
func Compute(ctx context.Context, p model.SimulationParameters) (*model.GreeksResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	bumped := [Runs]model.SimulationParameters{p, p, p, p, p, p}
	bumped[spotUp].Spot = p.Spot * (1 + Bump)
	bumped[spotDown].Spot = p.Spot * (1 - Bump)
	bumped[shorter].Maturity = p.Maturity * (1 - Bump)
	bumped[volUp].Volatility = p.Volatility * (1 + Bump)
	bumped[rateUp].Rate = p.Rate * (1 + Bump)

	runs := Runs
	if p.Rate == 0 {
		runs = rateUp
	}

	var prices [Runs]float64
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < runs; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := exotic.Price(bumped[i], rand.New(rand.NewSource(SubSeed(p.Seed, i))))
			if err != nil {
				return err
			}
			prices[i] = res.Price
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hS := Bump * p.Spot
	res := &model.GreeksResult{
		Delta: (prices[spotUp] - prices[spotDown]) / (2 * hS),
		Gamma: (prices[spotUp] - 2*prices[base] + prices[spotDown]) / (hS * hS),
		Theta: -(prices[base] - prices[shorter]) / (Bump * p.Maturity),
		Vega:  (prices[volUp] - prices[base]) / (Bump * p.Volatility),
		Rho:   math.NaN(),
	}
	if p.Rate == 0 {
		res.Undefined = append(res.Undefined, Rho)
	} else {
		res.Rho = (prices[rateUp] - prices[base]) / (Bump * p.Rate)
	}
	return res, nil
}

// SubSeed derives the seed of run i from the request seed with a
// SplitMix64 step, so sub-seeds are distinct and well mixed.
func SubSeed(seed uint64, i int) uint64 {
	z := seed + uint64(i+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
