package model

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Path is one simulated price trajectory: index 0 is the spot, the last
// index is the terminal price. Paths are never modified after generation.
type Path []float64

// Terminal returns S_T.
func (p Path) Terminal() float64 { return p[len(p)-1] }

// Max returns the running maximum including S0.
func (p Path) Max() float64 { return floats.Max(p) }

// Min returns the running minimum including S0.
func (p Path) Min() float64 { return floats.Min(p) }

// Mean returns the arithmetic average of all n+1 sampled prices.
func (p Path) Mean() float64 { return stat.Mean(p, nil) }

// GeometricMean returns exp(mean(ln S_k)) over all n+1 sampled prices.
func (p Path) GeometricMean() float64 { return stat.GeometricMean(p, nil) }
