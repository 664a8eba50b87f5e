// Package budget enforces simulation workload limits before a pricing
// request reaches the engine.
//
// The engine itself is a blocking, uncancellable computation whose cost is
// proportional to paths × steps × runs (a Greeks request performs six runs),
// so the service rejects oversized requests up front instead of aborting
// them midway.
package budget

import (
	"errors"
	"fmt"

	"github.com/atmx/exotics-engine/internal/model"
)

var (
	// ErrPathLimitExceeded is returned when a request asks for more paths
	// than a single run may simulate.
	ErrPathLimitExceeded = errors.New("budget: path limit exceeded")

	// ErrStepLimitExceeded is returned when a request asks for more time
	// steps than a single path may carry.
	ErrStepLimitExceeded = errors.New("budget: step limit exceeded")

	// ErrWorkloadExceeded is returned when the aggregate number of simulated
	// price points across all runs of a request exceeds the maximum.
	ErrWorkloadExceeded = errors.New("budget: workload limit exceeded")
)

// Limiter enforces per-run and aggregate workload limits. A zero limit
// disables that check.
type Limiter struct {
	// MaxPaths is the maximum path count of any single run.
	MaxPaths int

	// MaxSteps is the maximum step count of any single run.
	MaxSteps int

	// MaxWorkload caps paths × steps summed over every run a request
	// triggers.
	MaxWorkload int64
}

// NewLimiter creates a limiter. Negative limits are treated as zero
// (unlimited).
func NewLimiter(maxPaths, maxSteps int, maxWorkload int64) *Limiter {
	return &Limiter{
		MaxPaths:    max(maxPaths, 0),
		MaxSteps:    max(maxSteps, 0),
		MaxWorkload: max(maxWorkload, 0),
	}
}

// CheckLimit validates whether a request that performs `runs` simulations
// with the given parameters fits the budget.
//
// Returns nil if the request is within limits, or an error describing the
// violation.
func (l *Limiter) CheckLimit(p model.SimulationParameters, runs int) error {
	// 1. Per-run limits.
	if l.MaxPaths > 0 && p.Paths > l.MaxPaths {
		return fmt.Errorf("%w: %d paths > %d", ErrPathLimitExceeded, p.Paths, l.MaxPaths)
	}
	if l.MaxSteps > 0 && p.Steps > l.MaxSteps {
		return fmt.Errorf("%w: %d steps > %d", ErrStepLimitExceeded, p.Steps, l.MaxSteps)
	}

	// 2. Aggregate workload across runs.
	if runs < 1 {
		runs = 1
	}
	workload := Workload(p) * int64(runs)
	if l.MaxWorkload > 0 && workload > l.MaxWorkload {
		return fmt.Errorf("%w: %d price points > %d", ErrWorkloadExceeded, workload, l.MaxWorkload)
	}

	return nil
}

// Workload returns the number of simulated price points of one run.
func Workload(p model.SimulationParameters) int64 {
	return int64(p.Paths) * int64(p.Steps)
}
