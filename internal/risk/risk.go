// Package risk computes summary risk statistics from the terminal prices of
// one simulated path set.
//
// All metrics are computed on log-returns R_i = ln(S_T,i / S0):
//   - VaR95: −R_(k), the nearest-rank 5th percentile with k = ⌈0.05·m⌉
//   - Sharpe: (mean(R) − r) / sd(R), sample standard deviation
//   - Sortino: (mean(R) − r) / √(Σ_{R_i<0} R_i² / #{R_i<0})
//
// A metric whose denominator is zero (or that has no samples) is NaN and
// named in RiskMetricsResult.Undefined.
package risk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/atmx/exotics-engine/internal/model"
)

// Confidence is the VaR confidence level.
const Confidence = 0.95

// Names used in RiskMetricsResult.Undefined.
const (
	VaR95   = "var95"
	Sharpe  = "sharpe_ratio"
	Sortino = "sortino_ratio"
)

// Compute returns the risk metrics of paths against the risk-free rate.
func Compute(paths []model.Path, spot, rate float64) model.RiskMetricsResult {
	returns := LogReturns(paths, spot)
	nan := math.NaN()
	res := model.RiskMetricsResult{VaR95: nan, Sharpe: nan, Sortino: nan}

	if len(returns) == 0 {
		res.Undefined = []string{VaR95, Sharpe, Sortino}
		return res
	}

	res.VaR95 = ValueAtRisk(returns, Confidence)

	mean, std := nan, nan
	if len(returns) > 1 {
		mean, std = stat.MeanStdDev(returns, nil)
	} else {
		mean = returns[0]
	}
	excess := mean - rate

	// Constant samples have zero dispersion regardless of rounding in std.
	if std > 0 && floats.Max(returns) > floats.Min(returns) {
		res.Sharpe = excess / std
	} else {
		res.Undefined = append(res.Undefined, Sharpe)
	}

	if dd := DownsideDeviation(returns); dd > 0 {
		res.Sortino = excess / dd
	} else {
		res.Undefined = append(res.Undefined, Sortino)
	}
	return res
}

// LogReturns returns ln(S_T/S0) for every path.
func LogReturns(paths []model.Path, spot float64) []float64 {
	out := make([]float64, len(paths))
	for i, p := range paths {
		out[i] = math.Log(p.Terminal() / spot)
	}
	return out
}

// ValueAtRisk returns the negated nearest-rank (1−confidence) quantile of
// returns, without interpolation. returns is not modified.
func ValueAtRisk(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	rank := int(math.Ceil((1-confidence)*float64(len(sorted)) - 1e-9))
	if rank < 1 {
		rank = 1
	}
	return -sorted[rank-1]
}

// DownsideDeviation returns √(Σ R_i² / n_neg) over the negative returns,
// or 0 when none are negative.
func DownsideDeviation(returns []float64) float64 {
	var neg []float64
	for _, r := range returns {
		if r < 0 {
			neg = append(neg, r)
		}
	}
	if len(neg) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(neg, neg) / float64(len(neg)))
}
