package exotic

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/atmx/exotics-engine/internal/model"
)

// z95 is the two-sided 95% normal quantile.
const z95 = 1.96

// ConfidenceInterval returns mean ± 1.96·s/√m and the standard error s/√m,
// with s the sample standard deviation. Fewer than two samples give a
// zero-width interval.
func ConfidenceInterval(samples []float64) (model.ConfidenceInterval, float64) {
	if len(samples) == 0 {
		nan := math.NaN()
		return model.ConfidenceInterval{Mean: nan, Lower: nan, Upper: nan}, nan
	}
	if len(samples) < 2 {
		return model.ConfidenceInterval{Mean: samples[0], Lower: samples[0], Upper: samples[0]}, 0
	}

	mean, std := stat.MeanStdDev(samples, nil)
	stderr := std / math.Sqrt(float64(len(samples)))
	return model.ConfidenceInterval{
		Mean:  mean,
		Lower: mean - z95*stderr,
		Upper: mean + z95*stderr,
	}, stderr
}

// result builds a PricingResult whose price is the mean of payoffs.
func result(payoffs []float64, raw float64) *model.PricingResult {
	ci, stderr := ConfidenceInterval(payoffs)
	return &model.PricingResult{
		Price:    ci.Mean,
		Interval: ci,
		StdErr:   stderr,
		RawPrice: raw,
		Payoffs:  payoffs,
	}
}

// discounted maps each path through payoff and multiplies by e^{−rT}.
func discounted(p model.SimulationParameters, paths []model.Path, payoff func(model.Path) float64) []float64 {
	df := math.Exp(-p.Rate * p.Maturity)
	out := make([]float64, len(paths))
	for i, path := range paths {
		out[i] = df * payoff(path)
	}
	return out
}
