package montecarlo

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/atmx/exotics-engine/internal/model"
)

// Merton jump-diffusion parameters.
const (
	JumpIntensity = 1.0  // λ, expected jumps per year
	JumpMean      = -0.1 // μ_J, mean log jump size
	JumpVol       = 0.2  // σ_J, log jump size volatility
)

// GeneratePaths simulates p.Paths price paths of p.Steps+1 points each
// under the Euler–Maruyama scheme
//
//	S_{t+dt} = S_t · exp((r - σ²/2)·dt + σ·√dt·Z [+ J])
//
// where J = μ_J + σ_J·Z_J with probability λ·dt and 0 otherwise.
//
// The sampler is invoked once per time step for a vector of p.Paths draws;
// path i takes draw i. Antithetic pairs and strata are therefore formed
// across paths within a step, not along the time axis of one path.
//
// Parameters are assumed validated. All paths share one backing array.
func GeneratePaths(p model.SimulationParameters, rng *rand.Rand) []model.Path {
	n, m := p.Steps, p.Paths
	dt := p.Dt()
	drift := (p.Rate - 0.5*p.Volatility*p.Volatility) * dt
	diffusion := p.Volatility * math.Sqrt(dt)
	jumpProb := JumpIntensity * dt

	points := n + 1
	backing := make([]float64, m*points)
	paths := make([]model.Path, m)
	for i := range paths {
		paths[i] = backing[i*points : (i+1)*points : (i+1)*points]
		paths[i][0] = p.Spot
	}

	sampler := NewSampler(rng, p.Antithetic, p.Stratified)
	for step := 1; step <= n; step++ {
		z := sampler.StandardNormals(m)
		for i, path := range paths {
			logReturn := drift + diffusion*z[i]
			if p.JumpDiffusion && sampler.uniform() < jumpProb {
				logReturn += JumpMean + JumpVol*sampler.Normal()
			}
			path[step] = path[step-1] * math.Exp(logReturn)
		}
	}
	return paths
}
