// Package montecarlo generates geometric Brownian motion price paths with
// optional variance reduction and Merton jump diffusion.
//
// Every standard normal is produced by inverse-transform sampling,
// Z = Φ⁻¹(u), from an explicitly passed seedable source, so a run is fully
// reproducible from its seed.
package montecarlo

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/atmx/exotics-engine/internal/special"
)

// Sampler draws vectors of standard normals for one time step.
//
// Sampling modes:
//   - plain: count independent draws Φ⁻¹(U)
//   - stratified: draw i uses u = (i + U)/count, one draw per equal-probability bin
//   - antithetic: ceil(count/2) base draws followed by their negations,
//     truncated to count
//
// With both flags set, stratification applies to the halved base count
// before mirroring.
type Sampler struct {
	rng        *rand.Rand
	Antithetic bool
	Stratified bool
}

// NewSampler creates a sampler over rng.
func NewSampler(rng *rand.Rand, antithetic, stratified bool) *Sampler {
	return &Sampler{rng: rng, Antithetic: antithetic, Stratified: stratified}
}

// StandardNormals returns count standard normal draws.
//
// Stratified base draws are shuffled before mirroring so that, when the
// sampler is re-invoked once per time step, a given path index does not
// receive the same bin at every step.
func (s *Sampler) StandardNormals(count int) []float64 {
	if count <= 0 {
		return nil
	}

	base := count
	if s.Antithetic {
		base = (count + 1) / 2
	}

	draws := make([]float64, base, max(count, 2*base))
	if s.Stratified {
		for i := range draws {
			u := (float64(i) + s.uniform()) / float64(base)
			if u >= 1 {
				u = math.Nextafter(1, 0)
			}
			draws[i] = special.NormalInverse(u)
		}
		s.rng.Shuffle(base, func(i, j int) { draws[i], draws[j] = draws[j], draws[i] })
	} else {
		for i := range draws {
			draws[i] = s.Normal()
		}
	}

	if !s.Antithetic {
		return draws
	}
	for i := 0; i < base; i++ {
		draws = append(draws, -draws[i])
	}
	return draws[:count]
}

// Normal returns one independent standard normal draw.
func (s *Sampler) Normal() float64 {
	return special.NormalInverse(s.uniform())
}

// uniform returns a draw from the open interval (0, 1).
func (s *Sampler) uniform() float64 {
	for {
		if u := s.rng.Float64(); u > 0 {
			return u
		}
	}
}
