package pricing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atmx/exotics-engine/internal/contract"
	"github.com/atmx/exotics-engine/internal/model"
)

// PriceRequest is the JSON body shared by /price, /greeks, /risk and
// /analytical.
type PriceRequest struct {
	Variant    string  `json:"variant"` // e.g. "barrier-up-out-call"
	Spot       float64 `json:"spot"`
	Strike     float64 `json:"strike"`
	Volatility float64 `json:"volatility"`
	Rate       float64 `json:"rate"`
	Maturity   float64 `json:"maturity"`
	Steps      int     `json:"steps"` // 0 → configured default
	Paths      int     `json:"paths"` // 0 → configured default

	Antithetic           bool  `json:"antithetic"`
	Stratified           bool  `json:"stratified"`
	JumpDiffusion        bool  `json:"jump_diffusion"`
	ControlVariate       bool  `json:"control_variate"`
	ContinuityCorrection *bool `json:"continuity_correction"` // nil → true

	Barrier     float64 `json:"barrier"`
	AverageType string  `json:"average_type"` // "arithmetic" (default) or "geometric"

	Seed          uint64 `json:"seed"` // 0 → time-derived, echoed back
	IncludeGreeks bool   `json:"include_greeks"`
	IncludeRisk   *bool  `json:"include_risk"` // nil → true
}

// Defaults fills path and step counts the request leaves at zero.
type Defaults struct {
	Paths int
	Steps int
}

// newSeed picks a seed for requests that did not supply one.
var newSeed = func() uint64 { return uint64(time.Now().UnixNano()) }

// Params converts the request into validated simulation parameters. The
// seed is left as given; see withSeed.
func (req *PriceRequest) Params(d Defaults) (model.SimulationParameters, error) {
	opt, err := contract.ParseVariant(req.Variant)
	if err != nil {
		return model.SimulationParameters{}, err
	}

	switch opt.Family {
	case model.FamilyAsian:
		switch strings.ToLower(req.AverageType) {
		case "", string(model.Arithmetic):
			opt.Asian.Average = model.Arithmetic
		case string(model.Geometric):
			opt.Asian.Average = model.Geometric
		default:
			return model.SimulationParameters{}, fmt.Errorf("%w: average_type %q", model.ErrInvalidParameters, req.AverageType)
		}
	case model.FamilyBarrier:
		opt.Barrier.Level = req.Barrier
	}

	p := model.SimulationParameters{
		Spot:                 req.Spot,
		Strike:               req.Strike,
		Volatility:           req.Volatility,
		Rate:                 req.Rate,
		Maturity:             req.Maturity,
		Steps:                req.Steps,
		Paths:                req.Paths,
		Antithetic:           req.Antithetic,
		Stratified:           req.Stratified,
		JumpDiffusion:        req.JumpDiffusion,
		ControlVariate:       req.ControlVariate,
		ContinuityCorrection: req.ContinuityCorrection == nil || *req.ContinuityCorrection,
		Seed:                 req.Seed,
		Option:               opt,
	}
	if p.Steps == 0 {
		p.Steps = d.Steps
	}
	if p.Paths == 0 {
		p.Paths = d.Paths
	}

	if err := p.Validate(); err != nil {
		return model.SimulationParameters{}, err
	}
	return p, nil
}

func (req *PriceRequest) includeRisk() bool {
	return req.IncludeRisk == nil || *req.IncludeRisk
}

// withSeed replaces a zero seed with a fresh one.
func withSeed(p model.SimulationParameters) model.SimulationParameters {
	if p.Seed == 0 {
		p.Seed = newSeed()
	}
	return p
}

// QuoteRequest is the optional body of POST /instruments/{id}/price.
type QuoteRequest struct {
	Seed          uint64 `json:"seed"`
	IncludeGreeks bool   `json:"include_greeks"`
	IncludeRisk   *bool  `json:"include_risk"`
}

// CreateInstrumentRequest is the JSON body for instrument creation.
type CreateInstrumentRequest struct {
	Name     string          `json:"name"`
	Notional decimal.Decimal `json:"notional"` // zero → 1
	PriceRequest
}
