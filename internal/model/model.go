// Package model defines the core domain types shared across the pricing engine.
// The numeric core works in float64; values that leave the engine as money
// (instrument notionals, quoted prices) are carried as shopspring/decimal.
package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidParameters is returned when simulation parameters violate their
// basic domain (non-positive spot, zero steps, missing sub-configuration...).
var ErrInvalidParameters = errors.New("model: invalid simulation parameters")

// OptionType is the exercise direction.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// Family selects the payoff evaluator.
type Family string

const (
	FamilyAsian    Family = "asian"
	FamilyBarrier  Family = "barrier"
	FamilyLookback Family = "lookback"
)

// AverageType selects how an Asian option averages the path.
type AverageType string

const (
	Arithmetic AverageType = "arithmetic"
	Geometric  AverageType = "geometric"
)

// BarrierDirection is the side of spot the barrier sits on.
type BarrierDirection string

const (
	Up   BarrierDirection = "up"
	Down BarrierDirection = "down"
)

// KnockType says whether touching the barrier activates or kills the option.
type KnockType string

const (
	KnockIn  KnockType = "in"
	KnockOut KnockType = "out"
)

// LookbackType selects what the path extremum is compared against.
type LookbackType string

const (
	FixedStrike    LookbackType = "fixed"
	FloatingStrike LookbackType = "floating"
)

// AsianSpec configures an Asian option.
type AsianSpec struct {
	Average AverageType `json:"average"`
}

// BarrierSpec configures a barrier option.
type BarrierSpec struct {
	Level     float64          `json:"level"`
	Direction BarrierDirection `json:"direction"`
	Knock     KnockType        `json:"knock"`
}

// LookbackSpec configures a lookback option.
type LookbackSpec struct {
	Strike LookbackType `json:"strike"`
}

// Option is a tagged union over the three exotic families. Exactly one of
// Asian, Barrier or Lookback is set, matching Family.
type Option struct {
	Family   Family        `json:"family"`
	Type     OptionType    `json:"type"`
	Asian    *AsianSpec    `json:"asian,omitempty"`
	Barrier  *BarrierSpec  `json:"barrier,omitempty"`
	Lookback *LookbackSpec `json:"lookback,omitempty"`
}

// Variant renders the option back into its tag form, e.g.
// "barrier-up-out-call" or "lookback-floating-put".
func (o Option) Variant() string {
	switch o.Family {
	case FamilyBarrier:
		if o.Barrier != nil {
			return fmt.Sprintf("barrier-%s-%s-%s", o.Barrier.Direction, o.Barrier.Knock, o.Type)
		}
	case FamilyLookback:
		if o.Lookback != nil {
			return fmt.Sprintf("lookback-%s-%s", o.Lookback.Strike, o.Type)
		}
	case FamilyAsian:
		return fmt.Sprintf("asian-%s", o.Type)
	}
	return string(o.Family)
}

// SimulationParameters fully describes one pricing run.
type SimulationParameters struct {
	Spot       float64 `json:"spot"`
	Strike     float64 `json:"strike"`
	Volatility float64 `json:"volatility"`
	Rate       float64 `json:"rate"`
	Maturity   float64 `json:"maturity"`
	Steps      int     `json:"steps"`
	Paths      int     `json:"paths"`

	Antithetic           bool `json:"antithetic"`
	Stratified           bool `json:"stratified"`
	JumpDiffusion        bool `json:"jump_diffusion"`
	ControlVariate       bool `json:"control_variate"`
	ContinuityCorrection bool `json:"continuity_correction"`

	// Seed drives the random source. Zero lets the caller pick one.
	Seed uint64 `json:"seed"`

	Option Option `json:"option"`
}

// Dt returns the time step T/n.
func (p SimulationParameters) Dt() float64 {
	return p.Maturity / float64(p.Steps)
}

// Validate checks the market and simulation inputs and that the option
// carries the sub-configuration its family needs. Barrier placement is
// checked by the barrier evaluator.
func (p SimulationParameters) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"spot", p.Spot},
		{"strike", p.Strike},
		{"volatility", p.Volatility},
		{"maturity", p.Maturity},
	}
	for _, f := range positive {
		if !(f.value > 0) || math.IsInf(f.value, 1) {
			return fmt.Errorf("%w: %s must be positive and finite, got %v", ErrInvalidParameters, f.name, f.value)
		}
	}
	if math.IsNaN(p.Rate) || math.IsInf(p.Rate, 0) {
		return fmt.Errorf("%w: rate must be finite", ErrInvalidParameters)
	}
	if p.Steps < 1 {
		return fmt.Errorf("%w: steps must be >= 1, got %d", ErrInvalidParameters, p.Steps)
	}
	if p.Paths < 1 {
		return fmt.Errorf("%w: paths must be >= 1, got %d", ErrInvalidParameters, p.Paths)
	}
	if p.Option.Type != Call && p.Option.Type != Put {
		return fmt.Errorf("%w: option type %q", ErrInvalidParameters, p.Option.Type)
	}

	switch p.Option.Family {
	case FamilyAsian:
		if p.Option.Asian == nil {
			return fmt.Errorf("%w: asian option without averaging spec", ErrInvalidParameters)
		}
		if a := p.Option.Asian.Average; a != Arithmetic && a != Geometric {
			return fmt.Errorf("%w: average type %q", ErrInvalidParameters, a)
		}
	case FamilyBarrier:
		b := p.Option.Barrier
		if b == nil {
			return fmt.Errorf("%w: barrier option without barrier spec", ErrInvalidParameters)
		}
		if b.Direction != Up && b.Direction != Down {
			return fmt.Errorf("%w: barrier direction %q", ErrInvalidParameters, b.Direction)
		}
		if b.Knock != KnockIn && b.Knock != KnockOut {
			return fmt.Errorf("%w: knock type %q", ErrInvalidParameters, b.Knock)
		}
	case FamilyLookback:
		if p.Option.Lookback == nil {
			return fmt.Errorf("%w: lookback option without lookback spec", ErrInvalidParameters)
		}
		if s := p.Option.Lookback.Strike; s != FixedStrike && s != FloatingStrike {
			return fmt.Errorf("%w: lookback type %q", ErrInvalidParameters, s)
		}
	default:
		return fmt.Errorf("%w: option family %q", ErrInvalidParameters, p.Option.Family)
	}
	return nil
}

// ConfidenceInterval is a 95% normal-approximation interval around a mean.
type ConfidenceInterval struct {
	Mean  float64 `json:"mean"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Contains reports whether x lies inside the closed interval.
func (ci ConfidenceInterval) Contains(x float64) bool {
	return x >= ci.Lower && x <= ci.Upper
}

// PricingResult is the unit returned by the payoff evaluators.
type PricingResult struct {
	Price    float64            `json:"price"`
	Interval ConfidenceInterval `json:"confidence_interval"`
	StdErr   float64            `json:"std_error"`

	// RawPrice is the estimate before any correction: the plain arithmetic
	// estimator when a control variate was applied, the discrete-monitoring
	// estimate for barrier and lookback options. Equal to Price otherwise.
	RawPrice float64 `json:"raw_price"`

	// Beta is the fitted control-variate coefficient (Asian only).
	Beta float64 `json:"beta"`

	Paths   []Path    `json:"-"`
	Payoffs []float64 `json:"-"`
}

// GreeksResult holds finite-difference sensitivities. A metric that could not
// be computed is NaN and its name is listed in Undefined.
type GreeksResult struct {
	Delta     float64  `json:"delta"`
	Gamma     float64  `json:"gamma"`
	Theta     float64  `json:"theta"`
	Vega      float64  `json:"vega"`
	Rho       float64  `json:"rho"`
	Undefined []string `json:"undefined,omitempty"`
}

// RiskMetricsResult holds summary statistics of terminal log-returns. A
// metric that could not be computed is NaN and listed in Undefined.
type RiskMetricsResult struct {
	VaR95     float64  `json:"var95"`
	Sharpe    float64  `json:"sharpe_ratio"`
	Sortino   float64  `json:"sortino_ratio"`
	Undefined []string `json:"undefined,omitempty"`
}

// Instrument is a named, reusable option definition. Only the definition is
// kept; simulation output is never persisted.
type Instrument struct {
	ID        string               `json:"id" db:"id"`
	Name      string               `json:"name" db:"name"`
	Variant   string               `json:"variant" db:"variant"`
	Notional  decimal.Decimal      `json:"notional" db:"notional"` // contract multiplier
	Params    SimulationParameters `json:"params" db:"params"`
	CreatedAt time.Time            `json:"created_at" db:"created_at"`
}
