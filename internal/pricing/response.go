package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/atmx/exotics-engine/internal/model"
)

// Scale is the number of decimal places money values are rounded to.
const Scale = 8

// IntervalResponse is a 95% confidence interval on the JSON surface.
type IntervalResponse struct {
	Lower *decimal.Decimal `json:"lower"`
	Upper *decimal.Decimal `json:"upper"`
}

// PriceResponse is the JSON body returned from POST /price.
type PriceResponse struct {
	Variant            string           `json:"variant"`
	Price              *decimal.Decimal `json:"price"`
	ConfidenceInterval IntervalResponse `json:"confidence_interval"`
	StdError           *decimal.Decimal `json:"std_error"`
	RawPrice           *decimal.Decimal `json:"raw_price"`
	Beta               *decimal.Decimal `json:"beta"`
	AnalyticalPrice    *decimal.Decimal `json:"analytical_price,omitempty"`
	Seed               uint64           `json:"seed"`
	PayoffCount        int              `json:"payoff_count"`
	Paths              []model.Path     `json:"paths"`
	Greeks             *GreeksResponse  `json:"greeks,omitempty"`
	Risk               *RiskResponse    `json:"risk,omitempty"`
	UndefinedMetrics   []string         `json:"undefined_metrics,omitempty"`

	// Set only when pricing a stored instrument.
	InstrumentID  string           `json:"instrument_id,omitempty"`
	NotionalValue *decimal.Decimal `json:"notional_value,omitempty"`
}

// GreeksResponse carries sensitivities; undefined ones are null.
type GreeksResponse struct {
	Delta *decimal.Decimal `json:"delta"`
	Gamma *decimal.Decimal `json:"gamma"`
	Theta *decimal.Decimal `json:"theta"`
	Vega  *decimal.Decimal `json:"vega"`
	Rho   *decimal.Decimal `json:"rho"`
}

// RiskResponse carries the risk metrics; undefined ones are null.
type RiskResponse struct {
	VaR95   *decimal.Decimal `json:"var95"`
	Sharpe  *decimal.Decimal `json:"sharpe_ratio"`
	Sortino *decimal.Decimal `json:"sortino_ratio"`
}

// GreeksOnlyResponse is the JSON body returned from POST /greeks.
type GreeksOnlyResponse struct {
	Variant          string          `json:"variant"`
	Seed             uint64          `json:"seed"`
	Greeks           *GreeksResponse `json:"greeks"`
	UndefinedMetrics []string        `json:"undefined_metrics,omitempty"`
}

// RiskOnlyResponse is the JSON body returned from POST /risk.
type RiskOnlyResponse struct {
	Variant          string        `json:"variant"`
	Seed             uint64        `json:"seed"`
	Risk             *RiskResponse `json:"risk"`
	UndefinedMetrics []string      `json:"undefined_metrics,omitempty"`
}

// AnalyticalResponse is the JSON body returned from POST /analytical.
type AnalyticalResponse struct {
	Variant string           `json:"variant"`
	Price   *decimal.Decimal `json:"price"`
}

// dec rounds x to Scale places. NaN and ±Inf have no decimal form and
// render as JSON null.
func dec(x float64) *decimal.Decimal {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	d := decimal.NewFromFloat(x).Round(Scale)
	return &d
}

func greeksResponse(g *model.GreeksResult) *GreeksResponse {
	return &GreeksResponse{
		Delta: dec(g.Delta),
		Gamma: dec(g.Gamma),
		Theta: dec(g.Theta),
		Vega:  dec(g.Vega),
		Rho:   dec(g.Rho),
	}
}

func riskResponse(r model.RiskMetricsResult) *RiskResponse {
	return &RiskResponse{
		VaR95:   dec(r.VaR95),
		Sharpe:  dec(r.Sharpe),
		Sortino: dec(r.Sortino),
	}
}

// samplePaths bounds the paths echoed back to the client.
func samplePaths(paths []model.Path, limit int) []model.Path {
	if limit < 0 {
		limit = 0
	}
	return paths[:min(limit, len(paths))]
}
