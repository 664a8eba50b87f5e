// Package pricing provides the HTTP handlers for Monte Carlo valuation,
// Greeks, risk metrics, analytical reference prices, correlation utilities
// and the instrument registry.
//
// Values on the JSON surface are shopspring/decimal rounded to Scale places.
// Metrics that are undefined for the request come back as null and are
// named in undefined_metrics.
package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/rand"

	"github.com/atmx/exotics-engine/internal/analytic"
	"github.com/atmx/exotics-engine/internal/budget"
	"github.com/atmx/exotics-engine/internal/contract"
	"github.com/atmx/exotics-engine/internal/correlation"
	"github.com/atmx/exotics-engine/internal/exotic"
	"github.com/atmx/exotics-engine/internal/greeks"
	"github.com/atmx/exotics-engine/internal/metrics"
	"github.com/atmx/exotics-engine/internal/model"
	"github.com/atmx/exotics-engine/internal/montecarlo"
	"github.com/atmx/exotics-engine/internal/risk"
	"github.com/atmx/exotics-engine/internal/store"
)

// Options configures a Service.
type Options struct {
	Defaults     Defaults
	DisplayPaths int // maximum paths echoed per response
}

// Service handles pricing requests. Simulations are independent per request
// and share no mutable state, so handlers run concurrently.
type Service struct {
	store   store.Store
	limiter *budget.Limiter
	hub     *QuoteHub // optional WebSocket hub for quote broadcasts
	opts    Options
}

// NewService creates a new pricing service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, limiter *budget.Limiter, hub *QuoteHub, opts Options) *Service {
	if limiter == nil {
		limiter = budget.NewLimiter(0, 0, 0)
	}
	return &Service{
		store:   st,
		limiter: limiter,
		hub:     hub,
		opts:    opts,
	}
}

// Routes mounts the service's handlers on r. The quote hub's WebSocket
// endpoint is mounted separately so it escapes request timeouts.
func (s *Service) Routes(r chi.Router) {
	r.Get("/variants", s.ListVariants)
	r.Post("/price", s.Price)
	r.Post("/greeks", s.Greeks)
	r.Post("/risk", s.Risk)
	r.Post("/analytical", s.Analytical)

	r.Get("/instruments", s.ListInstruments)
	r.Post("/instruments", s.CreateInstrument)
	r.Get("/instruments/{instrumentID}", s.GetInstrument)
	r.Delete("/instruments/{instrumentID}", s.DeleteInstrument)
	r.Post("/instruments/{instrumentID}/price", s.PriceInstrument)

	r.Post("/correlation/validate", s.ValidateCorrelation)
	r.Post("/correlation/sample", s.SampleCorrelated)
}

// --- Valuation ---

// Price handles POST /api/v1/price
func (s *Service) Price(w http.ResponseWriter, r *http.Request) {
	var req PriceRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := req.Params(s.opts.Defaults)
	if err != nil {
		writeFailure(w, err)
		return
	}

	resp, err := s.quote(r, withSeed(p), req.IncludeGreeks, req.includeRisk())
	if err != nil {
		writeFailure(w, err)
		return
	}
	s.publish(resp, p.Paths)

	writeJSON(w, http.StatusOK, resp)
}

// quote runs the valuation and, on request, the Greeks and risk metrics.
func (s *Service) quote(r *http.Request, p model.SimulationParameters, withGreeks, withRisk bool) (*PriceResponse, error) {
	runs := 1
	if withGreeks {
		runs += greeks.Runs
	}
	if err := s.checkBudget(p, runs); err != nil {
		return nil, err
	}

	variant := p.Option.Variant()
	start := time.Now()
	res, err := exotic.Price(p, rand.New(rand.NewSource(p.Seed)))
	if err != nil {
		metrics.ObservePricing(variant, "rejected", p.Paths, time.Since(start))
		return nil, err
	}
	metrics.ObservePricing(variant, "ok", p.Paths, time.Since(start))

	resp := &PriceResponse{
		Variant: variant,
		Price:   dec(res.Price),
		ConfidenceInterval: IntervalResponse{
			Lower: dec(res.Interval.Lower),
			Upper: dec(res.Interval.Upper),
		},
		StdError:    dec(res.StdErr),
		RawPrice:    dec(res.RawPrice),
		Beta:        dec(res.Beta),
		Seed:        p.Seed,
		PayoffCount: len(res.Payoffs),
		Paths:       samplePaths(res.Paths, s.opts.DisplayPaths),
	}

	if ref, err := analytic.Price(p); err == nil {
		resp.AnalyticalPrice = dec(ref)
	} else if !errors.Is(err, analytic.ErrUnsupported) {
		return nil, err
	}

	if withGreeks {
		g, err := s.computeGreeks(r, p)
		if err != nil {
			return nil, err
		}
		resp.Greeks = greeksResponse(g)
		resp.UndefinedMetrics = append(resp.UndefinedMetrics, g.Undefined...)
	}

	if withRisk {
		m := risk.Compute(res.Paths, p.Spot, p.Rate)
		resp.Risk = riskResponse(m)
		resp.UndefinedMetrics = append(resp.UndefinedMetrics, m.Undefined...)
	}

	slog.Info("option priced",
		"variant", variant,
		"paths", p.Paths,
		"steps", p.Steps,
		"seed", p.Seed,
		"price", res.Price,
		"std_err", res.StdErr,
		"elapsed", time.Since(start),
	)
	return resp, nil
}

// Greeks handles POST /api/v1/greeks
func (s *Service) Greeks(w http.ResponseWriter, r *http.Request) {
	var req PriceRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := req.Params(s.opts.Defaults)
	if err != nil {
		writeFailure(w, err)
		return
	}
	p = withSeed(p)
	if err := s.checkBudget(p, greeks.Runs); err != nil {
		writeFailure(w, err)
		return
	}

	g, err := s.computeGreeks(r, p)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, GreeksOnlyResponse{
		Variant:          p.Option.Variant(),
		Seed:             p.Seed,
		Greeks:           greeksResponse(g),
		UndefinedMetrics: g.Undefined,
	})
}

func (s *Service) computeGreeks(r *http.Request, p model.SimulationParameters) (*model.GreeksResult, error) {
	start := time.Now()
	g, err := greeks.Compute(r.Context(), p)
	if err != nil {
		return nil, err
	}
	metrics.GreeksDuration.Observe(time.Since(start).Seconds())
	return g, nil
}

// Risk handles POST /api/v1/risk
// Metrics come from the terminal prices of one simulated path set; the
// payoff is not evaluated.
func (s *Service) Risk(w http.ResponseWriter, r *http.Request) {
	var req PriceRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := req.Params(s.opts.Defaults)
	if err != nil {
		writeFailure(w, err)
		return
	}
	p = withSeed(p)
	if err := s.checkBudget(p, 1); err != nil {
		writeFailure(w, err)
		return
	}

	paths := montecarlo.GeneratePaths(p, rand.New(rand.NewSource(p.Seed)))
	m := risk.Compute(paths, p.Spot, p.Rate)

	writeJSON(w, http.StatusOK, RiskOnlyResponse{
		Variant:          p.Option.Variant(),
		Seed:             p.Seed,
		Risk:             riskResponse(m),
		UndefinedMetrics: m.Undefined,
	})
}

// Analytical handles POST /api/v1/analytical
func (s *Service) Analytical(w http.ResponseWriter, r *http.Request) {
	var req PriceRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := req.Params(s.opts.Defaults)
	if err != nil {
		writeFailure(w, err)
		return
	}

	price, err := analytic.Price(p)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AnalyticalResponse{
		Variant: p.Option.Variant(),
		Price:   dec(price),
	})
}

// ListVariants handles GET /api/v1/variants
func (s *Service) ListVariants(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, contract.Variants())
}

// --- Instrument registry ---

// CreateInstrument handles POST /api/v1/instruments
func (s *Service) CreateInstrument(w http.ResponseWriter, r *http.Request) {
	var req CreateInstrumentRequest
	if !decode(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, "name is required", CodeInvalidRequest, http.StatusBadRequest)
		return
	}
	p, err := req.Params(s.opts.Defaults)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if p.Option.Family == model.FamilyBarrier {
		if err := exotic.ValidateBarrier(p.Spot, *p.Option.Barrier); err != nil {
			writeFailure(w, err)
			return
		}
	}

	notional := req.Notional
	if notional.IsZero() {
		notional = decimal.NewFromInt(1)
	}
	if notional.IsNegative() {
		writeError(w, "notional must be positive", CodeInvalidRequest, http.StatusBadRequest)
		return
	}

	inst := &model.Instrument{
		ID:        uuid.New().String(),
		Name:      name,
		Variant:   p.Option.Variant(),
		Notional:  notional,
		Params:    p,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateInstrument(r.Context(), inst); err != nil {
		writeFailure(w, err)
		return
	}

	slog.Info("instrument created",
		"id", inst.ID,
		"name", inst.Name,
		"variant", inst.Variant,
		"notional", notional.String(),
	)

	writeJSON(w, http.StatusCreated, inst)
}

// ListInstruments handles GET /api/v1/instruments
// Optionally filtered by ?variant=<tag>.
func (s *Service) ListInstruments(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListInstruments(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}

	if variant := r.URL.Query().Get("variant"); variant != "" {
		filtered := list[:0]
		for _, inst := range list {
			if inst.Variant == variant {
				filtered = append(filtered, inst)
			}
		}
		list = filtered
	}
	if list == nil {
		list = []model.Instrument{}
	}

	writeJSON(w, http.StatusOK, list)
}

// GetInstrument handles GET /api/v1/instruments/{instrumentID}
func (s *Service) GetInstrument(w http.ResponseWriter, r *http.Request) {
	inst, err := s.store.GetInstrument(r.Context(), chi.URLParam(r, "instrumentID"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

// DeleteInstrument handles DELETE /api/v1/instruments/{instrumentID}
func (s *Service) DeleteInstrument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "instrumentID")
	if err := s.store.DeleteInstrument(r.Context(), id); err != nil {
		writeFailure(w, err)
		return
	}
	slog.Info("instrument deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// PriceInstrument handles POST /api/v1/instruments/{instrumentID}/price
// The body is optional; a stored seed is used unless one is supplied.
func (s *Service) PriceInstrument(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "invalid request body", CodeInvalidRequest, http.StatusBadRequest)
		return
	}

	inst, err := s.store.GetInstrument(r.Context(), chi.URLParam(r, "instrumentID"))
	if err != nil {
		writeFailure(w, err)
		return
	}

	p := inst.Params
	if req.Seed != 0 {
		p.Seed = req.Seed
	}
	p = withSeed(p)

	resp, err := s.quote(r, p, req.IncludeGreeks, req.IncludeRisk == nil || *req.IncludeRisk)
	if err != nil {
		writeFailure(w, err)
		return
	}
	resp.InstrumentID = inst.ID
	if resp.Price != nil {
		v := resp.Price.Mul(inst.Notional).Round(Scale)
		resp.NotionalValue = &v
	}
	s.publish(resp, p.Paths)

	writeJSON(w, http.StatusOK, resp)
}

// --- Correlation ---

// CorrelationRequest is the body of the correlation endpoints. Normals are
// optional for /sample; when absent they are drawn with Seed.
type CorrelationRequest struct {
	Matrix  [][]float64 `json:"matrix"`
	Normals []float64   `json:"normals,omitempty"`
	Seed    uint64      `json:"seed,omitempty"`
}

// ValidationResponse reports whether a matrix is a valid correlation matrix.
type ValidationResponse struct {
	Valid    bool        `json:"valid"`
	Reason   string      `json:"reason,omitempty"`
	Cholesky [][]float64 `json:"cholesky,omitempty"`
}

// SampleResponse carries one vector of correlated draws.
type SampleResponse struct {
	Normals    []float64 `json:"normals"`
	Correlated []float64 `json:"correlated"`
	Seed       uint64    `json:"seed,omitempty"`
}

// ValidateCorrelation handles POST /api/v1/correlation/validate
// An invalid matrix is a successful answer, not an error.
func (s *Service) ValidateCorrelation(w http.ResponseWriter, r *http.Request) {
	var req CorrelationRequest
	if !decode(w, r, &req) {
		return
	}

	resp := ValidationResponse{Valid: true}
	if err := correlation.Validate(req.Matrix); err != nil {
		resp = ValidationResponse{Reason: err.Error()}
	} else if l, err := correlation.Cholesky(req.Matrix); err == nil {
		resp.Cholesky = l
	}

	writeJSON(w, http.StatusOK, resp)
}

// SampleCorrelated handles POST /api/v1/correlation/sample
func (s *Service) SampleCorrelated(w http.ResponseWriter, r *http.Request) {
	var req CorrelationRequest
	if !decode(w, r, &req) {
		return
	}
	if err := correlation.Validate(req.Matrix); err != nil {
		writeFailure(w, err)
		return
	}

	resp := SampleResponse{Normals: req.Normals}
	if len(resp.Normals) == 0 {
		seed := req.Seed
		if seed == 0 {
			seed = newSeed()
		}
		sampler := montecarlo.NewSampler(rand.New(rand.NewSource(seed)), false, false)
		resp.Normals = sampler.StandardNormals(len(req.Matrix))
		resp.Seed = seed
	}

	out, err := correlation.GenerateCorrelatedVariables(req.Matrix, resp.Normals)
	if err != nil {
		writeFailure(w, err)
		return
	}
	resp.Correlated = out

	writeJSON(w, http.StatusOK, resp)
}

// --- Helpers ---

func (s *Service) checkBudget(p model.SimulationParameters, runs int) error {
	if err := s.limiter.CheckLimit(p, runs); err != nil {
		metrics.BudgetRejections.Inc()
		slog.Warn("simulation rejected by budget",
			"variant", p.Option.Variant(),
			"paths", p.Paths,
			"steps", p.Steps,
			"runs", runs,
			"err", err,
		)
		return err
	}
	return nil
}

// publish broadcasts a quote to WebSocket clients.
func (s *Service) publish(resp *PriceResponse, paths int) {
	if s.hub == nil || resp.Price == nil {
		return
	}
	msg := QuoteMessage{
		Type:         "priced",
		Variant:      resp.Variant,
		InstrumentID: resp.InstrumentID,
		Price:        resp.Price.String(),
		Paths:        paths,
		Seed:         resp.Seed,
	}
	if resp.ConfidenceInterval.Lower != nil && resp.ConfidenceInterval.Upper != nil {
		msg.Lower = resp.ConfidenceInterval.Lower.String()
		msg.Upper = resp.ConfidenceInterval.Upper.String()
	}
	s.hub.Broadcast(msg)
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, fmt.Sprintf("invalid request body: %v", err), CodeInvalidRequest, http.StatusBadRequest)
		return false
	}
	return true
}
