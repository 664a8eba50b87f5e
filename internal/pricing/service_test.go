package pricing_test

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/atmx/exotics-engine/internal/budget"
	"github.com/atmx/exotics-engine/internal/model"
	"github.com/atmx/exotics-engine/internal/pricing"
	"github.com/atmx/exotics-engine/internal/store"
)

// newTestEnv creates a test Service with in-memory store and chi router.
func newTestEnv(t *testing.T, limiter *budget.Limiter) (*store.MemoryStore, chi.Router) {
	t.Helper()
	ms := store.NewMemoryStore()
	svc := pricing.NewService(ms, limiter, nil, pricing.Options{
		Defaults:     pricing.Defaults{Paths: 2000, Steps: 12},
		DisplayPaths: 3,
	})

	r := chi.NewRouter()
	r.Route("/api/v1", svc.Routes)
	return ms, r
}

func do(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, w.Code, w.Body.String())
	}
	var body map[string]string
	decodeBody(t, w, &body)
	if body["code"] != code {
		t.Errorf("expected code %q, got %q (%s)", code, body["code"], body["error"])
	}
	if body["error"] == "" {
		t.Error("expected non-empty error message")
	}
}

func atm(variant string) pricing.PriceRequest {
	return pricing.PriceRequest{
		Variant:    variant,
		Spot:       100,
		Strike:     100,
		Volatility: 0.2,
		Rate:       0.05,
		Maturity:   1,
		Seed:       42,
	}
}

func float(t *testing.T, d *decimal.Decimal) float64 {
	t.Helper()
	if d == nil {
		t.Fatal("expected non-null value")
	}
	f, _ := d.Float64()
	return f
}

// --- Price ---

func TestPrice_AsianCall(t *testing.T) {
	_, router := newTestEnv(t, nil)

	w := do(t, router, "POST", "/api/v1/price", atm("asian-call"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp pricing.PriceResponse
	decodeBody(t, w, &resp)

	price := float(t, resp.Price)
	if price <= 0 {
		t.Errorf("price should be positive, got %v", price)
	}
	lower, upper := float(t, resp.ConfidenceInterval.Lower), float(t, resp.ConfidenceInterval.Upper)
	if !(lower <= price && price <= upper) {
		t.Errorf("price %v outside interval [%v, %v]", price, lower, upper)
	}
	if resp.Seed != 42 {
		t.Errorf("expected seed 42 echoed, got %d", resp.Seed)
	}
	if resp.PayoffCount != 2000 {
		t.Errorf("expected default 2000 payoffs, got %d", resp.PayoffCount)
	}
	if len(resp.Paths) != 3 || len(resp.Paths[0]) != 13 {
		t.Errorf("expected 3 display paths of 13 points, got %d", len(resp.Paths))
	}
	if resp.Variant != "asian-call" {
		t.Errorf("expected variant asian-call, got %s", resp.Variant)
	}
	// The geometric closed form bounds the arithmetic price from below.
	if ref := float(t, resp.AnalyticalPrice); math.Abs(ref-5.4476) > 1e-3 {
		t.Errorf("expected analytical 5.4476, got %v", ref)
	}
	if resp.Risk == nil || resp.Risk.VaR95 == nil {
		t.Error("risk metrics should be included by default")
	}
	if resp.Greeks != nil {
		t.Error("greeks should be omitted unless requested")
	}
}

func TestPrice_Reproducible(t *testing.T) {
	_, router := newTestEnv(t, nil)
	req := atm("lookback-floating-put")

	var a, b pricing.PriceResponse
	decodeBody(t, do(t, router, "POST", "/api/v1/price", req), &a)
	decodeBody(t, do(t, router, "POST", "/api/v1/price", req), &b)

	if !a.Price.Equal(*b.Price) {
		t.Errorf("same seed should reproduce the price: %s vs %s", a.Price, b.Price)
	}
}

func TestPrice_ZeroSeedIsChosenAndEchoed(t *testing.T) {
	_, router := newTestEnv(t, nil)
	req := atm("asian-put")
	req.Seed = 0

	var resp pricing.PriceResponse
	decodeBody(t, do(t, router, "POST", "/api/v1/price", req), &resp)
	if resp.Seed == 0 {
		t.Error("expected a chosen non-zero seed")
	}

	// Replaying the echoed seed reproduces the quote.
	req.Seed = resp.Seed
	var again pricing.PriceResponse
	decodeBody(t, do(t, router, "POST", "/api/v1/price", req), &again)
	if !resp.Price.Equal(*again.Price) {
		t.Errorf("echoed seed did not reproduce: %s vs %s", resp.Price, again.Price)
	}
}

func TestPrice_WithGreeks(t *testing.T) {
	_, router := newTestEnv(t, nil)
	req := atm("asian-call")
	req.Rate = 0
	req.IncludeGreeks = true

	var resp pricing.PriceResponse
	decodeBody(t, do(t, router, "POST", "/api/v1/price", req), &resp)

	if resp.Greeks == nil || resp.Greeks.Delta == nil {
		t.Fatalf("expected greeks, got %+v", resp.Greeks)
	}
	if resp.Greeks.Rho != nil {
		t.Errorf("rho should be null at zero rate, got %s", resp.Greeks.Rho)
	}
	if !slices.Contains(resp.UndefinedMetrics, "rho") {
		t.Errorf("expected rho in undefined_metrics, got %v", resp.UndefinedMetrics)
	}
}

func TestPrice_InvalidVariant(t *testing.T) {
	_, router := newTestEnv(t, nil)
	w := do(t, router, "POST", "/api/v1/price", atm("barrier-sideways-out-call"))
	expectError(t, w, http.StatusBadRequest, pricing.CodeInvalidVariant)
}

func TestPrice_InvalidParameters(t *testing.T) {
	_, router := newTestEnv(t, nil)
	req := atm("asian-call")
	req.Volatility = -0.2
	expectError(t, do(t, router, "POST", "/api/v1/price", req), http.StatusBadRequest, pricing.CodeInvalidParameters)

	req = atm("asian-call")
	req.AverageType = "harmonic"
	expectError(t, do(t, router, "POST", "/api/v1/price", req), http.StatusBadRequest, pricing.CodeInvalidParameters)
}

func TestPrice_InvalidBarrier(t *testing.T) {
	_, router := newTestEnv(t, nil)
	req := atm("barrier-up-out-call")
	req.Barrier = 90 // up barrier below spot
	expectError(t, do(t, router, "POST", "/api/v1/price", req), http.StatusBadRequest, pricing.CodeInvalidBarrier)
}

func TestPrice_MalformedBody(t *testing.T) {
	_, router := newTestEnv(t, nil)
	req := httptest.NewRequest("POST", "/api/v1/price", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	expectError(t, w, http.StatusBadRequest, pricing.CodeInvalidRequest)
}

func TestPrice_BudgetExceeded(t *testing.T) {
	_, router := newTestEnv(t, budget.NewLimiter(1000, 0, 0))
	req := atm("asian-call")
	req.Paths = 5000
	expectError(t, do(t, router, "POST", "/api/v1/price", req), http.StatusUnprocessableEntity, pricing.CodeBudgetExceeded)
}

func TestPrice_GreeksCountAgainstBudget(t *testing.T) {
	// One run of 2000×12 fits; seven do not.
	_, router := newTestEnv(t, budget.NewLimiter(0, 0, 2000*12*2))
	req := atm("asian-call")

	if w := do(t, router, "POST", "/api/v1/price", req); w.Code != http.StatusOK {
		t.Fatalf("expected 200 without greeks, got %d: %s", w.Code, w.Body.String())
	}

	req.IncludeGreeks = true
	expectError(t, do(t, router, "POST", "/api/v1/price", req), http.StatusUnprocessableEntity, pricing.CodeBudgetExceeded)
}

func TestPrice_BarrierCarriesRawPrice(t *testing.T) {
	_, router := newTestEnv(t, nil)
	req := atm("barrier-up-out-call")
	req.Barrier = 120

	var resp pricing.PriceResponse
	decodeBody(t, do(t, router, "POST", "/api/v1/price", req), &resp)

	// The correction moves the barrier toward spot, so more paths knock out.
	if float(t, resp.Price) > float(t, resp.RawPrice) {
		t.Errorf("corrected price %s should not exceed raw %s", resp.Price, resp.RawPrice)
	}
	if resp.AnalyticalPrice == nil {
		t.Error("up-and-out call should carry an analytical reference")
	}
}

// --- Greeks / Risk / Analytical ---

func TestGreeks_Endpoint(t *testing.T) {
	_, router := newTestEnv(t, nil)

	w := do(t, router, "POST", "/api/v1/greeks", atm("lookback-fixed-call"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp pricing.GreeksOnlyResponse
	decodeBody(t, w, &resp)
	g := resp.Greeks
	if g == nil || g.Delta == nil || g.Gamma == nil || g.Theta == nil || g.Vega == nil || g.Rho == nil {
		t.Fatalf("expected all five greeks, got %+v", g)
	}
	if resp.Seed != 42 {
		t.Errorf("expected seed 42, got %d", resp.Seed)
	}
	if len(resp.UndefinedMetrics) != 0 {
		t.Errorf("expected no undefined metrics, got %v", resp.UndefinedMetrics)
	}
}

func TestRisk_Endpoint(t *testing.T) {
	_, router := newTestEnv(t, nil)

	w := do(t, router, "POST", "/api/v1/risk", atm("asian-call"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp pricing.RiskOnlyResponse
	decodeBody(t, w, &resp)
	if v := float(t, resp.Risk.VaR95); v < 0.2 || v > 0.4 {
		t.Errorf("expected VaR95 near 0.3, got %v", v)
	}
	if resp.Risk.Sharpe == nil || resp.Risk.Sortino == nil {
		t.Error("sharpe and sortino should be defined for a diffuse path set")
	}
}

func TestAnalytical_Endpoint(t *testing.T) {
	_, router := newTestEnv(t, nil)

	w := do(t, router, "POST", "/api/v1/analytical", atm("lookback-floating-call"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp pricing.AnalyticalResponse
	decodeBody(t, w, &resp)
	if got := float(t, resp.Price); math.Abs(got-17.2168) > 1e-3 {
		t.Errorf("expected 17.2168, got %v", got)
	}
}

func TestAnalytical_Unsupported(t *testing.T) {
	_, router := newTestEnv(t, nil)
	req := atm("barrier-up-in-call")
	req.Barrier = 120
	expectError(t, do(t, router, "POST", "/api/v1/analytical", req), http.StatusUnprocessableEntity, pricing.CodeUnsupportedAnalytical)
}

func TestListVariants(t *testing.T) {
	_, router := newTestEnv(t, nil)
	var tags []string
	decodeBody(t, do(t, router, "GET", "/api/v1/variants", nil), &tags)
	if len(tags) != 14 {
		t.Errorf("expected 14 variants, got %d", len(tags))
	}
}

// --- Instruments ---

func createInstrument(t *testing.T, router chi.Router, name string, notional float64) model.Instrument {
	t.Helper()
	req := pricing.CreateInstrumentRequest{
		Name:         name,
		Notional:     decimal.NewFromFloat(notional),
		PriceRequest: atm("barrier-down-out-put"),
	}
	req.Barrier = 80

	w := do(t, router, "POST", "/api/v1/instruments", req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var inst model.Instrument
	decodeBody(t, w, &inst)
	return inst
}

func TestInstruments_Lifecycle(t *testing.T) {
	_, router := newTestEnv(t, nil)

	inst := createInstrument(t, router, "dop-80", 250)
	if inst.ID == "" || inst.Variant != "barrier-down-out-put" {
		t.Fatalf("unexpected instrument: %+v", inst)
	}
	if inst.Params.Paths != 2000 || inst.Params.Steps != 12 {
		t.Errorf("expected defaults applied, got %d paths %d steps", inst.Params.Paths, inst.Params.Steps)
	}

	// Fetch.
	w := do(t, router, "GET", "/api/v1/instruments/"+inst.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	// List with and without filter.
	var list []model.Instrument
	decodeBody(t, do(t, router, "GET", "/api/v1/instruments", nil), &list)
	if len(list) != 1 {
		t.Errorf("expected 1 instrument, got %d", len(list))
	}
	decodeBody(t, do(t, router, "GET", "/api/v1/instruments?variant=asian-call", nil), &list)
	if len(list) != 0 {
		t.Errorf("expected empty filtered list, got %d", len(list))
	}

	// Price by ID.
	var quote pricing.PriceResponse
	decodeBody(t, do(t, router, "POST", "/api/v1/instruments/"+inst.ID+"/price", map[string]any{"seed": 7}), &quote)
	if quote.InstrumentID != inst.ID || quote.Seed != 7 {
		t.Errorf("unexpected quote header: %+v", quote)
	}
	want := quote.Price.Mul(decimal.NewFromInt(250)).Round(pricing.Scale)
	if quote.NotionalValue == nil || !quote.NotionalValue.Equal(want) {
		t.Errorf("expected notional value %s, got %v", want, quote.NotionalValue)
	}

	// Delete.
	if w := do(t, router, "DELETE", "/api/v1/instruments/"+inst.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	expectError(t, do(t, router, "GET", "/api/v1/instruments/"+inst.ID, nil), http.StatusNotFound, pricing.CodeNotFound)
}

func TestInstruments_PriceWithoutBody(t *testing.T) {
	_, router := newTestEnv(t, nil)
	inst := createInstrument(t, router, "no-body", 1)

	req := httptest.NewRequest("POST", "/api/v1/instruments/"+inst.ID+"/price", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestInstruments_Duplicate(t *testing.T) {
	_, router := newTestEnv(t, nil)
	createInstrument(t, router, "same", 1)

	req := pricing.CreateInstrumentRequest{Name: "same", PriceRequest: atm("asian-call")}
	expectError(t, do(t, router, "POST", "/api/v1/instruments", req), http.StatusConflict, pricing.CodeDuplicate)
}

func TestInstruments_Validation(t *testing.T) {
	_, router := newTestEnv(t, nil)

	req := pricing.CreateInstrumentRequest{PriceRequest: atm("asian-call")}
	expectError(t, do(t, router, "POST", "/api/v1/instruments", req), http.StatusBadRequest, pricing.CodeInvalidRequest)

	req = pricing.CreateInstrumentRequest{Name: "bad-barrier", PriceRequest: atm("barrier-down-in-call")}
	req.Barrier = 110 // down barrier above spot
	expectError(t, do(t, router, "POST", "/api/v1/instruments", req), http.StatusBadRequest, pricing.CodeInvalidBarrier)
}

func TestInstruments_UnknownID(t *testing.T) {
	_, router := newTestEnv(t, nil)
	expectError(t, do(t, router, "POST", "/api/v1/instruments/nope/price", nil), http.StatusNotFound, pricing.CodeNotFound)
	expectError(t, do(t, router, "DELETE", "/api/v1/instruments/nope", nil), http.StatusNotFound, pricing.CodeNotFound)
}

// --- Correlation ---

func TestValidateCorrelation(t *testing.T) {
	_, router := newTestEnv(t, nil)

	var ok pricing.ValidationResponse
	decodeBody(t, do(t, router, "POST", "/api/v1/correlation/validate", pricing.CorrelationRequest{
		Matrix: [][]float64{{1, 0.5}, {0.5, 1}},
	}), &ok)
	if !ok.Valid || len(ok.Cholesky) != 2 {
		t.Errorf("expected valid matrix with factor, got %+v", ok)
	}
	if math.Abs(ok.Cholesky[1][1]-math.Sqrt(0.75)) > 1e-12 {
		t.Errorf("expected L[1][1] = √0.75, got %v", ok.Cholesky[1][1])
	}

	var bad pricing.ValidationResponse
	decodeBody(t, do(t, router, "POST", "/api/v1/correlation/validate", pricing.CorrelationRequest{
		Matrix: [][]float64{{1, 1.5}, {1.5, 1}},
	}), &bad)
	if bad.Valid || bad.Reason == "" {
		t.Errorf("expected invalid with reason, got %+v", bad)
	}
}

func TestSampleCorrelated(t *testing.T) {
	_, router := newTestEnv(t, nil)

	var resp pricing.SampleResponse
	decodeBody(t, do(t, router, "POST", "/api/v1/correlation/sample", pricing.CorrelationRequest{
		Matrix:  [][]float64{{1, 0.5}, {0.5, 1}},
		Normals: []float64{1, 0},
	}), &resp)

	if len(resp.Correlated) != 2 || math.Abs(resp.Correlated[0]-1) > 1e-12 || math.Abs(resp.Correlated[1]-0.5) > 1e-12 {
		t.Errorf("expected [1 0.5], got %v", resp.Correlated)
	}
}

func TestSampleCorrelated_DrawsWithSeed(t *testing.T) {
	_, router := newTestEnv(t, nil)
	req := pricing.CorrelationRequest{Matrix: [][]float64{{1, 0}, {0, 1}}, Seed: 9}

	var a, b pricing.SampleResponse
	decodeBody(t, do(t, router, "POST", "/api/v1/correlation/sample", req), &a)
	decodeBody(t, do(t, router, "POST", "/api/v1/correlation/sample", req), &b)

	if len(a.Normals) != 2 || a.Seed != 9 {
		t.Fatalf("unexpected draw: %+v", a)
	}
	// Identity correlation leaves the draws unchanged.
	if !slices.Equal(a.Normals, a.Correlated) || !slices.Equal(a.Correlated, b.Correlated) {
		t.Errorf("expected reproducible identity draws, got %v and %v", a, b)
	}
}

func TestSampleCorrelated_InvalidMatrix(t *testing.T) {
	_, router := newTestEnv(t, nil)
	w := do(t, router, "POST", "/api/v1/correlation/sample", pricing.CorrelationRequest{
		Matrix: [][]float64{{1, 0.2, 0.1}},
	})
	expectError(t, w, http.StatusBadRequest, pricing.CodeInvalidMatrix)
}
