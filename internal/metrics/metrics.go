// Package metrics provides Prometheus instrumentation for the exotics engine.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PricingRequests counts pricing requests by variant and outcome.
	PricingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exotics_pricing_requests_total",
		Help: "Total number of pricing requests",
	}, []string{"variant", "status"})

	// PricingDuration tracks wall time of one Monte Carlo valuation.
	PricingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "exotics_pricing_duration_seconds",
		Help:    "Monte Carlo pricing latency in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
	}, []string{"variant"})

	// SimulatedPaths counts generated paths per variant.
	SimulatedPaths = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exotics_simulated_paths_total",
		Help: "Cumulative number of simulated paths",
	}, []string{"variant"})

	// GreeksDuration tracks the six-run bump-and-reprice fan-out.
	GreeksDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "exotics_greeks_duration_seconds",
		Help:    "Greeks estimation latency in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
	})

	// BudgetRejections counts requests rejected by the workload limiter.
	BudgetRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "exotics_budget_rejections_total",
		Help: "Requests rejected by the simulation workload limiter",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "exotics_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exotics_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "exotics_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 5.0},
	}, []string{"method", "path"})
)

// ObservePricing records one finished valuation.
func ObservePricing(variant, status string, paths int, elapsed time.Duration) {
	PricingRequests.WithLabelValues(variant, status).Inc()
	if status == "ok" {
		PricingDuration.WithLabelValues(variant).Observe(elapsed.Seconds())
		SimulatedPaths.WithLabelValues(variant).Add(float64(paths))
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := routePattern(r)
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern labels by chi route pattern so instrument IDs do not
// explode label cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("metrics: %T does not support hijacking", w.ResponseWriter)
	}
	return h.Hijack()
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
