// Package metrics provides Prometheus instrumentation for the calculator.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDefault = "default"
)

var (
	// PriceSourceAttempts counts price provider attempts by source and outcome.
	PriceSourceAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dacalc_price_source_attempts_total",
		Help: "Price provider attempts by source and outcome",
	}, []string{"source", "outcome"})

	// PriceSourceLatency tracks the duration of each provider attempt.
	PriceSourceLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dacalc_price_source_latency_seconds",
		Help:    "Price provider attempt latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	// PriceFallbacks counts snapshots that fell back to static prices.
	PriceFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dacalc_price_fallbacks_total",
		Help: "Price fetches where every provider failed",
	})

	// FeeQueries counts fee oracle sub-queries by query and outcome.
	FeeQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dacalc_fee_queries_total",
		Help: "Fee oracle queries by query and outcome",
	}, []string{"query", "outcome"})

	// SnapshotCache counts market snapshot cache lookups by result.
	SnapshotCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dacalc_snapshot_cache_total",
		Help: "Market snapshot cache lookups by result",
	}, []string{"result"})

	// Calculations counts engine invocations served over HTTP or CLI.
	Calculations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dacalc_calculations_total",
		Help: "Economics engine invocations by settlement model",
	}, []string{"settlement"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dacalc_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dacalc_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 5.0, 30.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
