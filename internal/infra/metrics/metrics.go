// Package metrics holds the Prometheus collectors for echopicks.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup outcomes recorded by RecordLookup.
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupError = "error"
	LookupOpen  = "breaker_open"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "echopicks_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "echopicks_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "echopicks_recommendations_total",
			Help: "Recommendation requests by category and outcome",
		},
		[]string{"category", "outcome"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "echopicks_llm_request_duration_seconds",
			Help:    "Generative-text provider call duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"provider", "status"},
	)

	MetadataLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "echopicks_metadata_lookups_total",
			Help: "Metadata provider lookups by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "echopicks_breaker_state",
			Help: "Circuit breaker state per metadata provider (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider"},
	)
)

// RecordHTTP records one served request.
func RecordHTTP(method, route string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordRecommendation counts a pipeline outcome ("ok", "fallback",
// "validation_error", "provider_error", "parse_error").
func RecordRecommendation(category, outcome string) {
	RecommendationsTotal.WithLabelValues(category, outcome).Inc()
}

// ObserveLLM records a model call.
func ObserveLLM(provider string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	LLMRequestDuration.WithLabelValues(provider, status).Observe(d.Seconds())
}

// RecordLookup counts a metadata lookup outcome.
func RecordLookup(provider, outcome string) {
	MetadataLookupsTotal.WithLabelValues(provider, outcome).Inc()
}

// SetBreakerState publishes a breaker state as a gauge value.
func SetBreakerState(provider string, state int) {
	BreakerState.WithLabelValues(provider).Set(float64(state))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
