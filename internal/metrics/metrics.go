// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

var (
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_provider_requests_total",
			Help: "Provider calls by provider, operation and outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scout_provider_request_duration_seconds",
			Help:    "Duration of provider calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "operation"},
	)

	FallbacksUsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scout_scrape_fallbacks_total",
			Help: "Scrapes that succeeded on a provider other than the first in the chain",
		},
	)

	Analyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_analyses_total",
			Help: "HTML analyses run by analyzer kind",
		},
		[]string{"kind"},
	)

	AgentJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scout_agent_jobs_total",
			Help: "Agent jobs by terminal state",
		},
		[]string{"state"},
	)
)

// ObserveProvider records one provider call.
func ObserveProvider(provider, operation string, ok bool, elapsed time.Duration) {
	outcome := OutcomeFailure
	if ok {
		outcome = OutcomeSuccess
	}
	ProviderRequests.WithLabelValues(provider, operation, outcome).Inc()
	ProviderDuration.WithLabelValues(provider, operation).Observe(elapsed.Seconds())
}
