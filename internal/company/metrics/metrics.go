// Package metrics provides observability for the company resolution pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the aggregator and its connectors. All methods are nil-safe
// so wiring can skip metrics entirely in tests.
type Metrics struct {
	// Full resolve latency, including fan-out when one happens.
	ResolveLatency prometheus.Histogram

	// Cache and store lookups by tier ("cache", "store") and outcome
	// ("hit", "miss", "stale", "error").
	LookupOutcome *prometheus.CounterVec

	// Connector fetch latencies by source.
	ConnectorLatency *prometheus.HistogramVec

	// Connector failures by source and error category.
	ConnectorFailures *prometheus.CounterVec

	// Completed refreshes by trigger ("miss", "stale", "forced").
	Refreshes *prometheus.CounterVec
}

// New registers and returns the pipeline metrics.
func New() *Metrics {
	return &Metrics{
		ResolveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "kyc_resolve_duration_seconds",
			Help:    "Duration of company resolution including connector fan-out",
			Buckets: []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10},
		}),

		LookupOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_lookup_outcomes_total",
			Help: "Cache and store lookup outcomes by tier",
		}, []string{"tier", "outcome"}),

		ConnectorLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kyc_connector_duration_seconds",
			Help:    "Duration of connector fetches by source",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),

		ConnectorFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_connector_failures_total",
			Help: "Connector fetch failures by source and error category",
		}, []string{"source", "category"}),

		Refreshes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_refreshes_total",
			Help: "Completed company refreshes by trigger",
		}, []string{"trigger"}),
	}
}

// ObserveResolveLatency records the duration of a full resolve.
func (m *Metrics) ObserveResolveLatency(d time.Duration) {
	if m != nil {
		m.ResolveLatency.Observe(d.Seconds())
	}
}

// IncrementLookup records a cache or store lookup outcome.
func (m *Metrics) IncrementLookup(tier, outcome string) {
	if m != nil {
		m.LookupOutcome.WithLabelValues(tier, outcome).Inc()
	}
}

// ObserveConnectorLatency records the duration of one connector fetch.
func (m *Metrics) ObserveConnectorLatency(source string, d time.Duration) {
	if m != nil {
		m.ConnectorLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

// IncrementConnectorFailure records a categorized connector failure.
func (m *Metrics) IncrementConnectorFailure(source, category string) {
	if m != nil {
		m.ConnectorFailures.WithLabelValues(source, category).Inc()
	}
}

// IncrementRefresh records a completed refresh and what triggered it.
func (m *Metrics) IncrementRefresh(trigger string) {
	if m != nil {
		m.Refreshes.WithLabelValues(trigger).Inc()
	}
}
