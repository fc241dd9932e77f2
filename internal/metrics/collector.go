// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Collector holds the counters and histograms recorded during dialogue runs.
type Collector struct {
	backendRequestsTotal   *prometheus.CounterVec
	backendRequestDuration *prometheus.HistogramVec
	validationFailures     *prometheus.CounterVec
	entriesAppended        prometheus.Counter
	runsTotal              *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector creates a collector and registers its metrics with the given
// registerer. Pass prometheus.DefaultRegisterer for process-wide exposition,
// or a fresh registry in tests.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.backendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Total generate calls per backend and outcome.",
		},
		[]string{"backend", "outcome"},
	)
	c.backendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Latency of generate calls per backend.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"backend"},
	)
	c.validationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Validation failures per rule and backend.",
		},
		[]string{"rule", "backend"},
	)
	c.entriesAppended = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcript_entries_appended_total",
			Help:      "Entries appended to the transcript store.",
		},
	)
	c.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Dialogue runs per kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	if reg != nil {
		reg.MustRegister(
			c.backendRequestsTotal,
			c.backendRequestDuration,
			c.validationFailures,
			c.entriesAppended,
			c.runsTotal,
		)
	}
	return c
}

// RecordBackendRequest records one generate call.
func (c *Collector) RecordBackendRequest(backend, outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.backendRequestsTotal.WithLabelValues(backend, outcome).Inc()
	c.backendRequestDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordValidationFailure records one failed rule check.
func (c *Collector) RecordValidationFailure(rule, backend string) {
	if c == nil {
		return
	}
	c.validationFailures.WithLabelValues(rule, backend).Inc()
}

// RecordEntriesAppended records entries written to the store.
func (c *Collector) RecordEntriesAppended(n int) {
	if c == nil {
		return
	}
	c.entriesAppended.Add(float64(n))
}

// RecordRun records a completed or aborted run.
func (c *Collector) RecordRun(kind, outcome string) {
	if c == nil {
		return
	}
	c.runsTotal.WithLabelValues(kind, outcome).Inc()
}
