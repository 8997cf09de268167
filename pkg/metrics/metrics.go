// Package metrics exposes Prometheus instrumentation for the client layer.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metrics for the client layer
type Registry struct {
	// Query Metrics
	QueriesTotal  *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec

	// Conversion Metrics
	ConversionFailuresTotal    prometheus.Counter
	ParameterRejectionsTotal   prometheus.Counter

	// Session/Transaction Metrics
	SessionsOpen      prometheus.Gauge
	TransactionsTotal *prometheus.CounterVec

	// Ephemeral Database Metrics
	EphemeralProvisionedTotal prometheus.Counter
	EphemeralTeardownsTotal   prometheus.Counter

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.QueriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cypherbridge_queries_total",
			Help: "Total number of queries executed",
		},
		[]string{"backend", "status"},
	)

	r.QueryDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cypherbridge_query_duration_seconds",
			Help:    "Query execution duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
		},
		[]string{"backend"},
	)

	r.ConversionFailuresTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "cypherbridge_conversion_failures_total",
			Help: "Total number of native-to-host record conversion failures",
		},
	)

	r.ParameterRejectionsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "cypherbridge_parameter_rejections_total",
			Help: "Total number of parameter maps rejected before reaching a backend",
		},
	)

	r.SessionsOpen = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "cypherbridge_sessions_open",
			Help: "Number of currently open sessions",
		},
	)

	r.TransactionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cypherbridge_transactions_total",
			Help: "Total number of transactions by outcome",
		},
		[]string{"outcome"},
	)

	r.EphemeralProvisionedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "cypherbridge_ephemeral_provisioned_total",
			Help: "Total number of ephemeral databases provisioned",
		},
	)

	r.EphemeralTeardownsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "cypherbridge_ephemeral_teardowns_total",
			Help: "Total number of ephemeral databases torn down",
		},
	)

	return r
}

// PrometheusRegistry returns the underlying registry for exposition
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// RecordQuery records a query execution with its duration
func (r *Registry) RecordQuery(backend, status string, duration time.Duration) {
	r.QueriesTotal.WithLabelValues(backend, status).Inc()
	r.QueryDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordTransaction records a transaction terminal outcome
func (r *Registry) RecordTransaction(outcome string) {
	r.TransactionsTotal.WithLabelValues(outcome).Inc()
}
