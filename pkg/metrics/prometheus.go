// Package metrics provides Prometheus metrics for the FuelWatch baseline
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithRegistry sets the Prometheus registry metrics are registered on.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// WithNamespace overrides the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	// Baseline engine metrics
	baselinesComputed    prometheus.Counter
	insufficientSamples  prometheus.Counter
	baselineConfidence   prometheus.Histogram
	deviationsClassified *prometheus.CounterVec
	deviationsSkipped    prometheus.Counter
	tripsIngested        prometheus.Counter

	// Batch establishment metrics
	batchOutcomes    *prometheus.CounterVec
	batchRunDuration prometheus.Histogram

	// Store metrics
	storeBaselineCount prometheus.Gauge
	storeShardCount    prometheus.Gauge
	storeUpdateLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager on a custom registry, so the default Go collector
// noise stays out of /healthz.
var (
	customRegistry = prometheus.NewRegistry()                      //nolint:gochecknoglobals // singleton registry
	globalManager  = NewManager(WithRegistry(customRegistry))      //nolint:gochecknoglobals // singleton manager
)

// NewManager creates a metrics manager and registers all metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "fuelwatch",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.baselinesComputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "baselines_computed_total",
		Help:      "Total number of baselines successfully computed and stored",
	})
	m.insufficientSamples = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "baselines_insufficient_samples_total",
		Help:      "Baseline attempts deferred for lack of eligible samples",
	})
	m.baselineConfidence = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "baseline_confidence_score",
		Help:      "Distribution of confidence scores on computed baselines",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})
	m.deviationsClassified = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "deviations_classified_total",
		Help:      "Trip deviation classifications by band and severity",
	}, []string{"deviation_type", "severity"})
	m.deviationsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "deviations_skipped_total",
		Help:      "Deviation checks skipped because the vehicle has no baseline",
	})
	m.tripsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "trips_ingested_total",
		Help:      "Trip samples accepted into the trip log",
	})

	m.batchOutcomes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "batch_vehicle_outcomes_total",
		Help:      "Per-vehicle outcomes of batch baseline establishment",
	}, []string{"outcome"})
	m.batchRunDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "batch_run_duration_milliseconds",
		Help:      "Wall time of batch baseline establishment runs",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})

	m.storeBaselineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "store_baseline_count",
		Help:      "Vehicles with a stored baseline",
	})
	m.storeShardCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "store_shard_count",
		Help:      "Shards in the in-memory baseline store",
	})
	m.storeUpdateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "store_update_latency_milliseconds",
		Help:      "Baseline store write latency",
		Buckets:   prometheus.DefBuckets,
	})
	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "store_query_latency_milliseconds",
		Help:      "Baseline store read latency",
		Buckets:   prometheus.DefBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// GetRegistry returns the registry backing the global manager, for
// promhttp handlers.
func GetRegistry() *prometheus.Registry { return customRegistry }

// Package-level helpers recording on the global manager.

func RecordBaselineComputed(confidence int) {
	globalManager.baselinesComputed.Inc()
	globalManager.baselineConfidence.Observe(float64(confidence))
}

func RecordInsufficientSamples() { globalManager.insufficientSamples.Inc() }

func RecordDeviation(deviationType, severity string) {
	globalManager.deviationsClassified.WithLabelValues(deviationType, severity).Inc()
}

func RecordDeviationSkipped() { globalManager.deviationsSkipped.Inc() }

func RecordTripsIngested(n int) { globalManager.tripsIngested.Add(float64(n)) }

func RecordBatchOutcome(outcome string) {
	globalManager.batchOutcomes.WithLabelValues(outcome).Inc()
}

func RecordBatchRunDuration(ms float64) { globalManager.batchRunDuration.Observe(ms) }

func UpdateStoreBaselineCount(n int) { globalManager.storeBaselineCount.Set(float64(n)) }

func UpdateStoreShardCount(n int) { globalManager.storeShardCount.Set(float64(n)) }

func RecordStoreUpdateLatency(ms float64) { globalManager.storeUpdateLatency.Observe(ms) }

func RecordStoreQueryLatency(ms float64) { globalManager.storeQueryLatency.Observe(ms) }

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}
