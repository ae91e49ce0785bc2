// Package metrics provides Prometheus metrics for the prediction service.
//
// Metrics implements housing.Observer so the service reports prediction
// outcomes without importing Prometheus, and exposes HTTP counters for the
// server middleware.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "housepredict"

// Metrics holds all Prometheus collectors of the service.
type Metrics struct {
	// Prediction metrics
	PredictionsTotal  *prometheus.CounterVec // Single predictions by outcome
	CacheHits         prometheus.Counter     // Single predictions served from cache
	PredictionLatency prometheus.Histogram   // End-to-end single prediction latency

	// Batch metrics
	BatchesTotal    prometheus.Counter   // Batch submissions scored
	BatchRows       prometheus.Counter   // Rows across all batches
	BatchFailedRows prometheus.Counter   // Rows that produced a row error
	BatchLatency    prometheus.Histogram // Whole-batch latency

	// Readiness
	ModelsLoaded prometheus.Gauge // 1 when every artifact is loaded

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec   // Requests by method, route and status
	HTTPLatency  *prometheus.HistogramVec // Request latency by method and route
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics on a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total number of single predictions by outcome",
		}, []string{"outcome"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_cache_hits_total",
			Help:      "Total number of single predictions served from the cache",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_latency_seconds",
			Help:      "Single prediction latency in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		BatchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Total number of batch submissions scored",
		}),
		BatchRows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_rows_total",
			Help:      "Total number of rows received in batch submissions",
		}),
		BatchFailedRows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_failed_rows_total",
			Help:      "Total number of batch rows that produced a row error",
		}),
		BatchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_latency_seconds",
			Help:      "Batch scoring latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		ModelsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "models_loaded",
			Help:      "1 when all model artifacts and the scaler are loaded, 0 otherwise",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObservePrediction records one single-prediction outcome.
func (m *Metrics) ObservePrediction(outcome string, cacheHit bool, elapsed time.Duration) {
	m.PredictionsTotal.WithLabelValues(outcome).Inc()
	if cacheHit {
		m.CacheHits.Inc()
	}
	m.PredictionLatency.Observe(elapsed.Seconds())
}

// ObserveBatch records one scored batch.
func (m *Metrics) ObserveBatch(rows, failed int, elapsed time.Duration) {
	m.BatchesTotal.Inc()
	m.BatchRows.Add(float64(rows))
	m.BatchFailedRows.Add(float64(failed))
	m.BatchLatency.Observe(elapsed.Seconds())
}

// SetModelsLoaded publishes readiness.
func (m *Metrics) SetModelsLoaded(loaded bool) {
	if loaded {
		m.ModelsLoaded.Set(1)
		return
	}
	m.ModelsLoaded.Set(0)
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
