package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the Prometheus collectors of the service. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	adviceResults      *prometheus.CounterVec
	adviceDuration     prometheus.Histogram
	candidatePoolSize  prometheus.Histogram
	httpRequestsTotal  *prometheus.CounterVec
	httpRequestLatency *prometheus.HistogramVec
	httpInFlight       prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		adviceResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advice_results_total",
				Help: "Advice requests by result classification",
			},
			[]string{"result_type"},
		),
		adviceDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "advice_duration_seconds",
				Help:    "Time spent answering an advice request",
				Buckets: prometheus.DefBuckets,
			},
		),
		candidatePoolSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "advice_candidate_pool_size",
				Help:    "Number of products scored per advice request",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		httpInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),
	}
}

// ObserveAdvice records the classification and latency of one advice request.
func (m *Metrics) ObserveAdvice(resultType string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.adviceResults.WithLabelValues(resultType).Inc()
	m.adviceDuration.Observe(elapsed.Seconds())
}

// ObserveCandidatePool records how many products went into scoring.
func (m *Metrics) ObserveCandidatePool(size int) {
	if m == nil {
		return
	}
	m.candidatePoolSize.Observe(float64(size))
}

// ObserveHTTPRequest records one served HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequestsTotal.WithLabelValues(method, path, code).Inc()
	m.httpRequestLatency.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
}

// TrackInFlight increments the in-flight gauge and returns the matching decrement.
func (m *Metrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.httpInFlight.Inc()
	return m.httpInFlight.Dec
}
