package observability

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Registered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveAdvice("TEXT_MATCH", 15*time.Millisecond)
	m.ObserveCandidatePool(12)
	m.ObserveHTTPRequest(http.MethodPost, "/api/v1/advice", http.StatusOK, 20*time.Millisecond)
	done := m.TrackInFlight()
	done()

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	values := make(map[string]float64, len(families))
	for _, fam := range families {
		names[fam.GetName()] = true
		for _, metric := range fam.GetMetric() {
			values[fam.GetName()] += sampleValue(metric)
		}
	}

	for _, name := range []string{
		"advice_results_total",
		"advice_duration_seconds",
		"advice_candidate_pool_size",
		"http_requests_total",
		"http_request_duration_seconds",
		"http_requests_in_flight",
	} {
		assert.True(t, names[name], "expected metric %q to be registered", name)
	}

	assert.Equal(t, float64(1), values["advice_results_total"])
	assert.Equal(t, float64(1), values["http_requests_total"])
	assert.Equal(t, float64(0), values["http_requests_in_flight"])
	assert.Equal(t, float64(1), values["advice_duration_seconds"])
	assert.Equal(t, float64(1), values["advice_candidate_pool_size"])
}

// sampleValue reads counters and gauges as their value and histograms as their count
func sampleValue(m *dto.Metric) float64 {
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue()
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue()
	case m.GetHistogram() != nil:
		return float64(m.GetHistogram().GetSampleCount())
	}
	return 0
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveAdvice("FALLBACK", time.Second)
		m.ObserveCandidatePool(3)
		m.ObserveHTTPRequest(http.MethodGet, "/health", http.StatusOK, time.Millisecond)
		m.TrackInFlight()()
	})
}
