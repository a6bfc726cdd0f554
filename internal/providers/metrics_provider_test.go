package providers

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memoriesbot/internal/structures"
)

func useTestRegistry(t *testing.T) {
	t.Helper()
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	t.Cleanup(func() {
		fresh := prometheus.NewRegistry()
		prometheus.DefaultRegisterer = fresh
		prometheus.DefaultGatherer = fresh
	})
}

func TestNoopMetrics_WhenDisabled(t *testing.T) {
	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: false},
	}
	m := NewMetricsProvider(conf)
	_, ok := m.(*noopMetrics)
	assert.True(t, ok, "should return noopMetrics when disabled")

	// Ensure no-op methods don't panic
	m.IncRequestsTotal("/check", 200)
	m.ObserveRequestDuration("/check", time.Millisecond)
	m.IncCacheHits()
	m.IncCacheMisses()
	m.ObserveStoreWrite("pins", time.Millisecond)
	m.SetPinsTotal(3)
	m.IncScans("daily")
	m.ObserveScanDuration(time.Millisecond)
	m.IncMemoriesFound()
	m.IncNotificationsSent()
	m.IncSkippedRecords("message")
	m.IncDeliveryFailures("send")
}

func TestMetricsProvider_WhenEnabled(t *testing.T) {
	useTestRegistry(t)

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf)
	_, ok := m.(*MetricsProvider)
	assert.True(t, ok, "should return MetricsProvider when enabled")
}

func TestMetricsProvider_Counters(t *testing.T) {
	useTestRegistry(t)

	m := NewMetricsProvider(&structures.Config{Metrics: structures.MetricsConfig{Enabled: true}})
	mp, ok := m.(*MetricsProvider)
	require.True(t, ok)

	m.IncRequestsTotal("/check", 200)
	m.IncRequestsTotal("/check", 201)
	m.IncRequestsTotal("/check", 409)
	m.IncScans("daily")
	m.IncScans("manual")
	m.IncScans("daily")
	m.IncMemoriesFound()
	m.IncNotificationsSent()
	m.IncSkippedRecords("message")
	m.IncDeliveryFailures("send")
	m.SetPinsTotal(42)
	m.ObserveStoreWrite("pins", 5*time.Millisecond)
	m.ObserveScanDuration(10 * time.Millisecond)

	assert.Equal(t, float64(2), promtest.ToFloat64(mp.requestsTotal.WithLabelValues("/check", "2xx")))
	assert.Equal(t, float64(1), promtest.ToFloat64(mp.requestsTotal.WithLabelValues("/check", "4xx")))
	assert.Equal(t, float64(2), promtest.ToFloat64(mp.scansTotal.WithLabelValues("daily")))
	assert.Equal(t, float64(1), promtest.ToFloat64(mp.scansTotal.WithLabelValues("manual")))
	assert.Equal(t, float64(1), promtest.ToFloat64(mp.memoriesFound))
	assert.Equal(t, float64(1), promtest.ToFloat64(mp.notificationsSent))
	assert.Equal(t, float64(1), promtest.ToFloat64(mp.skippedRecords.WithLabelValues("message")))
	assert.Equal(t, float64(1), promtest.ToFloat64(mp.deliveryFailures.WithLabelValues("send")))
	assert.Equal(t, float64(42), promtest.ToFloat64(mp.pinsTotal))
}

func TestHttpStatusBucket(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{400, "4xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, httpStatusBucket(tt.code))
	}
}
