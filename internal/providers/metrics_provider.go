package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"memoriesbot/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObserveStoreWrite(store string, duration time.Duration)
	SetPinsTotal(count int)
	IncScans(trigger string)
	ObserveScanDuration(duration time.Duration)
	IncMemoriesFound()
	IncNotificationsSent()
	IncSkippedRecords(reason string)
	IncDeliveryFailures(reason string)
}

type MetricsProvider struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	storeWrite        *prometheus.HistogramVec
	pinsTotal         prometheus.Gauge
	scansTotal        *prometheus.CounterVec
	scanDuration      prometheus.Histogram
	memoriesFound     prometheus.Counter
	notificationsSent prometheus.Counter
	skippedRecords    *prometheus.CounterVec
	deliveryFailures  *prometheus.CounterVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObserveStoreWrite(store string, duration time.Duration) {
	m.storeWrite.WithLabelValues(store).Observe(duration.Seconds())
}

func (m *MetricsProvider) SetPinsTotal(count int) {
	m.pinsTotal.Set(float64(count))
}

func (m *MetricsProvider) IncScans(trigger string) {
	m.scansTotal.WithLabelValues(trigger).Inc()
}

func (m *MetricsProvider) ObserveScanDuration(duration time.Duration) {
	m.scanDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncMemoriesFound() {
	m.memoriesFound.Inc()
}

func (m *MetricsProvider) IncNotificationsSent() {
	m.notificationsSent.Inc()
}

func (m *MetricsProvider) IncSkippedRecords(reason string) {
	m.skippedRecords.WithLabelValues(reason).Inc()
}

func (m *MetricsProvider) IncDeliveryFailures(reason string) {
	m.deliveryFailures.WithLabelValues(reason).Inc()
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "memories_http_requests_total",
			Help: "Total number of admin HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "memories_http_request_duration_seconds",
			Help:    "Admin HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "memories_cache_hits_total",
			Help: "Total number of member cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "memories_cache_misses_total",
			Help: "Total number of member cache misses",
		}),

		storeWrite: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "memories_store_write_duration_seconds",
			Help:    "Duration of full store rewrites in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"store"}),

		pinsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "memories_pins_total",
			Help: "Number of archived pin records after the last write",
		}),

		scansTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "memories_scans_total",
			Help: "Total number of anniversary scans by trigger",
		}, []string{"trigger"}),

		scanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "memories_scan_duration_seconds",
			Help:    "Duration of anniversary scans in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		memoriesFound: promauto.NewCounter(prometheus.CounterOpts{
			Name: "memories_found_total",
			Help: "Total number of pins matching their anniversary",
		}),

		notificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "memories_notifications_sent_total",
			Help: "Total number of memory notifications delivered",
		}),

		skippedRecords: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "memories_skipped_records_total",
			Help: "Matching records skipped because a reference did not resolve",
		}, []string{"reason"}),

		deliveryFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "memories_delivery_failures_total",
			Help: "Notifications that could not be delivered",
		}, []string{"reason"}),
	}
}

// noopMetrics is used when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObserveStoreWrite(_ string, _ time.Duration)      {}
func (n *noopMetrics) SetPinsTotal(_ int)                               {}
func (n *noopMetrics) IncScans(_ string)                                {}
func (n *noopMetrics) ObserveScanDuration(_ time.Duration)              {}
func (n *noopMetrics) IncMemoriesFound()                                {}
func (n *noopMetrics) IncNotificationsSent()                            {}
func (n *noopMetrics) IncSkippedRecords(_ string)                       {}
func (n *noopMetrics) IncDeliveryFailures(_ string)                     {}
