// Package metrics exposes the scan pipeline's Prometheus instrumentation.
// It instruments; serving /metrics over HTTP is left to cmd/.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scanJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scan_job_duration_seconds",
			Help:    "Scan job duration in seconds, by terminal status",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"status"},
	)

	scanColumnsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scan_columns_total",
			Help: "Total number of columns sampled and run through detection",
		},
	)

	scanPiiColumnsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scan_pii_columns_total",
			Help: "Total number of columns that produced at least one PII candidate",
		},
	)

	detectionCacheHitRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "detection_cache_hit_ratio",
			Help: "Rolling detection cache hit ratio (hits / (hits + misses))",
		},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request body size in bytes, by route",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		},
		[]string{"route"},
	)

	httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response body size in bytes, by route",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		},
		[]string{"route"},
	)
)

/* RecordScanJobDuration records a completed job's wall-clock duration
against its terminal status ("COMPLETED", "FAILED", "CANCELLED"). */
func RecordScanJobDuration(status string, seconds float64) {
	scanJobDuration.WithLabelValues(status).Observe(seconds)
}

/* RecordColumnsScanned increments the columns-scanned counter. */
func RecordColumnsScanned(n int) {
	scanColumnsTotal.Add(float64(n))
}

/* RecordPiiColumnsFound increments the PII-columns-found counter. */
func RecordPiiColumnsFound(n int) {
	scanPiiColumnsTotal.Add(float64(n))
}

/* SetDetectionCacheHitRatio sets the current detection cache hit ratio. */
func SetDetectionCacheHitRatio(ratio float64) {
	detectionCacheHitRatio.Set(ratio)
}

/* RecordHTTPRequest records one completed HTTP request's duration and body
sizes, labeled by method, route and status. */
func RecordHTTPRequest(method, route string, status int, duration time.Duration, requestSize, responseSize int64) {
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
	httpRequestSize.WithLabelValues(route).Observe(float64(requestSize))
	httpResponseSize.WithLabelValues(route).Observe(float64(responseSize))
}

/* Handler returns the Prometheus metrics HTTP handler. */
func Handler() http.Handler {
	return promhttp.Handler()
}
