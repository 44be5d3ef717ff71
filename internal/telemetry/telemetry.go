// Package telemetry exposes Prometheus collectors for the bookmarks service.
package telemetry

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	archiveAttemptsTotal    *prometheus.CounterVec
	archivePollDuration     prometheus.Histogram
	sweepTicksTotal         *prometheus.CounterVec
	httpRequestsTotal       *prometheus.CounterVec
	httpRequestDurationSecs *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		archiveAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookmarks_archive_attempts_total",
				Help: "Total archive attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		archivePollDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bookmarks_archive_poll_duration_seconds",
				Help:    "Histogram of full polling session durations.",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 200, 300},
			},
		)

		sweepTicksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookmarks_sweep_ticks_total",
				Help: "Background sweep ticks, labeled by result.",
			},
			[]string{"result"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSecs = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 30, 120},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveArchiveAttempt increments the attempt counter for the given outcome.
func ObserveArchiveAttempt(outcome string) {
	archiveAttemptsTotal.WithLabelValues(outcome).Inc()
}

// ObservePollSession records how long a full polling session took.
func ObservePollSession(duration time.Duration) {
	archivePollDuration.Observe(duration.Seconds())
}

// ObserveSweepTick increments the sweep tick counter for the given result.
func ObserveSweepTick(result string) {
	sweepTicksTotal.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSecs.WithLabelValues(method, route).Observe(duration.Seconds())
}
