// Package metrics exposes Prometheus collectors for the draw engine.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchTotal                 *prometheus.CounterVec
	fetchBytesTotal            *prometheus.CounterVec
	fetchDurationSeconds       *prometheus.HistogramVec
	stageAttemptsTotal         *prometheus.CounterVec
	ingestionRunsTotal         *prometheus.CounterVec
	ingestionRecordsTotal      *prometheus.CounterVec
	generationRequestsTotal    *prometheus.CounterVec
	generationAttempts         prometheus.Histogram
	generationPersistFailures  prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	rateLimitDelaysSeconds     *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "draw_fetch_total",
				Help: "Total number of source fetches, labeled by source and outcome.",
			},
			[]string{"source", "outcome"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "draw_fetch_bytes_total",
				Help: "Total number of bytes fetched, labeled by source.",
			},
			[]string{"source"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "draw_fetch_duration_seconds",
				Help:    "Histogram of source fetch latencies, including the pacing delay.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"source"},
		)

		stageAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "draw_stage_attempts_total",
				Help: "Fallback pipeline stage attempts, labeled by stage and result.",
			},
			[]string{"stage", "result"},
		)

		ingestionRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "draw_ingestion_runs_total",
				Help: "Ingestion runs, labeled by whether the batch was scraped or synthetic.",
			},
			[]string{"kind"},
		)

		ingestionRecordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "draw_ingestion_records_total",
				Help: "Records handled by ingestion, labeled by result.",
			},
			[]string{"result"},
		)

		generationRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "draw_generation_requests_total",
				Help: "Generation requests, labeled by result.",
			},
			[]string{"result"},
		)

		generationAttempts = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "draw_generation_attempts",
				Help:    "Sampling attempts needed per accepted combination.",
				Buckets: []float64{1, 2, 5, 10, 50, 100, 500, 1000},
			},
		)

		generationPersistFailures = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "draw_generation_persist_failures_total",
				Help: "Generated combinations returned to the caller but not persisted.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "draw_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one source fetch.
func ObserveFetch(source, outcome string, bytesFetched int, duration time.Duration) {
	Init()
	fetchTotal.WithLabelValues(source, outcome).Inc()
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(source).Add(float64(bytesFetched))
	}
	fetchDurationSeconds.WithLabelValues(source).Observe(duration.Seconds())
}

// ObserveStage records the result of one pipeline stage.
func ObserveStage(stage, result string) {
	Init()
	stageAttemptsTotal.WithLabelValues(stage, result).Inc()
}

// ObserveIngestion records a finished ingestion run and its per-record counts.
func ObserveIngestion(synthetic bool, newRecords, duplicates, invalid, failures int) {
	Init()
	kind := "scraped"
	if synthetic {
		kind = "synthetic"
	}
	ingestionRunsTotal.WithLabelValues(kind).Inc()
	ingestionRecordsTotal.WithLabelValues("new").Add(float64(newRecords))
	ingestionRecordsTotal.WithLabelValues("duplicate").Add(float64(duplicates))
	ingestionRecordsTotal.WithLabelValues("invalid").Add(float64(invalid))
	ingestionRecordsTotal.WithLabelValues("failed").Add(float64(failures))
}

// ObserveGeneration records the result of a generate request.
func ObserveGeneration(result string) {
	Init()
	generationRequestsTotal.WithLabelValues(result).Inc()
}

// ObserveGenerationAttempts records how many samples one combination needed.
func ObserveGenerationAttempts(attempts int) {
	Init()
	generationAttempts.Observe(float64(attempts))
}

// IncGenerationPersistFailures counts a best-effort write that failed.
func IncGenerationPersistFailures() {
	Init()
	generationPersistFailures.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}
