package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	examPublishTotal      *prometheus.CounterVec
	examCompensationTotal *prometheus.CounterVec
	exportsTotal          *prometheus.CounterVec
	sessionEventsTotal    *prometheus.CounterVec
	statsCacheTotal       *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the console API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "console_requests_total",
			Help: "Total number of console API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "console_latency_seconds",
			Help:    "Latency distribution for console API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "console_errors_total",
			Help: "Total number of error responses returned by console endpoints.",
		}, []string{"method", "route", "status"})

		examPublishTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_publish_total",
			Help: "Exam publication attempts by publish mode and result.",
		}, []string{"mode", "result"})

		examCompensationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exam_publish_compensations_total",
			Help: "Compensating exam deletes after a failed question insert.",
		}, []string{"result"})

		exportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exports_total",
			Help: "CSV exports produced by kind.",
		}, []string{"kind"})

		sessionEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "session_events_total",
			Help: "Teacher session change events by type.",
		}, []string{"type"})

		statsCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submission_stats_cache_total",
			Help: "Submission statistics cache lookups by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			examPublishTotal,
			examCompensationTotal,
			exportsTotal,
			sessionEventsTotal,
			statsCacheTotal,
		)
	})
}

// MetricsHandler serves the default registry, negotiating OpenMetrics when the scraper asks for it.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	}))
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// ExamPublishTotal counts publication attempts.
func ExamPublishTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return examPublishTotal
}

// ExamCompensationTotal counts compensating deletes.
func ExamCompensationTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return examCompensationTotal
}

// ExportsTotal counts generated CSV artifacts.
func ExportsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return exportsTotal
}

// SessionEventsTotal counts session change notifications.
func SessionEventsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return sessionEventsTotal
}

// StatsCacheTotal counts statistics cache hits and misses.
func StatsCacheTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return statsCacheTotal
}
