package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec
	uploadsTotal       *prometheus.CounterVec
	dedupHitsTotal     prometheus.Counter
	extractionsTotal   *prometheus.CounterVec
	gradingsTotal      *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grader_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grader_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grader_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		uploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grader_uploads_total",
			Help: "Number of upload requests accepted, labelled by uploader type.",
		}, []string{"user_type"})

		dedupHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grader_dedup_hits_total",
			Help: "Number of uploads resolved from an existing submission record.",
		})

		extractionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grader_extractions_total",
			Help: "Number of text extraction invocations, labelled by outcome.",
		}, []string{"outcome"})

		gradingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grader_gradings_total",
			Help: "Number of grading requests, labelled by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			uploadsTotal, dedupHitsTotal, extractionsTotal, gradingsTotal)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Uploads exposes the counter for accepted uploads.
func Uploads() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsTotal
}

// DedupHits exposes the counter for deduplicated uploads.
func DedupHits() prometheus.Counter {
	RegisterMetrics()
	return dedupHitsTotal
}

// Extractions exposes the counter for extraction invocations.
func Extractions() *prometheus.CounterVec {
	RegisterMetrics()
	return extractionsTotal
}

// Gradings exposes the counter for grading requests.
func Gradings() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingsTotal
}
