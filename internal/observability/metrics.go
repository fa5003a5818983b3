package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	teacherRequestsTotal  *prometheus.CounterVec
	teacherLatencySeconds *prometheus.HistogramVec
	teacherErrorsTotal    *prometheus.CounterVec
	bulkGradedTotal       *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used for teacher observability.
func RegisterMetrics() {
	registerOnce.Do(func() {
		teacherRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teacher_requests_total",
			Help: "Total number of teacher API requests served.",
		}, []string{"method", "route", "status"})

		teacherLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "teacher_latency_seconds",
			Help:    "Latency distribution for teacher API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		teacherErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teacher_errors_total",
			Help: "Total number of error responses returned by teacher endpoints.",
		}, []string{"method", "route", "status"})

		bulkGradedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bulk_graded_items_total",
			Help: "Outcomes of submissions processed by bulk grading runs.",
		}, []string{"outcome"})

		prometheus.MustRegister(teacherRequestsTotal, teacherLatencySeconds, teacherErrorsTotal, bulkGradedTotal)
	})
}

// TeacherRequests exposes the counter for teacher requests.
func TeacherRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return teacherRequestsTotal
}

// TeacherLatency exposes the latency histogram for teacher requests.
func TeacherLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return teacherLatencySeconds
}

// TeacherErrors exposes the counter for teacher error responses.
func TeacherErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return teacherErrorsTotal
}

// BulkGraded exposes the per-outcome counter for bulk grading runs.
func BulkGraded() *prometheus.CounterVec {
	RegisterMetrics()
	return bulkGradedTotal
}
