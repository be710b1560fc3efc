// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookbuddy",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookbuddy",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
		},
		[]string{"method", "route"},
	)

	LoanOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookbuddy",
			Name:      "loan_operations_total",
			Help:      "Loan engine operations by outcome.",
		},
		[]string{"op", "outcome"},
	)

	FinesAssessed = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bookbuddy",
			Name:      "fines_assessed_dollars",
			Help:      "Fines assessed on overdue returns.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 50},
		},
	)
)

func init() {
	Registry.MustRegister(
		HTTPRequests,
		HTTPDuration,
		LoanOperations,
		FinesAssessed,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordLoanOp counts one loan engine operation.
func RecordLoanOp(op, outcome string) {
	LoanOperations.WithLabelValues(op, outcome).Inc()
}
