// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the dojo backend.
package observability

import "github.com/prometheus/client_golang/prometheus"

// APIBuckets defines histogram buckets suited for CRUD request latencies,
// ranging from 5ms to 10s.
var APIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	// RequestsTotal counts all HTTP requests by method, path pattern, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dojo_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method and path pattern.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dojo_request_duration_seconds",
			Help:    "Request duration",
			Buckets: APIBuckets,
		},
		[]string{"method", "path"},
	)

	// LoginsTotal counts login attempts by outcome (ok, unknown_user, wrong_password).
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dojo_logins_total",
			Help: "Login attempts",
		},
		[]string{"outcome"},
	)

	// AuthRejectionsTotal counts requests rejected by the authentication gate
	// by reason (unauthenticated, invalid, expired).
	AuthRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dojo_auth_rejections_total",
			Help: "Authentication gate rejections",
		},
		[]string{"reason"},
	)

	// StoreErrorsTotal counts unexpected persistence failures by operation.
	StoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dojo_store_errors_total",
			Help: "Unexpected store failures",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		LoginsTotal,
		AuthRejectionsTotal,
		StoreErrorsTotal,
	)
}
