// Package metrics holds the Prometheus collectors of the register service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_http_requests_total",
			Help: "HTTP requests served by the register API.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pos_http_request_duration_seconds",
			Help:    "Latency of register API requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ScansTotal counts every code reaching the register, by source and outcome.
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_scans_total",
			Help: "Barcode reads handled by the register.",
		},
		[]string{"source", "outcome"},
	)

	LookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pos_backend_request_duration_seconds",
			Help:    "Latency of calls to the pharmacy backend.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	CheckoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_checkouts_total",
			Help: "Order submissions by result.",
		},
		[]string{"result"},
	)

	CaptureAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_capture_attempts_total",
			Help: "Still-capture decode results by winning pass.",
		},
		[]string{"pass"},
	)

	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pos_token_refreshes_total",
			Help: "Backend access token refreshes triggered by 401 responses.",
		},
		[]string{"result"},
	)
)
