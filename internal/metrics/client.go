// Package metrics holds the Prometheus collectors for the Gotenberg client.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	clientRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gotenberg_client_requests_total",
		Help: "Gotenberg requests by route and outcome",
	}, []string{"route", "outcome"}) // outcome=success|client_error|server_error|transport|circuit_open

	clientRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gotenberg_client_request_duration_seconds",
		Help:    "Latency of Gotenberg requests including body upload",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"route"})

	clientResponseBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gotenberg_client_response_bytes_total",
		Help: "Bytes read from Gotenberg response bodies",
	}, []string{"route"})

	clientRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gotenberg_client_retries_total",
		Help: "Retried Gotenberg requests by route",
	}, []string{"route"})

	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gotenberg_client_cache_lookups_total",
		Help: "Metadata cache lookups by result",
	}, []string{"result"}) // result=hit|miss|skip

	rateLimitWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gotenberg_ratelimit_wait_seconds",
		Help:    "Time spent waiting for the client-side rate limiter",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	})
)

// ObserveRequest records the outcome and latency of a single Gotenberg request.
func ObserveRequest(route, outcome string, d time.Duration) {
	clientRequestsTotal.WithLabelValues(route, outcome).Inc()
	clientRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// AddResponseBytes accounts bytes consumed from a response body.
func AddResponseBytes(route string, n int64) {
	if n <= 0 {
		return
	}
	clientResponseBytes.WithLabelValues(route).Add(float64(n))
}

// IncRetry counts a retried attempt.
func IncRetry(route string) {
	clientRetriesTotal.WithLabelValues(route).Inc()
}

// RecordCacheLookup counts a metadata cache lookup.
func RecordCacheLookup(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveRateLimitWait records how long a request was held by the limiter.
func ObserveRateLimitWait(d time.Duration) {
	rateLimitWait.Observe(d.Seconds())
}
