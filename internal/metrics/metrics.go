// Package metrics holds the Prometheus collectors of the API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gastro_elite_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gastro_elite_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	emailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gastro_elite_emails_total",
		Help: "Transactional emails by kind and result",
	}, []string{"kind", "result"})

	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gastro_elite_rate_limited_total",
		Help: "Requests rejected by a rate limiter",
	}, []string{"limiter"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveEmail counts a delivery attempt. result is "success" or "error".
func ObserveEmail(kind, result string) {
	emailsSent.WithLabelValues(kind, result).Inc()
}

// ObserveRateLimited counts a request rejected by limiter.
func ObserveRateLimited(limiter string) {
	rateLimited.WithLabelValues(limiter).Inc()
}
