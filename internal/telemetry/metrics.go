// Package telemetry provides observability primitives for the player
// lookup gateway.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the gateway.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ActiveRequests  prometheus.Gauge

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// UpstreamCalls is labeled by platform, transport (fetch/rawtls/proxy)
	// and outcome (ok/rate_limited/api_failure/non_json/auth_failure).
	UpstreamCalls   *prometheus.CounterVec
	UpstreamLatency *prometheus.HistogramVec

	HytaleSessionPoolSize  prometheus.Gauge
	HytaleRateLimitReports prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "playerlookup",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:                       "playerlookup",
			Name:                            "request_duration_seconds",
			Help:                            "HTTP request duration in seconds.",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 0,
		}, []string{"method", "path"}),

		ActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "playerlookup",
			Name:      "active_requests",
			Help:      "Number of currently active requests.",
		}),

		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "playerlookup",
			Name:      "cache_hits_total",
			Help:      "Total edge response cache hits.",
		}),

		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "playerlookup",
			Name:      "cache_misses_total",
			Help:      "Total edge response cache misses.",
		}),

		UpstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "playerlookup",
			Name:      "upstream_calls_total",
			Help:      "Total upstream calls by platform, transport, and outcome.",
		}, []string{"platform", "transport", "outcome"}),

		UpstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "playerlookup",
			Name:      "upstream_latency_seconds",
			Help:      "Upstream call latency in seconds, by platform and transport.",
		}, []string{"platform", "transport"}),

		HytaleSessionPoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "playerlookup",
			Name:      "hytale_session_pool_size",
			Help:      "Current number of valid sessions in the Hytale pool.",
		}),

		HytaleRateLimitReports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "playerlookup",
			Name:      "hytale_rate_limit_reports_total",
			Help:      "Total rate-limit reports fed back into the Hytale session pool.",
		}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ActiveRequests,
		m.CacheHits,
		m.CacheMisses,
		m.UpstreamCalls,
		m.UpstreamLatency,
		m.HytaleSessionPoolSize,
		m.HytaleRateLimitReports,
	)

	return m
}
