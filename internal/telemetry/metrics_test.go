package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewPedanticRegistry()
	m := NewMetrics(reg)

	if m.RequestsTotal == nil {
		t.Error("RequestsTotal is nil")
	}
	if m.RequestDuration == nil {
		t.Error("RequestDuration is nil")
	}
	if m.ActiveRequests == nil {
		t.Error("ActiveRequests is nil")
	}
	if m.UpstreamCalls == nil {
		t.Error("UpstreamCalls is nil")
	}
	if m.UpstreamLatency == nil {
		t.Error("UpstreamLatency is nil")
	}
	if m.CacheHits == nil {
		t.Error("CacheHits is nil")
	}
	if m.CacheMisses == nil {
		t.Error("CacheMisses is nil")
	}
	if m.HytaleSessionPoolSize == nil {
		t.Error("HytaleSessionPoolSize is nil")
	}
	if m.HytaleRateLimitReports == nil {
		t.Error("HytaleRateLimitReports is nil")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Error("expected at least one metric family")
	}
}

func TestNewMetricsIncrement(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewPedanticRegistry()
	m := NewMetrics(reg)

	m.RequestsTotal.WithLabelValues("GET", "/api/player/minecraft/{query}", "200").Inc()
	m.CacheHits.Inc()
	m.CacheMisses.Inc()
	m.ActiveRequests.Set(5)
	m.RequestDuration.WithLabelValues("GET", "/api/player/minecraft/{query}").Observe(0.123)
	m.UpstreamCalls.WithLabelValues("minecraft", "rawtls", "ok").Inc()
	m.UpstreamLatency.WithLabelValues("minecraft", "rawtls").Observe(0.05)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather after increment: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	want := []string{
		"playerlookup_requests_total",
		"playerlookup_cache_hits_total",
		"playerlookup_cache_misses_total",
		"playerlookup_active_requests",
		"playerlookup_request_duration_seconds",
		"playerlookup_upstream_calls_total",
		"playerlookup_upstream_latency_seconds",
	}
	for _, name := range want {
		if !names[name] {
			t.Errorf("missing metric %q in gathered families", name)
		}
	}
}

// SetupTracing is not unit-tested because it requires a gRPC connection
// to an OTLP collector, which is integration-test territory.
