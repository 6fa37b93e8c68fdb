package gateway

import (
	"context"
	"testing"
	"time"
)

func TestPlatformTTL(t *testing.T) {
	t.Parallel()
	cases := []struct {
		platform    Platform
		store, edge time.Duration
	}{
		{PlatformMinecraft, 7 * 24 * time.Hour, 5 * 24 * time.Hour},
		{PlatformSteam, 7 * 24 * time.Hour, 5 * 24 * time.Hour},
		{PlatformXbox, 7 * 24 * time.Hour, 5 * 24 * time.Hour},
		{PlatformHytale, 10 * 24 * time.Hour, 5 * 24 * time.Hour},
	}
	for _, c := range cases {
		store, edge := c.platform.TTL()
		if store != c.store || edge != c.edge {
			t.Errorf("%s.TTL() = %v, %v, want %v, %v", c.platform, store, edge, c.store, c.edge)
		}
	}
}

func TestContextRequestID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("RequestIDFromContext(empty) = %q, want \"\"", got)
	}
	ctx = ContextWithRequestID(ctx, "abc-123")
	if got := RequestIDFromContext(ctx); got != "abc-123" {
		t.Errorf("RequestIDFromContext = %q, want abc-123", got)
	}
}

func TestContextStartTime(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	if got := StartTimeFromContext(ctx); !got.IsZero() {
		t.Errorf("StartTimeFromContext(empty) = %v, want zero", got)
	}
	now := time.Now()
	ctx = ContextWithStartTime(ctx, now)
	if got := StartTimeFromContext(ctx); !got.Equal(now) {
		t.Errorf("StartTimeFromContext = %v, want %v", got, now)
	}
}
