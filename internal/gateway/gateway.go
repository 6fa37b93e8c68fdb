// Package gateway defines domain types shared across the player-identity
// lookup gateway. This package has no project imports -- it is the
// dependency root.
package gateway

import (
	"context"
	"time"
)

// Platform identifies one of the supported upstream identity services.
type Platform string

const (
	PlatformMinecraft Platform = "minecraft"
	PlatformSteam     Platform = "steam"
	PlatformXbox      Platform = "xbox"
	PlatformHytale    Platform = "hytale"
)

// TTL returns the persistent-store and edge-cache TTLs for the platform,
// per the fixed design constants table.
func (p Platform) TTL() (store, edge time.Duration) {
	switch p {
	case PlatformHytale:
		return 10 * 24 * time.Hour, 5 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour, 5 * 24 * time.Hour
	}
}

// NegativeTTL is the Xbox-only negative cache duration.
const NegativeTTL = 1 * time.Hour

// PlayerProfile is the uniform return shape for all platform lookups.
type PlayerProfile struct {
	ID          string         `json:"id"`
	RawID       string         `json:"raw_id,omitempty"`
	Username    string         `json:"username"`
	Avatar      string         `json:"avatar"`
	SkinTexture string         `json:"skin_texture,omitempty"`
	CapeTexture string         `json:"cape_texture,omitempty"`
	Properties  any            `json:"properties,omitempty"`
	NameHistory []string       `json:"name_history"`
	Meta        map[string]any `json:"meta"`
	CachedAt    int64          `json:"cached_at"`
}

// NegativeEntry is the Xbox-only sentinel marking a definitive not-found
// result, cached briefly to avoid burning quota on repeated misses.
type NegativeEntry struct {
	NotFound bool `json:"not_found"`
}

// CacheEntry is a tagged envelope holding either a PlayerProfile or a
// NegativeEntry. The pipelines do not write it: they store a bare
// PlayerProfile or NegativeEntry JSON object, and the Xbox reader tells the
// two apart by decoding the value as a NegativeEntry first.
type CacheEntry struct {
	Negative bool           `json:"negative,omitempty"`
	Profile  *PlayerProfile `json:"profile,omitempty"`
}

// --- context helpers ---

type contextKey int

const (
	ctxKeyRequestID contextKey = iota
	ctxKeyStartTime
)

// ContextWithRequestID returns a context carrying the given request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// RequestIDFromContext extracts the request ID from context, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// ContextWithStartTime stamps the context with the request's start time.
func ContextWithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ctxKeyStartTime, t)
}

// StartTimeFromContext extracts the request start time, or the zero time.
func StartTimeFromContext(ctx context.Context) time.Time {
	t, _ := ctx.Value(ctxKeyStartTime).(time.Time)
	return t
}
