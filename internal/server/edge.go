package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/eugener/playerlookup/internal/cache"
)

const (
	successCacheControl = "public, max-age=432000" // 5 days
	errorCacheControl   = "public, max-age=300"    // 5 minutes

	edgeWriteTimeout = 5 * time.Second
)

// edgeEntry is what the router-level response cache stores under a
// lowercased pathname: the status and the already-serialized envelope body,
// so a cache hit can be replayed without touching the pipeline (§4.C, §4.H).
type edgeEntry struct {
	Status       int             `json:"status"`
	Body         json.RawMessage `json:"body"`
	CacheControl string          `json:"cache_control"`
}

// edgeKey returns the router's edge-response cache key for path, distinct
// from the pipeline's platform-prefixed profile cache keys (§6).
func edgeKey(path string) string {
	return "edge-response-" + strings.ToLower(path)
}

// serveFromEdge replays a cached envelope verbatim, marking it with
// X-Worker-Cache per §6. Returns false on a miss or decode failure.
func (s *server) serveFromEdge(ctx context.Context, w http.ResponseWriter, key string) bool {
	if s.deps.Cache == nil {
		return false
	}
	raw, ok := s.deps.Cache.Get(ctx, key)
	if !ok {
		return false
	}
	var entry edgeEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return false
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.CacheHits.Inc()
	}
	h := w.Header()
	h["Content-Type"] = jsonCT
	h["X-Worker-Cache"] = []string{"true"}
	h["Cache-Control"] = []string{entry.CacheControl}
	w.WriteHeader(entry.Status)
	w.Write(entry.Body)
	return true
}

// writeAndCache serializes body, writes it to the client, and asynchronously
// writes it back to the edge cache under key. Callers that also have a
// resolved player.id write a second key themselves via putEdge.
func (s *server) writeAndCache(ctx context.Context, w http.ResponseWriter, status int, body any, key string) {
	data, err := json.Marshal(body)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, failureEnvelope("api.unknown_error", "an unexpected error occurred", nil))
		return
	}

	cacheControl := successCacheControl
	if status != http.StatusOK {
		cacheControl = errorCacheControl
	}

	h := w.Header()
	h["Content-Type"] = jsonCT
	h["Cache-Control"] = []string{cacheControl}
	w.WriteHeader(status)
	w.Write(data)

	if s.deps.Metrics != nil {
		s.deps.Metrics.CacheMisses.Inc()
	}
	s.putEdge(ctx, key, status, data, cacheControl)
}

// putEdge writes one edge-cache entry from a detached, post-response
// continuation so it survives the client disconnecting (§5, §9).
func (s *server) putEdge(reqCtx context.Context, key string, status int, data json.RawMessage, cacheControl string) {
	if s.deps.Cache == nil {
		return
	}
	entry := edgeEntry{Status: status, Body: data, CacheControl: cacheControl}
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	ttl := 5 * 24 * time.Hour
	if status != http.StatusOK {
		ttl = 5 * time.Minute
	}
	ctx, cancel := cache.Detach(reqCtx, edgeWriteTimeout)
	go func() {
		defer cancel()
		s.deps.Cache.Put(ctx, key, payload, ttl)
	}()
}
