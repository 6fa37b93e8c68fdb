package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eugener/playerlookup/internal/analytics"
	"github.com/eugener/playerlookup/internal/apperror"
	"github.com/eugener/playerlookup/internal/gateway"
)

var platforms = map[string]gateway.Platform{
	"minecraft": gateway.PlatformMinecraft,
	"steam":     gateway.PlatformSteam,
	"xbox":      gateway.PlatformXbox,
	"hytale":    gateway.PlatformHytale,
}

// handleLookup implements GET /api/player/{platform}/{query} (§4.F, §4.H,
// §6): edge-cache-first, dispatch to the pipeline on miss, envelope the
// result, and write it back to the edge cache under both the request path
// and (on success) a second path keyed by the resolved player id.
func (s *server) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := gateway.StartTimeFromContext(ctx)
	key := edgeKey(r.URL.Path)

	if s.serveFromEdge(ctx, w, key) {
		s.deps.Analytics.WritePoint(ctx, r, analytics.Outcome{
			RequestType: "lookup", Cached: true, Status: http.StatusOK,
		}, start)
		return
	}

	platform, ok := platforms[strings.ToLower(chi.URLParam(r, "platform"))]
	if !ok {
		err := apperror.NewFail("api.404", nil)
		status, body := mapError(err)
		s.writeAndCache(ctx, w, status, body, key)
		s.deps.Analytics.WritePoint(ctx, r, analytics.Outcome{RequestType: "lookup", Status: status, Err: err}, start)
		return
	}
	query := chi.URLParam(r, "query")

	profile, err := s.deps.Pipeline.Lookup(ctx, platform, query)
	if err != nil {
		status, body := mapError(err)
		s.writeAndCache(ctx, w, status, body, key)
		s.deps.Analytics.WritePoint(ctx, r, analytics.Outcome{RequestType: "lookup", Status: status, Err: err}, start)
		return
	}

	body := successEnvelope(profile)
	s.writeAndCache(ctx, w, http.StatusOK, body, key)
	s.deps.Analytics.WritePoint(ctx, r, analytics.Outcome{RequestType: "lookup", Status: http.StatusOK}, start)

	if profile.ID != "" && !strings.EqualFold(profile.ID, query) {
		idPath := strings.Replace(r.URL.Path, query, strings.ToLower(profile.ID), 1)
		if data, err := json.Marshal(body); err == nil {
			s.putEdge(ctx, edgeKey(idPath), http.StatusOK, data, successCacheControl)
		}
	}
}

// handleAPINotFound implements the api.404 branch of the §6 HTTP surface
// for any /api/* path that doesn't match the lookup route.
func (s *server) handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := edgeKey(r.URL.Path)
	if s.serveFromEdge(ctx, w, key) {
		return
	}
	status, body := mapError(apperror.NewFail("api.404", nil))
	s.writeAndCache(ctx, w, status, body, key)
}

// handleStatic delegates any non-/api path to the static-asset collaborator
// (§1, §4.H, §9); absent a collaborator, it is a plain 404.
func (s *server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if s.deps.Static != nil && s.deps.Static.ServeStatic(w, r) {
		return
	}
	http.NotFound(w, r)
}
