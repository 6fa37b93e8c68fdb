package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/eugener/playerlookup/internal/apperror"
	"github.com/eugener/playerlookup/internal/canon"
	"github.com/eugener/playerlookup/internal/gateway"
	"github.com/eugener/playerlookup/internal/hytale"
	"github.com/eugener/playerlookup/internal/transport"
	"github.com/tidwall/gjson"
)

const hytaleProfileURL = "https://account-data.hytale.com/profile/%s/%s"

// LookupHytale resolves a Hytale username or UUID to a PlayerProfile
// (§4.F, Hytale).
func (d *Deps) LookupHytale(ctx context.Context, query string) (*gateway.PlayerProfile, error) {
	kind, err := canon.Hytale(query)
	if err != nil {
		return nil, err
	}

	cacheKey := "hytale-profile-" + strings.ToLower(query)
	if entry, ok := d.cachedProfile(ctx, cacheKey); ok {
		return entry, nil
	}

	segment := "username"
	if kind == canon.HytaleUUID {
		segment = "uuid"
	}
	target := fmt.Sprintf(hytaleProfileURL, segment, url.PathEscape(strings.ToLower(query)))
	if d.HytaleBaseURL != "" {
		target = rewriteHost(target, d.HytaleBaseURL)
	}

	body, err := d.hytaleCallWithRetry(ctx, target)
	if err != nil {
		return nil, err
	}

	profile := normalizeHytaleProfile(body)
	d.writeHytaleEntry(ctx, query, profile)
	return profile, nil
}

// hytaleCallWithRetry obtains a session, performs the transport fallback
// chain, and retries once on an auth failure after invalidating tokens and
// acquiring a fresh session (§4.F, Hytale).
func (d *Deps) hytaleCallWithRetry(ctx context.Context, target string) (gjson.Result, error) {
	session, err := d.Hytale.GetSessionToken(ctx, false)
	if err != nil {
		return gjson.Result{}, err
	}

	body, err := d.hytaleCall(ctx, target, session)
	if err == nil {
		return body, nil
	}

	appErr, ok := err.(*apperror.Error)
	if !ok || !appErr.IsAuthError() {
		return gjson.Result{}, err
	}

	if invalidateErr := d.Hytale.InvalidateTokens(ctx); invalidateErr != nil {
		return gjson.Result{}, invalidateErr
	}
	session, err = d.Hytale.GetSessionToken(ctx, true)
	if err != nil {
		return gjson.Result{}, err
	}
	return d.hytaleCall(ctx, target, session)
}

// hytaleCall runs the raw-TLS → Fetch → container-proxy → vendor fallback
// chain for a single attempt, reporting rate limits back to the session
// pool manager as they're observed (§4.F, Hytale).
func (d *Deps) hytaleCall(ctx context.Context, target string, session hytale.SessionInfo) (gjson.Result, error) {
	req := transport.Request{
		URL:           target,
		Headers:       map[string]string{"Authorization": "Bearer " + session.SessionToken},
		Timeout:       transport.HytaleTimeout,
		FailCode:      "hytale.api_failure",
		AuthFailCode:  "hytale.auth_failure",
		RateLimitCode: "hytale.rate_limited",
		NonJSONCode:   "hytale.non_json",
	}

	res, err := d.RawTLS.Do(ctx, req)
	if err == nil {
		return res.Body, nil
	}
	if isAuthFailure(err) {
		return gjson.Result{}, err
	}

	res, err = d.Fetch.Do(ctx, req)
	if err == nil {
		return res.Body, nil
	}
	if isAuthFailure(err) {
		return gjson.Result{}, err
	}

	if appErr, ok := err.(*apperror.Error); ok && (appErr.Code == "hytale.rate_limited" || appErr.Code == "hytale.api_failure") {
		d.Hytale.ReportRateLimit(ctx, session.SessionToken)

		// vendorSession is the token the final vendor-API fallback encodes
		// into its query string. It defaults to the direct session but is
		// replaced by the container's session once the container step
		// below obtains one, per §4.F's "vendor API with the container's
		// session token in query".
		vendorSession := session.SessionToken

		proxySession, sessErr := d.Hytale.GetSessionTokenForContainer(ctx)
		if sessErr == nil {
			vendorSession = proxySession.SessionToken
			proxyReq := req
			proxyReq.Headers = map[string]string{"Authorization": "Bearer " + proxySession.SessionToken}
			res, err2 := d.Proxy.Do(ctx, proxyReq)
			if err2 == nil {
				return res.Body, nil
			}
			if isAuthFailure(err2) {
				return gjson.Result{}, err2
			}
			if appErr2, ok := err2.(*apperror.Error); ok && appErr2.Code == "hytale.rate_limited" {
				d.Hytale.ReportRateLimit(ctx, proxySession.SessionToken)
			}
		}

		vendorReq := req
		vendorURL, perr := url.Parse(target)
		if perr == nil {
			q := vendorURL.Query()
			q.Set("session", vendorSession)
			vendorURL.RawQuery = q.Encode()
			vendorReq.URL = vendorURL.String()
		}
		res, err3 := d.Fetch.Do(ctx, vendorReq)
		if err3 == nil {
			return res.Body, nil
		}
		return gjson.Result{}, err3
	}

	return gjson.Result{}, err
}

func isAuthFailure(err error) bool {
	appErr, ok := err.(*apperror.Error)
	return ok && appErr.IsAuthError()
}

// normalizeHytaleProfile builds the uniform PlayerProfile from an
// account-data profile response (§4.F, Hytale).
func normalizeHytaleProfile(body gjson.Result) *gateway.PlayerProfile {
	rawID := strings.ToLower(strings.ReplaceAll(body.Get("uuid").String(), "-", ""))
	var skin any
	if s := body.Get("skin"); s.Exists() {
		skin = s.Value()
	}
	meta := map[string]any{}
	if skin != nil {
		meta["skin"] = skin
	}

	return &gateway.PlayerProfile{
		ID:       canon.FormatUUID(rawID),
		RawID:    rawID,
		Username: body.Get("username").String(),
		Avatar:   "https://crafthead.net/hytale/avatar/" + canon.FormatUUID(rawID),
		Meta:     meta,
		CachedAt: time.Now().Unix(),
	}
}

// writeHytaleEntry writes up to three cache keys: the original query, the
// uuid, and the username, skipping duplicates (§4.F, Hytale).
func (d *Deps) writeHytaleEntry(ctx context.Context, query string, profile *gateway.PlayerProfile) {
	store, _ := gateway.PlatformHytale.TTL()
	payload, err := json.Marshal(gateway.CacheEntry{Profile: profile})
	if err != nil {
		return
	}
	seen := map[string]bool{}
	for _, key := range []string{
		"hytale-profile-" + strings.ToLower(query),
		"hytale-profile-" + strings.ToLower(profile.RawID),
		"hytale-profile-" + strings.ToLower(profile.Username),
	} {
		if key == "hytale-profile-" || seen[key] {
			continue
		}
		seen[key] = true
		d.writeBack(ctx, key, payload, store)
	}
}
