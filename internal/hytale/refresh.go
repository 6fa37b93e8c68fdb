package hytale

import (
	"context"
	"time"

	"github.com/eugener/playerlookup/internal/apperror"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

const accessTokenFreshness = 5 * time.Minute

// oauthConfig builds the oauth2.Config used to exchange a refresh token for
// an access token against the Hytale token endpoint. No client secret is
// required by this upstream; the refresh token alone authenticates the call.
func (m *Manager) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		Endpoint: oauth2.Endpoint{TokenURL: m.cfg.BaseURL + "/oauth2/token"},
	}
}

// AccessToken returns a valid access token, refreshing it if necessary.
// The fast path (no lock) serves a cached token that is fresh for at least
// accessTokenFreshness; otherwise it enters the critical section, re-checks
// freshness, and performs the refresh exactly once.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	if cached := m.fast.Load(); cached != nil && m.loaded {
		if cached.AccessToken != "" && cached.AccessTokenExpiresAt > m.nowMs()+accessTokenFreshness.Milliseconds() {
			return cached.AccessToken, nil
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.load(ctx)
	if err != nil {
		return "", err
	}
	// Re-check freshness inside the section: another caller may have
	// refreshed while we waited for the lock.
	if t.AccessToken != "" && t.AccessTokenExpiresAt > m.nowMs()+accessTokenFreshness.Milliseconds() {
		return t.AccessToken, nil
	}

	refreshToken := t.RefreshToken
	if refreshToken == "" {
		refreshToken = m.cfg.RefreshToken
	}
	if refreshToken == "" {
		return "", apperror.NewError("hytale.no_refresh_token", nil)
	}

	src := m.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		// The in-use refresh token was rejected: clear it so the next
		// attempt falls back to the env-configured one (§4.G).
		if t.RefreshToken != "" {
			t.RefreshToken = ""
			_ = m.persist(ctx, t)
		}
		return "", apperror.NewError("hytale.auth_failure", map[string]any{"message": "refresh access token: " + err.Error()})
	}

	t.AccessToken = tok.AccessToken
	t.AccessTokenExpiresAt = tok.Expiry.UnixMilli()
	if tok.RefreshToken != "" && tok.RefreshToken != refreshToken {
		t.RefreshToken = tok.RefreshToken
		t.RefreshTokenRotatedAt = m.nowMs()
	}

	if err := m.persist(ctx, t); err != nil {
		return "", err
	}
	return t.AccessToken, nil
}

// ProfileUUID resolves the caller's own profile uuid: env override, then
// cached value, then /my-account/get-profiles (§4.G).
func (m *Manager) ProfileUUID(ctx context.Context) (string, error) {
	if m.cfg.ProfileUUID != "" {
		return m.cfg.ProfileUUID, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.load(ctx)
	if err != nil {
		return "", err
	}
	if t.ProfileUUID != "" {
		return t.ProfileUUID, nil
	}

	accessToken, err := m.accessTokenLocked(ctx, t)
	if err != nil {
		return "", err
	}

	body, status, err := m.postJSON(ctx, "/my-account/get-profiles", accessToken, nil)
	if err != nil {
		return "", err
	}
	if status != 200 {
		return "", apperror.NewError("hytale.api_failure", map[string]any{"status": status})
	}
	profiles := gjson.GetBytes(body, "profiles")
	if !profiles.IsArray() || len(profiles.Array()) == 0 {
		return "", apperror.NewFail("hytale.no_profiles", nil)
	}
	uuid := profiles.Array()[0].Get("uuid").String()

	t.ProfileUUID = uuid
	if err := m.persist(ctx, t); err != nil {
		return "", err
	}
	return uuid, nil
}

// accessTokenLocked performs the same freshness check and refresh as
// AccessToken but assumes mu is already held and reuses the already-loaded
// t, avoiding a redundant load/persist round trip.
func (m *Manager) accessTokenLocked(ctx context.Context, t *StoredTokens) (string, error) {
	if t.AccessToken != "" && t.AccessTokenExpiresAt > m.nowMs()+accessTokenFreshness.Milliseconds() {
		return t.AccessToken, nil
	}

	refreshToken := t.RefreshToken
	if refreshToken == "" {
		refreshToken = m.cfg.RefreshToken
	}
	if refreshToken == "" {
		return "", apperror.NewError("hytale.no_refresh_token", nil)
	}

	src := m.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		if t.RefreshToken != "" {
			t.RefreshToken = ""
		}
		return "", apperror.NewError("hytale.auth_failure", map[string]any{"message": "refresh access token: " + err.Error()})
	}

	t.AccessToken = tok.AccessToken
	t.AccessTokenExpiresAt = tok.Expiry.UnixMilli()
	if tok.RefreshToken != "" && tok.RefreshToken != refreshToken {
		t.RefreshToken = tok.RefreshToken
		t.RefreshTokenRotatedAt = m.nowMs()
	}
	return t.AccessToken, nil
}
