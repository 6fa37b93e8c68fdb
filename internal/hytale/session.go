package hytale

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/eugener/playerlookup/internal/apperror"
	"github.com/tidwall/gjson"
)

// postJSON issues a POST against the manager's base URL with an optional
// bearer token and JSON body, returning the raw response body and status.
func (m *Manager) postJSON(ctx context.Context, path, bearer string, body any) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, 0, apperror.NewError("hytale.api_failure", map[string]any{"message": "encode request: " + err.Error()})
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, 0, apperror.NewError("hytale.api_failure", map[string]any{"message": "build request: " + err.Error()})
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := m.http.Do(req)
	if err != nil {
		return nil, 0, apperror.NewError("hytale.api_failure", map[string]any{"message": err.Error()})
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, apperror.NewError("hytale.api_failure", map[string]any{"message": "read response: " + err.Error()})
	}
	return out, resp.StatusCode, nil
}

// refreshSession POSTs /game-session/refresh; on any error it yields ok=false
// rather than a hard error, per §4.G ("on any error yield null").
func (m *Manager) refreshSession(ctx context.Context, s SessionInfo) (SessionInfo, bool) {
	body, status, err := m.postJSON(ctx, "/game-session/refresh", s.SessionToken, nil)
	if err != nil || status != 200 {
		return SessionInfo{}, false
	}
	token := gjson.GetBytes(body, "session").String()
	identity := gjson.GetBytes(body, "identity").String()
	if token == "" || identity == "" {
		return SessionInfo{}, false
	}
	expiresAt := gjson.GetBytes(body, "expires_at").Int()
	if expiresAt == 0 {
		expiresAt = m.nowMs() + int64(time.Hour/time.Millisecond)
	}
	return SessionInfo{SessionToken: token, IdentityToken: identity, ExpiresAt: expiresAt}, true
}

// createSession POSTs /game-session/new with the access token and profile
// uuid, requiring both a session and identity token in the response.
func (m *Manager) createSession(ctx context.Context, accessToken, profileUUID string) (SessionInfo, error) {
	body, status, err := m.postJSON(ctx, "/game-session/new", accessToken, map[string]string{"uuid": profileUUID})
	if err != nil {
		return SessionInfo{}, err
	}
	if status != 200 {
		return SessionInfo{}, apperror.NewError("hytale.session_creation_failed", map[string]any{"status": status})
	}
	token := gjson.GetBytes(body, "sessionToken").String()
	identity := gjson.GetBytes(body, "identityToken").String()
	if token == "" || identity == "" {
		return SessionInfo{}, apperror.NewError("hytale.session_creation_failed", nil)
	}
	expiresAt := gjson.GetBytes(body, "expiresAt").Int()
	if expiresAt == 0 {
		expiresAt = m.nowMs() + int64(time.Hour/time.Millisecond)
	}
	return SessionInfo{SessionToken: token, IdentityToken: identity, ExpiresAt: expiresAt}, nil
}
