package hytale

import (
	"context"

	"github.com/eugener/playerlookup/internal/apperror"
	"github.com/tidwall/gjson"
)

// GetSessionToken ensures the pool has at least min_pool valid sessions,
// then returns the next available session by round-robin (§4.G).
func (m *Manager) GetSessionToken(ctx context.Context, force bool) (SessionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.load(ctx)
	if err != nil {
		return SessionInfo{}, err
	}
	if err := m.ensureMinPool(ctx, t); err != nil {
		return SessionInfo{}, err
	}

	session, err := m.nextSession(ctx, t)
	if err != nil {
		return SessionInfo{}, err
	}
	if err := m.persist(ctx, t); err != nil {
		return SessionInfo{}, err
	}
	return session, nil
}

// GetSessionTokenForContainer returns a valid session not currently
// rate-limited; if all are rate-limited, returns the one whose rate-limit
// timestamp is oldest (§4.G).
func (m *Manager) GetSessionTokenForContainer(ctx context.Context) (SessionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.load(ctx)
	if err != nil {
		return SessionInfo{}, err
	}
	if err := m.ensureMinPool(ctx, t); err != nil {
		return SessionInfo{}, err
	}

	now := m.nowMs()
	var best *SessionInfo
	for i := range t.Sessions {
		s := &t.Sessions[i]
		if !s.valid(now) {
			continue
		}
		if s.RateLimitedUntil <= now {
			return *s, nil
		}
		if best == nil || s.RateLimitedUntil < best.RateLimitedUntil {
			best = s
		}
	}
	if best == nil {
		return SessionInfo{}, apperror.NewError("hytale.rate_limited", nil)
	}
	return *best, nil
}

// ReportRateLimit stamps the matching session with a 60s cool-down,
// records the observation, and opportunistically expands the pool (§4.G).
func (m *Manager) ReportRateLimit(ctx context.Context, sessionToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.load(ctx)
	if err != nil {
		return err
	}
	now := m.nowMs()
	for i := range t.Sessions {
		if t.Sessions[i].SessionToken == sessionToken {
			t.Sessions[i].RateLimitedUntil = now + 60*1000
		}
	}
	t.LastRateLimitSeen = now
	m.expand(ctx, t)
	return m.persist(ctx, t)
}

// ensureMinPool partitions sessions into valid/expired, tries to refresh
// each expired one while below min_pool, then mints new sessions until
// min_pool is met (§4.G, Ensure-min-pool).
func (m *Manager) ensureMinPool(ctx context.Context, t *StoredTokens) error {
	now := m.nowMs()
	var valid []SessionInfo
	var expired []SessionInfo
	for _, s := range t.Sessions {
		if s.valid(now) {
			valid = append(valid, s)
		} else {
			expired = append(expired, s)
		}
	}

	minPool := m.cfg.minPool()
	for _, s := range expired {
		if len(valid) >= minPool {
			break
		}
		if refreshed, ok := m.refreshSession(ctx, s); ok {
			valid = append(valid, refreshed)
		}
	}

	for len(valid) < minPool {
		accessToken, err := m.accessTokenLocked(ctx, t)
		if err != nil {
			if len(valid) == 0 {
				t.Sessions = valid
				return err
			}
			break
		}
		profileUUID, err := m.resolveProfileUUIDLocked(ctx, t, accessToken)
		if err != nil {
			if len(valid) == 0 {
				t.Sessions = valid
				return err
			}
			break
		}
		session, err := m.createSession(ctx, accessToken, profileUUID)
		if err != nil {
			if len(valid) == 0 {
				t.Sessions = valid
				return err
			}
			break
		}
		valid = append(valid, session)
	}

	t.Sessions = valid
	if t.NextSessionIndex >= len(t.Sessions) {
		t.NextSessionIndex = 0
	}
	if len(t.Sessions) == 0 {
		return apperror.NewError("hytale.session_creation_failed", nil)
	}
	return nil
}

// resolveProfileUUIDLocked resolves the profile uuid while mu is already
// held, reusing t instead of re-entering the section.
func (m *Manager) resolveProfileUUIDLocked(ctx context.Context, t *StoredTokens, accessToken string) (string, error) {
	if m.cfg.ProfileUUID != "" {
		return m.cfg.ProfileUUID, nil
	}
	if t.ProfileUUID != "" {
		return t.ProfileUUID, nil
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
	t.ProfileUUID = profiles.Array()[0].Get("uuid").String()
	return t.ProfileUUID, nil
}

// nextSession scans the pool starting at next_session_index for the first
// available session, advances the cursor past it, and returns it. If none
// is available it attempts expand and returns the new session; otherwise
// it raises hytale.rate_limited (§4.G, Next-session selection).
func (m *Manager) nextSession(ctx context.Context, t *StoredTokens) (SessionInfo, error) {
	n := len(t.Sessions)
	if n == 0 {
		return SessionInfo{}, apperror.NewError("hytale.rate_limited", nil)
	}
	now := m.nowMs()
	start := t.NextSessionIndex
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if t.Sessions[idx].available(now) {
			t.NextSessionIndex = (idx + 1) % n
			return t.Sessions[idx], nil
		}
	}
	if m.expand(ctx, t) {
		added := t.Sessions[len(t.Sessions)-1]
		t.NextSessionIndex = 0
		return added, nil
	}
	return SessionInfo{}, apperror.NewError("hytale.rate_limited", nil)
}

// expand mints one new session and appends it if the pool is below
// max_pool (§4.G). Returns true if a session was added.
func (m *Manager) expand(ctx context.Context, t *StoredTokens) bool {
	if len(t.Sessions) >= m.cfg.maxPool() {
		return false
	}
	accessToken, err := m.accessTokenLocked(ctx, t)
	if err != nil {
		return false
	}
	profileUUID, err := m.resolveProfileUUIDLocked(ctx, t, accessToken)
	if err != nil {
		return false
	}
	session, err := m.createSession(ctx, accessToken, profileUUID)
	if err != nil {
		return false
	}
	t.Sessions = append(t.Sessions, session)
	return true
}

// shrink truncates the valid portion of the pool back to min_pool when the
// pool has been idle (no rate limits observed) for 10 minutes (§4.G).
func (m *Manager) shrink(t *StoredTokens) {
	const idleWindowMs = 10 * 60 * 1000
	if t.LastRateLimitSeen == 0 || m.nowMs()-t.LastRateLimitSeen < idleWindowMs {
		return
	}
	minPool := m.cfg.minPool()
	if len(t.Sessions) > minPool {
		t.Sessions = t.Sessions[:minPool]
	}
	t.NextSessionIndex = 0
}
