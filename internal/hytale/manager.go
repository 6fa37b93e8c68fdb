package hytale

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eugener/playerlookup/internal/apperror"
	"github.com/eugener/playerlookup/internal/storage"
)

const tokensName = "tokens"

// Config holds the manager's environment-supplied settings (§6, §4.G).
type Config struct {
	BaseURL      string // account-data / oauth host, e.g. "https://account-data.hytale.com"
	RefreshToken string // HYTALE_REFRESH_TOKEN fallback
	ProfileUUID  string // HYTALE_PROFILE_UUID override
	MinPool      int    // HYTALE_SESSION_POOL_MIN, default 1
	MaxPool      int    // HYTALE_SESSION_POOL_MAX, default 10
}

func (c Config) minPool() int {
	if c.MinPool > 0 {
		return c.MinPool
	}
	return 1
}

func (c Config) maxPool() int {
	if c.MaxPool > 0 {
		return c.MaxPool
	}
	return 10
}

// Manager is the process-wide singleton token and session pool manager.
// All state mutation passes through mu; fresh, still-valid access tokens
// are served from the atomic fast path without entering the section.
type Manager struct {
	store storage.TokenStore
	http  *http.Client
	cfg   Config
	now   func() time.Time

	mu     sync.Mutex
	fast   atomic.Pointer[StoredTokens]
	loaded bool
}

// New constructs a Manager backed by store. http is used for OAuth and
// game-session HTTP calls.
func New(store storage.TokenStore, httpClient *http.Client, cfg Config) *Manager {
	return &Manager{store: store, http: httpClient, cfg: cfg, now: time.Now}
}

func (m *Manager) nowMs() int64 { return m.now().UnixMilli() }

// load reads the persisted StoredTokens blob, applying legacy migration
// on first access, and populates the atomic fast path. Must be called
// with mu held or before any concurrent access exists.
func (m *Manager) load(ctx context.Context) (*StoredTokens, error) {
	if cached := m.fast.Load(); cached != nil && m.loaded {
		return cached.clone(), nil
	}
	raw, ok, err := m.store.GetToken(ctx, tokensName)
	if err != nil {
		return nil, apperror.NewError("hytale.api_failure", map[string]any{"message": "load tokens: " + err.Error()})
	}
	var t StoredTokens
	if ok {
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, apperror.NewError("hytale.api_failure", map[string]any{"message": "decode tokens: " + err.Error()})
		}
	}
	migrateLegacy(&t)
	m.loaded = true
	m.fast.Store(t.clone())
	return t.clone(), nil
}

// persist writes t both to the atomic fast path and the backing store.
// Called only from inside the critical section, before it releases
// (§5, Shared-resource policy).
func (m *Manager) persist(ctx context.Context, t *StoredTokens) error {
	m.fast.Store(t.clone())
	raw, err := json.Marshal(t)
	if err != nil {
		return apperror.NewError("hytale.api_failure", map[string]any{"message": "encode tokens: " + err.Error()})
	}
	if err := m.store.PutToken(ctx, tokensName, raw); err != nil {
		return apperror.NewError("hytale.api_failure", map[string]any{"message": "persist tokens: " + err.Error()})
	}
	return nil
}

// InvalidateTokens clears the access token and the entire session pool,
// preserving the refresh token (§4.G).
func (m *Manager) InvalidateTokens(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.load(ctx)
	if err != nil {
		return err
	}
	t.AccessToken = ""
	t.AccessTokenExpiresAt = 0
	t.Sessions = nil
	t.NextSessionIndex = 0
	return m.persist(ctx, t)
}

// ResetAllTokens wipes the persisted state entirely (§4.G).
func (m *Manager) ResetAllTokens(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fast.Store(&StoredTokens{})
	m.loaded = true
	if err := m.store.DeleteToken(ctx, tokensName); err != nil {
		return apperror.NewError("hytale.api_failure", map[string]any{"message": "reset tokens: " + err.Error()})
	}
	return nil
}

// migrateLegacy lifts a single-session legacy record into the pool as its
// sole element on first run (§4.G, Legacy migration).
func migrateLegacy(t *StoredTokens) {
	if len(t.Sessions) != 0 || t.LegacySessionToken == "" || t.LegacyIdentityToken == "" {
		return
	}
	t.Sessions = []SessionInfo{{
		SessionToken:  t.LegacySessionToken,
		IdentityToken: t.LegacyIdentityToken,
		ExpiresAt:     t.LegacyIdentityTokenExpiresAt,
	}}
	t.LegacySessionToken = ""
	t.LegacyIdentityToken = ""
	t.LegacyIdentityTokenExpiresAt = 0
}
