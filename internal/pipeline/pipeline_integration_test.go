package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/eugener/playerlookup/internal/cache"
	"github.com/eugener/playerlookup/internal/hytale"
	"github.com/eugener/playerlookup/internal/transport"
)

// memTokenStore is an in-memory storage.TokenStore fake for driving
// internal/hytale.Manager in tests, mirroring internal/hytale/pool_test.go's
// memStore (unexported there, so restated here for this package's tests).
type memTokenStore struct {
	mu  sync.Mutex
	val []byte
	ok  bool
}

func (m *memTokenStore) GetToken(_ context.Context, _ string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.val, m.ok, nil
}

func (m *memTokenStore) PutToken(_ context.Context, _ string, val []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.val = val
	m.ok = true
	return nil
}

func (m *memTokenStore) DeleteToken(_ context.Context, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.val = nil
	m.ok = false
	return nil
}

// newFakeDeps builds a Deps wired to an httptest.Server for mux, with a
// fresh in-process edge cache and no persistent store, and a Hytale manager
// pointed at the same server for its OAuth/session endpoints.
func newFakeDeps(t *testing.T, mux *http.ServeMux) (*Deps, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	edge, err := cache.NewMemory(100, time.Hour)
	if err != nil {
		t.Fatalf("new memory cache: %v", err)
	}

	mgr := hytale.New(&memTokenStore{}, srv.Client(), hytale.Config{
		BaseURL:      srv.URL,
		RefreshToken: "refresh-token",
		MinPool:      1,
		MaxPool:      3,
	})

	d := &Deps{
		Cache:            cache.New(nil, edge, nil),
		Fetch:            transport.NewFetcher(nil),
		RawTLS:           transport.NewRawTLS(),
		Proxy:            transport.NewContainerProxy(srv.Client(), []string{srv.URL}),
		Hytale:           mgr,
		MinecraftBaseURL: srv.URL,
		XboxBaseURL:      srv.URL,
		SteamBaseURL:     srv.URL,
		HytaleBaseURL:    srv.URL,
	}
	return d, srv
}

// failIfCalled returns a handler that fails the test if the upstream is ever
// hit, for asserting a cache hit short-circuits the transport entirely.
func failIfCalled(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected upstream call: %s %s", r.Method, r.URL.String())
	}
}
