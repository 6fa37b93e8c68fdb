package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/eugener/playerlookup/internal/hytale"
)

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

type fakeGauge struct {
	mu  sync.Mutex
	val float64
	set bool
}

func (g *fakeGauge) Set(v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.val = v
	g.set = true
}

func (g *fakeGauge) snapshot() (float64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.val, g.set
}

// seeded store already holds a freshly rotated refresh token and an empty
// session list, so ProactiveRefresh takes the shrink-only path with no HTTP
// calls required.
func seededStore(t *testing.T, now time.Time) *memTokenStore {
	t.Helper()
	tokens := map[string]any{
		"refresh_token":             "seed-refresh",
		"refresh_token_rotated_at":  now.UnixMilli(),
		"access_token":              "seed-access",
		"access_token_expires_at":   now.Add(time.Hour).UnixMilli(),
		"profile_uuid":              "seed-profile",
		"sessions":                  []any{},
		"next_session_index":        0,
	}
	raw, err := json.Marshal(tokens)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	return &memTokenStore{val: raw, ok: true}
}

func TestRotationWorker_Run(t *testing.T) {
	t.Parallel()
	store := seededStore(t, time.Now())
	mgr := hytale.New(store, nil, hytale.Config{})
	gauge := &fakeGauge{}
	w := NewRotationWorker(mgr, gauge)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	if _, set := gauge.snapshot(); !set {
		t.Error("expected pool size gauge to be set")
	}
}

func TestRotationWorker_Name(t *testing.T) {
	w := NewRotationWorker(hytale.New(&memTokenStore{}, nil, hytale.Config{}), nil)
	if w.Name() != "hytale_rotation" {
		t.Errorf("Name() = %q", w.Name())
	}
}
