// Package cache implements the player-profile cache facade: a persistent
// key/value store layered under a process-ambient edge response cache.
package cache

import (
	"context"
	"time"
)

// Store is the persistent byte-level key/value contract. Implementations
// back onto SQLite (internal/storage/sqlite) or any external byte store.
// Reads that fail or time out are treated as misses by the facade, never
// as fatal errors.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// edgeTTL is the response-cache TTL shared by all platforms (5 days, §3).
const edgeTTL = 5 * 24 * time.Hour

// Facade is the cache contract consulted by the platform pipelines and the
// router's edge lookup. Get never blocks the response on a slow or failed
// read; Put is fire-and-forget and must outlive the request (see Detach).
type Facade struct {
	store  Store
	edge   *Memory
	bypass func() bool
}

// New constructs a Facade over a persistent store and an in-process edge
// cache. bypass is consulted on every read; when it returns true, reads are
// skipped entirely (writes still happen) per the BYPASS_CACHE switch.
func New(store Store, edge *Memory, bypass func() bool) *Facade {
	if bypass == nil {
		bypass = func() bool { return false }
	}
	return &Facade{store: store, edge: edge, bypass: bypass}
}

// Get looks up key, first in the in-process edge cache, then the persistent
// store. Any error is swallowed and reported as a miss: cache reads must
// never fail a request.
func (f *Facade) Get(ctx context.Context, key string) ([]byte, bool) {
	if f.bypass() {
		return nil, false
	}
	if f.edge != nil {
		if val, ok := f.edge.Get(ctx, key); ok {
			return val, true
		}
	}
	if f.store == nil {
		return nil, false
	}
	val, ok, err := f.store.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	if f.edge != nil {
		f.edge.Set(ctx, key, val, edgeTTL)
	}
	return val, true
}

// Put writes key to both cache layers. Callers issue this from a detached
// context (see Detach) so it survives after the response has been sent.
func (f *Facade) Put(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if f.edge != nil {
		e := ttl
		if e > edgeTTL {
			e = edgeTTL
		}
		f.edge.Set(ctx, key, val, e)
	}
	if f.store == nil {
		return
	}
	_ = f.store.Put(ctx, key, val, ttl)
}

// Delete removes key from both layers.
func (f *Facade) Delete(ctx context.Context, key string) {
	if f.edge != nil {
		f.edge.Delete(ctx, key)
	}
	if f.store != nil {
		_ = f.store.Delete(ctx, key)
	}
}

// Detach returns a context that is no longer tied to the inbound request's
// cancellation but carries a fresh bounded deadline, for work (cache puts,
// analytics) that must outlive the response. Mirrors the hosting runtime's
// waitUntil primitive referenced by the design notes.
func Detach(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
