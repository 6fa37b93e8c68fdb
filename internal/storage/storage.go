// Package storage defines persistence interfaces for the lookup gateway.
package storage

import (
	"context"
	"time"
)

// CacheStore is the persistence interface consumed by internal/cache.Facade.
// It matches cache.Store structurally so *sqlite.Store satisfies both
// without an adapter.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// TokenStore is the persistence interface consumed by internal/hytale.Manager
// for its single `tokens` blob row (§6, Persistent state layout).
type TokenStore interface {
	GetToken(ctx context.Context, name string) ([]byte, bool, error)
	PutToken(ctx context.Context, name string, val []byte) error
	DeleteToken(ctx context.Context, name string) error
}

// Store combines all storage interfaces backing the gateway.
type Store interface {
	CacheStore
	TokenStore
	Ping(ctx context.Context) error
	Close() error
}
