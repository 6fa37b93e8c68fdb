package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Get retrieves a cache entry by key, treating an expired row as a miss
// without deleting it; expiry cleanup happens lazily on Put collisions.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var val []byte
	var expiresAt string
	row := s.read.QueryRowContext(ctx, `SELECT value, expires_at FROM cache_entries WHERE key = ?`, key)
	if err := row.Scan(&val, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	exp, err := time.Parse(time.RFC3339, expiresAt)
	if err != nil {
		return nil, false, err
	}
	if time.Now().After(exp) {
		return nil, false, nil
	}
	return val, true, nil
}

// Put upserts a cache entry with an absolute expiry derived from ttl.
func (s *Store) Put(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl).UTC().Format(time.RFC3339)
	_, err := s.write.ExecContext(ctx,
		`INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, val, expiresAt,
	)
	return err
}

// Delete removes a cache entry.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.write.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
	return err
}

// PurgeExpired deletes all entries past their expiry; intended for
// periodic housekeeping rather than the request path.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.write.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at < ?`,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
