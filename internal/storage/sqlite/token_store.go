package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// GetToken retrieves the raw JSON blob stored under name, or (nil, false)
// if no row exists yet.
func (s *Store) GetToken(ctx context.Context, name string) ([]byte, bool, error) {
	var val []byte
	row := s.read.QueryRowContext(ctx, `SELECT value FROM tokens WHERE name = ?`, name)
	if err := row.Scan(&val); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

// PutToken upserts the blob stored under name. The Hytale manager calls
// this exactly once per mutation inside its single-writer critical section.
func (s *Store) PutToken(ctx context.Context, name string, val []byte) error {
	_, err := s.write.ExecContext(ctx,
		`INSERT INTO tokens (name, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, val, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// DeleteToken wipes the blob stored under name, used by reset_all_tokens.
func (s *Store) DeleteToken(ctx context.Context, name string) error {
	_, err := s.write.ExecContext(ctx, `DELETE FROM tokens WHERE name = ?`, name)
	return err
}
