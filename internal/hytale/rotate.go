package hytale

import "context"

const rotationAgeMs = 23 * 24 * 60 * 60 * 1000 // 23 days, in ms

// ProactiveRefresh is called by the scheduled rotation worker (§4.I). If the
// refresh token has not been rotated in 23 days it performs an access-token
// refresh (observing any rotation the upstream offers), then shrinks the
// pool if it has been idle.
func (m *Manager) ProactiveRefresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.load(ctx)
	if err != nil {
		return err
	}

	if t.RefreshTokenRotatedAt == 0 || m.nowMs()-t.RefreshTokenRotatedAt >= rotationAgeMs {
		if _, err := m.accessTokenLocked(ctx, t); err != nil {
			return err
		}
	}

	m.shrink(t)
	return m.persist(ctx, t)
}

// PoolSize reports the current number of sessions held in the pool,
// regardless of validity, for telemetry purposes.
func (m *Manager) PoolSize(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(t.Sessions), nil
}
