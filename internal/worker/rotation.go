package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/eugener/playerlookup/internal/hytale"
)

const rotationInterval = time.Hour

// PoolSizeGauge receives the current Hytale session pool size after every
// rotation tick, for telemetry (§4.I).
type PoolSizeGauge interface {
	Set(v float64)
}

// RotationWorker periodically drives the Hytale session manager's proactive
// refresh, rotating the refresh token before it ages out and shrinking the
// pool when it has been idle (§4.I).
type RotationWorker struct {
	manager *hytale.Manager
	gauge   PoolSizeGauge // nil disables the pool-size gauge update
}

// NewRotationWorker creates a RotationWorker.
func NewRotationWorker(manager *hytale.Manager, gauge PoolSizeGauge) *RotationWorker {
	return &RotationWorker{manager: manager, gauge: gauge}
}

// Name returns the worker identifier.
func (w *RotationWorker) Name() string { return "hytale_rotation" }

// Run performs an initial rotation, then repeats hourly until ctx is
// cancelled.
func (w *RotationWorker) Run(ctx context.Context) error {
	w.tick(ctx)

	ticker := time.NewTicker(rotationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

func (w *RotationWorker) tick(ctx context.Context) {
	if err := w.manager.ProactiveRefresh(ctx); err != nil {
		slog.LogAttrs(ctx, slog.LevelError, "hytale proactive refresh failed",
			slog.String("error", err.Error()),
		)
	}

	if w.gauge == nil {
		return
	}
	size, err := w.manager.PoolSize(ctx)
	if err != nil {
		slog.LogAttrs(ctx, slog.LevelError, "hytale pool size read failed",
			slog.String("error", err.Error()),
		)
		return
	}
	w.gauge.Set(float64(size))
}
