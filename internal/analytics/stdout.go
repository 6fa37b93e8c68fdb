package analytics

import (
	"context"
	"log/slog"
)

// StdoutWriter logs each batch via slog rather than shipping to the actual
// external telemetry dataset (out of scope, §1). It is the concrete
// ColumnWriter this repo ships; a real deployment plugs in the dataset's
// own client instead.
type StdoutWriter struct{}

// WritePoints logs one structured line per point, in column order.
func (StdoutWriter) WritePoints(ctx context.Context, points []Point) error {
	for _, p := range points {
		slog.LogAttrs(ctx, slog.LevelInfo, "analytics point",
			slog.String("type", p.Type),
			slog.String("error", p.Error),
			slog.String("request_type", p.RequestType),
			slog.String("url", p.URL),
			slog.String("country", p.Country),
			slog.String("colo", p.Colo),
			slog.Int("cached", p.Cached),
			slog.Int64("response_time_ms", p.ResponseTimeMs),
			slog.Int("status", p.Status),
		)
	}
	return nil
}
