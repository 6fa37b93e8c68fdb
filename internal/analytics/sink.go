package analytics

import (
	"context"
	"log/slog"
	"time"
)

const (
	sinkChanSize   = 1000
	sinkBatchSize  = 100
	sinkFlushEvery = 5 * time.Second
	sinkDrainTime  = 10 * time.Second
)

// ColumnWriter delivers a batch of points to the external telemetry dataset
// (§4.J). The dataset itself is an out-of-scope external collaborator (§1);
// this is the seam a concrete deployment plugs into.
type ColumnWriter interface {
	WritePoints(ctx context.Context, points []Point) error
}

// Sink buffers points and batch-flushes them to a ColumnWriter. Points are
// dropped if the channel is full, trading completeness for never blocking
// the request path (§5: background work must not stall the response).
type Sink struct {
	ch     chan Point
	writer ColumnWriter
}

// NewSink creates a Sink backed by writer.
func NewSink(writer ColumnWriter) *Sink {
	return &Sink{
		ch:     make(chan Point, sinkChanSize),
		writer: writer,
	}
}

// Name returns the worker identifier.
func (s *Sink) Name() string { return "analytics_sink" }

// Write enqueues a point. It never blocks; it drops on a full channel.
func (s *Sink) Write(p Point) {
	select {
	case s.ch <- p:
	default:
		slog.Warn("analytics point dropped, channel full")
	}
}

// Run batches points until ctx is cancelled, then drains what remains.
func (s *Sink) Run(ctx context.Context) error {
	ticker := time.NewTicker(sinkFlushEvery)
	defer ticker.Stop()

	buf := make([]Point, 0, sinkBatchSize)

	for {
		select {
		case p := <-s.ch:
			buf = append(buf, p)
			if len(buf) >= sinkBatchSize {
				s.flush(ctx, buf)
				buf = buf[:0]
			}

		case <-ticker.C:
			if len(buf) > 0 {
				s.flush(ctx, buf)
				buf = buf[:0]
			}

		case <-ctx.Done():
			s.drain(buf)
			return nil
		}
	}
}

func (s *Sink) drain(buf []Point) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkDrainTime)
	defer cancel()

	for {
		select {
		case p := <-s.ch:
			buf = append(buf, p)
			if len(buf) >= sinkBatchSize {
				s.flush(ctx, buf)
				buf = buf[:0]
			}
		default:
			if len(buf) > 0 {
				s.flush(ctx, buf)
			}
			return
		}
	}
}

func (s *Sink) flush(ctx context.Context, buf []Point) {
	batch := make([]Point, len(buf))
	copy(batch, buf)

	if err := s.writer.WritePoints(ctx, batch); err != nil {
		slog.LogAttrs(ctx, slog.LevelError, "analytics flush failed",
			slog.Int("count", len(batch)),
			slog.String("error", err.Error()),
		)
	}
}
