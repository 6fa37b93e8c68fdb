package worker

import (
	"context"
	"errors"
	"testing"
)

type fakePurger struct {
	n      int64
	err    error
	calls  int
	signal chan struct{}
}

func (f *fakePurger) PurgeExpired(ctx context.Context) (int64, error) {
	f.calls++
	if f.signal != nil {
		f.signal <- struct{}{}
	}
	return f.n, f.err
}

func TestPurgeWorker_Name(t *testing.T) {
	t.Parallel()
	w := NewPurgeWorker(&fakePurger{})
	if w.Name() != "cache_purge" {
		t.Errorf("Name() = %q, want cache_purge", w.Name())
	}
}

func TestPurgeWorker_RunExitsOnCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	w := NewPurgeWorker(&fakePurger{})
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
}

func TestPurgeWorker_FailingStoreExitsOnCancel(t *testing.T) {
	t.Parallel()
	p := &fakePurger{err: errors.New("boom")}
	w := NewPurgeWorker(p)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
}
