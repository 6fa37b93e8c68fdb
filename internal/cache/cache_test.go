package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	data map[string][]byte
	err  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (f *fakeStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeStore) Put(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.data[key] = val
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func TestFacade_GetMissFallsThroughToStore(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.data["k"] = []byte("v")
	edge, err := NewMemory(100, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	f := New(store, edge, nil)

	val, ok := f.Get(context.Background(), "k")
	if !ok || string(val) != "v" {
		t.Fatalf("Get = %q, %v, want v, true", val, ok)
	}

	// Second read should now hit the edge cache directly.
	time.Sleep(20 * time.Millisecond)
	delete(store.data, "k")
	val, ok = f.Get(context.Background(), "k")
	if !ok || string(val) != "v" {
		t.Fatalf("Get after edge population = %q, %v, want v, true", val, ok)
	}
}

func TestFacade_GetStoreErrorIsMiss(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.err = errors.New("boom")
	f := New(store, nil, nil)

	if _, ok := f.Get(context.Background(), "k"); ok {
		t.Error("store error must be reported as a cache miss")
	}
}

func TestFacade_BypassSkipsRead(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.data["k"] = []byte("v")
	f := New(store, nil, func() bool { return true })

	if _, ok := f.Get(context.Background(), "k"); ok {
		t.Error("bypass=true must skip reads")
	}
}

func TestFacade_PutWritesBothLayers(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	edge, err := NewMemory(100, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	f := New(store, edge, nil)

	f.Put(context.Background(), "k", []byte("v"), time.Minute)
	time.Sleep(20 * time.Millisecond)

	if string(store.data["k"]) != "v" {
		t.Error("Put should write through to the persistent store")
	}
	if val, ok := edge.Get(context.Background(), "k"); !ok || string(val) != "v" {
		t.Error("Put should populate the edge cache")
	}
}

func TestFacade_Delete(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.data["k"] = []byte("v")
	edge, err := NewMemory(100, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	f := New(store, edge, nil)
	f.Put(context.Background(), "k", []byte("v"), time.Minute)
	time.Sleep(20 * time.Millisecond)

	f.Delete(context.Background(), "k")

	if _, ok := store.data["k"]; ok {
		t.Error("Delete should remove from the persistent store")
	}
	if _, ok := edge.Get(context.Background(), "k"); ok {
		t.Error("Delete should remove from the edge cache")
	}
}

func TestDetach_SurvivesParentCancellation(t *testing.T) {
	t.Parallel()
	parent, cancel := context.WithCancel(context.Background())
	ctx, detachCancel := Detach(parent, time.Second)
	defer detachCancel()
	cancel()

	if ctx.Err() != nil {
		t.Error("detached context must not be canceled by its parent")
	}
}
