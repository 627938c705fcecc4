package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	ctx := context.Background()

	entry := &Entry{Data: []byte(`v`), StoredAt: time.Now(), TTL: time.Minute}

	if err := store.Set(ctx, "k", entry, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Data) != "v" {
		t.Errorf("Data = %s, want v", got.Data)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get after Delete = %v, want ErrMiss", err)
	}
}

// The sweep drops items past their physical deadline and leaves the rest.
func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	ctx := context.Background()

	old := &Entry{Data: []byte(`old`), StoredAt: time.Now(), TTL: time.Millisecond}
	fresh := &Entry{Data: []byte(`fresh`), StoredAt: time.Now(), TTL: time.Hour}

	store.Set(ctx, "old", old, 10*time.Millisecond)
	store.Set(ctx, "fresh", fresh, time.Hour)

	store.sweep(time.Now().Add(time.Second))

	if _, err := store.Get(ctx, "old"); !errors.Is(err, ErrMiss) {
		t.Errorf("swept entry should be absent, got %v", err)
	}
	if _, err := store.Get(ctx, "fresh"); err != nil {
		t.Errorf("unswept entry should remain, got %v", err)
	}
}

// End to end through the Cache: after the grace window passes and the sweep
// runs, even GetStale reports absent.
func TestMemoryStore_SweepBoundsStaleFallback(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()

	c := New(store, Config{DefaultTTL: time.Millisecond, Grace: 5 * time.Millisecond})
	ctx := context.Background()
	key := testKey("search", "swept")

	c.Set(ctx, key, []byte(`v`), time.Millisecond)

	store.sweep(time.Now().Add(time.Second))

	if _, err := c.GetStale(ctx, key); !errors.Is(err, ErrMiss) {
		t.Errorf("GetStale after sweep = %v, want ErrMiss", err)
	}
}

func TestMemoryStore_FlushAll(t *testing.T) {
	store := NewMemoryStore(0)
	defer store.Close()
	ctx := context.Background()

	entry := &Entry{Data: []byte(`v`), StoredAt: time.Now(), TTL: time.Minute}
	store.Set(ctx, "a", entry, time.Minute)
	store.Set(ctx, "b", entry, time.Minute)

	if err := store.FlushAll(ctx); err != nil {
		t.Fatalf("FlushAll failed: %v", err)
	}
	if _, err := store.Get(ctx, "a"); !errors.Is(err, ErrMiss) {
		t.Error("entries should be gone after FlushAll")
	}
}
