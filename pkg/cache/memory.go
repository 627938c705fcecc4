package cache

import (
	"context"
	"sync"
	"time"
)

// memoryItem pairs an entry with its physical drop deadline.
type memoryItem struct {
	entry  *Entry
	dropAt time.Time
}

// MemoryStore is an in-process Store with a periodic sweep.
// It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*memoryItem

	sweepInterval time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
}

// NewMemoryStore creates a memory store sweeping at the given interval.
// A non-positive interval disables the sweep; entries then stay until
// overwritten or deleted. The sweep only drops entries past their full
// keep-for deadline, so stale-fallback entries survive until grace runs out.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		items:         make(map[string]*memoryItem),
		sweepInterval: sweepInterval,
		stop:          make(chan struct{}),
	}

	if sweepInterval > 0 {
		go s.sweepLoop()
	}

	return s
}

// Get returns the stored entry or ErrMiss. Expired entries are returned
// as-is until the sweep drops them.
func (s *MemoryStore) Get(ctx context.Context, key string) (*Entry, error) {
	_ = ctx
	s.mu.RLock()
	item, ok := s.items[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	return item.entry, nil
}

// Set stores the entry, replacing any previous value and deadline.
func (s *MemoryStore) Set(ctx context.Context, key string, entry *Entry, keepFor time.Duration) error {
	_ = ctx
	s.mu.Lock()
	s.items[key] = &memoryItem{
		entry:  entry,
		dropAt: time.Now().Add(keepFor),
	}
	s.mu.Unlock()
	return nil
}

// Delete removes the entry for key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	_ = ctx
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// FlushAll removes every entry.
func (s *MemoryStore) FlushAll(ctx context.Context) error {
	_ = ctx
	s.mu.Lock()
	clear(s.items)
	s.mu.Unlock()
	return nil
}

// Name implements Store.
func (s *MemoryStore) Name() string { return "memory" }

// Close stops the sweep goroutine.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// sweepLoop removes items past their drop deadline on a fixed interval,
// independent of request traffic.
func (s *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	for key, item := range s.items {
		if now.After(item.dropAt) {
			delete(s.items, key)
			SweptEntries.Inc()
		}
	}
	s.mu.Unlock()
}
