package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss indicates the requested key is absent: never stored, deleted,
// or already swept. It is distinct from "present but expired".
var ErrMiss = errors.New("cache miss")

// Store is the physical backend under the Cache. Stores retain entries for
// the full keepFor window regardless of the entry's logical TTL; freshness
// decisions belong to the Cache.
type Store interface {
	// Get returns the stored entry or ErrMiss.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set stores the entry, retaining it for keepFor before it may be swept.
	Set(ctx context.Context, key string, entry *Entry, keepFor time.Duration) error

	// Delete removes the entry for key, if any.
	Delete(ctx context.Context, key string) error

	// FlushAll removes every entry.
	FlushAll(ctx context.Context) error

	// Name identifies the backend in logs and metrics.
	Name() string
}
