package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/storebridge/market-gateway/pkg/logging"
)

// Config holds cache behavior shared by all backends.
type Config struct {
	// DefaultTTL applies when Set is called with ttl <= 0.
	DefaultTTL time.Duration

	// Grace is how long past its TTL an entry stays retrievable for the
	// stale fallback before it may be swept.
	Grace time.Duration
}

// Cache is the gateway's response cache. Internal store faults are logged
// and reported as misses; they never surface to the caller.
type Cache struct {
	store  Store
	cfg    Config
	logger zerolog.Logger

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// New creates a Cache over the given store.
func New(store Store, cfg Config) *Cache {
	if store == nil {
		panic("cache store cannot be nil")
	}
	return &Cache{
		store:  store,
		cfg:    cfg,
		logger: logging.NewLogger("cache"),
		now:    time.Now,
	}
}

// Get returns the cached value for key if it is still fresh.
// It never returns an error: store faults are logged and count as a miss.
func (c *Cache) Get(ctx context.Context, key Key) ([]byte, bool) {
	k := key.String()

	entry, err := c.store.Get(ctx, k)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			CacheErrors.WithLabelValues("get").Inc()
			c.logger.Warn().Err(err).Str("cache_key", k).Msg("Cache get error, treating as miss")
		}
		CacheMisses.Inc()
		return nil, false
	}

	if entry.Expired(c.now()) {
		CacheMisses.Inc()
		return nil, false
	}

	CacheHits.WithLabelValues(c.store.Name()).Inc()
	return entry.Data, true
}

// GetStale returns the last stored value for key regardless of TTL.
// It returns ErrMiss only when the key is absent (never stored, deleted,
// or swept). Only the upstream-failure fallback path should call this.
func (c *Cache) GetStale(ctx context.Context, key Key) ([]byte, error) {
	k := key.String()

	entry, err := c.store.Get(ctx, k)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			CacheErrors.WithLabelValues("get_stale").Inc()
			c.logger.Warn().Err(err).Str("cache_key", k).Msg("Cache stale get error, treating as absent")
		}
		return nil, ErrMiss
	}

	if entry.Expired(c.now()) {
		StaleHits.Inc()
		c.logger.Debug().
			Str("cache_key", k).
			Time("expired_at", entry.ExpiresAt()).
			Msg("Serving expired entry via stale fallback")
	}

	return entry.Data, nil
}

// Set stores value under key with the given logical TTL (DefaultTTL when
// ttl <= 0). Overwriting replaces both value and expiry. Store faults are
// logged, not surfaced.
func (c *Cache) Set(ctx context.Context, key Key, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}

	entry := &Entry{
		Data:     value,
		StoredAt: c.now(),
		TTL:      ttl,
	}

	k := key.String()
	if err := c.store.Set(ctx, k, entry, ttl+c.cfg.Grace); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		c.logger.Warn().Err(err).Str("cache_key", k).Msg("Cache set error")
		return
	}

	c.logger.Debug().Str("cache_key", k).Dur("ttl", ttl).Msg("Cached response")
}

// Delete removes the entry for key.
func (c *Cache) Delete(ctx context.Context, key Key) {
	if err := c.store.Delete(ctx, key.String()); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		c.logger.Warn().Err(err).Str("cache_key", key.String()).Msg("Cache delete error")
	}
}

// FlushAll removes every entry.
func (c *Cache) FlushAll(ctx context.Context) {
	if err := c.store.FlushAll(ctx); err != nil {
		CacheErrors.WithLabelValues("flush").Inc()
		c.logger.Warn().Err(err).Msg("Cache flush error")
	}
}

// SetClock replaces the cache's clock source (for testing).
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}
