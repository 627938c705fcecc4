// Package rates maintains the exchange rate applied during response
// normalization: a single shared value refreshed periodically from an
// external provider, with a permanent fallback so the rate is never unknown.
package rates

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/storebridge/market-gateway/pkg/logging"
)

// Fetcher retrieves the current exchange rate from a provider.
type Fetcher interface {
	Fetch(ctx context.Context) (float64, error)
}

// Config holds rate cache configuration.
type Config struct {
	// TTL is how long a fetched rate stays fresh.
	TTL time.Duration

	// Timeout bounds a single provider fetch.
	Timeout time.Duration

	// FallbackRate seeds the cache and serves until the first successful
	// refresh. It must be a sane, recent value for the currency pair.
	FallbackRate float64
}

// DefaultConfig returns a safe default configuration for the given fallback.
func DefaultConfig(fallbackRate float64) Config {
	return Config{
		TTL:          time.Hour,
		Timeout:      5 * time.Second,
		FallbackRate: fallbackRate,
	}
}

// Cache is the shared exchange-rate value. Concurrent callers observing a
// stale rate share one in-flight refresh; a failed refresh never clears the
// previously served rate.
type Cache struct {
	fetcher Fetcher
	cfg     Config
	logger  zerolog.Logger

	mu          sync.RWMutex
	rate        float64
	lastUpdated time.Time // zero until the first successful refresh

	flight singleflight.Group

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// New creates a rate cache seeded with the configured fallback rate.
func New(fetcher Fetcher, cfg Config) *Cache {
	if fetcher == nil {
		panic("rate fetcher cannot be nil")
	}
	return &Cache{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logging.NewLogger("rates"),
		rate:    cfg.FallbackRate,
		now:     time.Now,
	}
}

// Current returns the exchange rate to apply right now.
// A refresh is attempted when the rate has never been fetched or its age
// reached the TTL; on refresh failure the previous rate (or the fallback)
// keeps being served. The returned value is never zero-valued "unknown".
func (c *Cache) Current(ctx context.Context) float64 {
	c.mu.RLock()
	rate := c.rate
	fresh := !c.lastUpdated.IsZero() && c.now().Sub(c.lastUpdated) < c.cfg.TTL
	c.mu.RUnlock()

	if fresh {
		return rate
	}

	refreshed, err, _ := c.flight.Do("refresh", func() (interface{}, error) {
		// Re-check under the flight: a caller that queued behind a completed
		// refresh must not trigger another one.
		c.mu.RLock()
		stillStale := c.lastUpdated.IsZero() || c.now().Sub(c.lastUpdated) >= c.cfg.TTL
		current := c.rate
		c.mu.RUnlock()
		if !stillStale {
			return current, nil
		}

		fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		fetched, err := c.fetcher.Fetch(fetchCtx)
		if err != nil {
			return 0, err
		}

		c.mu.Lock()
		c.rate = fetched
		c.lastUpdated = c.now()
		c.mu.Unlock()

		c.logger.Info().Float64("rate", fetched).Msg("Exchange rate refreshed")
		return fetched, nil
	})

	if err != nil {
		c.logger.Warn().Err(err).Float64("serving_rate", rate).Msg("Rate refresh failed, serving previous value")
		c.mu.RLock()
		rate = c.rate
		c.mu.RUnlock()
		return rate
	}

	return refreshed.(float64)
}

// LastUpdated returns when the rate was last successfully refreshed.
// The zero time means no refresh has succeeded yet.
func (c *Cache) LastUpdated() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdated
}

// SetClock replaces the cache's clock source (for testing).
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}
