// Package gateway orchestrates the fetch pipeline per inbound query:
// cache lookup, credentialed upstream call, normalization, cache store,
// and the stale-on-error fallback.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/storebridge/market-gateway/pkg/cache"
	"github.com/storebridge/market-gateway/pkg/logging"
	"github.com/storebridge/market-gateway/pkg/normalize"
	"github.com/storebridge/market-gateway/pkg/upstream"
)

// Upstream is the marketplace client used by the coordinator.
type Upstream interface {
	Search(ctx context.Context, q upstream.Query) ([]byte, error)
	Product(ctx context.Context, id string) ([]byte, error)
}

// RateSource supplies the exchange rate for normalization.
type RateSource interface {
	Current(ctx context.Context) float64
}

// Config holds per-endpoint cache TTLs.
type Config struct {
	SearchTTL  time.Duration
	ProductTTL time.Duration
}

// DefaultConfig returns sensible TTLs: searches churn faster than single
// product pages.
func DefaultConfig() Config {
	return Config{
		SearchTTL:  60 * time.Second,
		ProductTTL: 5 * time.Minute,
	}
}

// Result is a normalized response ready for the storefront.
// Stale marks values served past their TTL after an upstream failure.
type Result struct {
	Data  []byte
	Stale bool
}

// SearchData is the normalized search payload cached and returned.
type SearchData struct {
	Products   []normalize.Product `json:"products"`
	NextCursor string              `json:"nextCursor,omitempty"`
	Total      int                 `json:"total,omitempty"`
}

// ProductData is the normalized single-product payload.
type ProductData struct {
	Product normalize.Product `json:"product"`
}

// Service coordinates one fetch pipeline per inbound query. Concurrent
// misses for the same canonical key share a single upstream fetch and
// normalization pass.
type Service struct {
	cache    *cache.Cache
	upstream Upstream
	rates    RateSource
	norm     *normalize.Normalizer
	cfg      Config
	logger   zerolog.Logger

	flight singleflight.Group
}

// New creates the coordinator. All collaborators are injected; the service
// holds no ambient state.
func New(c *cache.Cache, up Upstream, rates RateSource, norm *normalize.Normalizer, cfg Config) *Service {
	if c == nil || up == nil || rates == nil || norm == nil {
		panic("gateway collaborators cannot be nil")
	}
	return &Service{
		cache:    c,
		upstream: up,
		rates:    rates,
		norm:     norm,
		cfg:      cfg,
		logger:   logging.NewLogger("gateway"),
	}
}

// Search serves a normalized product search.
func (s *Service) Search(ctx context.Context, q upstream.Query) (*Result, error) {
	key := cache.Key{Endpoint: "search", Params: q.Values()}

	return s.serve(ctx, key, s.cfg.SearchTTL, func(ctx context.Context) ([]byte, error) {
		raw, err := s.upstream.Search(ctx, q)
		if err != nil {
			return nil, err
		}

		var resp upstream.SearchResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("decode search response: %w", err)
		}

		rate := s.rates.Current(ctx)
		products := make([]normalize.Product, 0, len(resp.Products))
		for _, p := range resp.Products {
			products = append(products, s.norm.Transform(p, rate))
		}

		return json.Marshal(SearchData{
			Products:   products,
			NextCursor: resp.NextCursor,
			Total:      resp.Total,
		})
	})
}

// Product serves a normalized single product.
func (s *Service) Product(ctx context.Context, id string) (*Result, error) {
	key := cache.Key{Endpoint: "product", Params: url.Values{"id": []string{id}}}

	return s.serve(ctx, key, s.cfg.ProductTTL, func(ctx context.Context) ([]byte, error) {
		raw, err := s.upstream.Product(ctx, id)
		if err != nil {
			return nil, err
		}

		var resp upstream.ProductResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("decode product response: %w", err)
		}

		rate := s.rates.Current(ctx)
		return json.Marshal(ProductData{Product: s.norm.Transform(resp.Product, rate)})
	})
}

// serve runs the per-query state machine: cache lookup, coalesced fetch on
// miss, stale fallback on upstream failure. Exactly one upstream attempt
// per query; failures are never retried.
func (s *Service) serve(ctx context.Context, key cache.Key, ttl time.Duration, fetch func(context.Context) ([]byte, error)) (*Result, error) {
	if data, ok := s.cache.Get(ctx, key); ok {
		return &Result{Data: data}, nil
	}

	k := key.String()
	fetched, err, _ := s.flight.Do(k, func() (interface{}, error) {
		// A caller queued behind the flight leader finds the value it
		// just stored; don't fetch again.
		if data, ok := s.cache.Get(ctx, key); ok {
			return data, nil
		}

		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		s.cache.Set(ctx, key, data, ttl)
		return data, nil
	})

	if err != nil {
		// A 404 is a definitive upstream answer, not an outage; serving a
		// stale copy would resurrect deleted listings.
		if upstream.IsNotFound(err) {
			return nil, err
		}

		stale, staleErr := s.cache.GetStale(ctx, key)
		if staleErr == nil {
			s.logger.Warn().
				Err(err).
				Str("cache_key", k).
				Bool("stale", true).
				Msg("Upstream failed, serving stale cache entry")
			return &Result{Data: stale, Stale: true}, nil
		}

		s.logger.Error().Err(err).Str("cache_key", k).Msg("Upstream failed with no fallback entry")
		return nil, err
	}

	return &Result{Data: fetched.([]byte)}, nil
}
