package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/storebridge/market-gateway/internal/config"
	"github.com/storebridge/market-gateway/internal/server"
	"github.com/storebridge/market-gateway/pkg/cache"
	"github.com/storebridge/market-gateway/pkg/gateway"
	"github.com/storebridge/market-gateway/pkg/logging"
	"github.com/storebridge/market-gateway/pkg/normalize"
	"github.com/storebridge/market-gateway/pkg/rates"
	"github.com/storebridge/market-gateway/pkg/token"
	"github.com/storebridge/market-gateway/pkg/upstream"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Setup(logging.DefaultConfig())
		log := logging.NewLogger("main")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})
	log := logging.NewLogger("main")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if pretty, err := cfg.Pretty(); err == nil {
		log.Debug().Str("config", pretty).Msg("Configuration loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Credential issuer; validates the secret material up front.
	issuer, err := token.New(token.Config{
		AccessKey: cfg.Marketplace.AccessKey,
		Secret:    cfg.Marketplace.Secret,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize credential issuer")
	}

	// Response cache backend.
	var store cache.Store
	switch cfg.Cache.Driver {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			DB:       cfg.Cache.DB,
			Password: cfg.Cache.Password,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Cache.Addr).Msg("Failed to connect to Redis")
		}
		log.Info().Str("addr", cfg.Cache.Addr).Msg("Connected to Redis")
		store = cache.NewRedisStore(redisClient)
	default:
		memStore := cache.NewMemoryStore(cfg.Cache.SweepInterval())
		defer memStore.Close()
		store = memStore
	}

	responseCache := cache.New(store, cache.Config{
		DefaultTTL: cfg.Cache.DefaultTTL(),
		Grace:      cfg.Cache.Grace(),
	})

	// Exchange-rate source with permanent fallback.
	rateCache := rates.New(
		rates.NewHTTPFetcher(cfg.Rates.ProviderURL, cfg.Rates.TargetCurrency, cfg.Rates.Timeout()),
		rates.Config{
			TTL:          cfg.Rates.TTL(),
			Timeout:      cfg.Rates.Timeout(),
			FallbackRate: cfg.Rates.FallbackRate,
		},
	)

	// Marketplace client.
	upstreamCfg := upstream.DefaultConfig(cfg.Marketplace.BaseURL)
	upstreamCfg.UserAgent = cfg.Marketplace.UserAgent
	upstreamCfg.Timeout = cfg.Marketplace.Timeout()
	upstreamCfg.RequestsPerSecond = cfg.Marketplace.RequestsPerSecond
	upstreamCfg.Burst = cfg.Marketplace.Burst

	marketClient, err := upstream.New(upstreamCfg, issuer)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create marketplace client")
	}

	coordinator := gateway.New(
		responseCache,
		marketClient,
		rateCache,
		normalize.New(cfg.Rates.TargetCurrency),
		gateway.Config{
			SearchTTL:  cfg.Marketplace.SearchTTL(),
			ProductTTL: cfg.Marketplace.ProductTTL(),
		},
	)

	// Metrics on a separate listener so the public API surface stays clean.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Info().Str("address", cfg.Server.MetricsAddress).Msg("Metrics server listening")
		if err := http.ListenAndServe(cfg.Server.MetricsAddress, mux); err != nil {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	srv := server.New(cfg.Server, coordinator)
	if err := srv.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}

	log.Info().Msg("Shutdown complete")
}
