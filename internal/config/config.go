// Package config loads the gateway configuration from a YAML file and the
// environment. Environment variables override file values.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// Config is the full gateway configuration.
type Config struct {
	Server      Server      `yaml:"server"`
	Log         Log         `yaml:"log"`
	Marketplace Marketplace `yaml:"marketplace"`
	Rates       Rates       `yaml:"rates"`
	Cache       Cache       `yaml:"cache"`
}

// Server holds the HTTP listener settings.
type Server struct {
	Address            string `yaml:"address"              env:"SERVER_ADDR"             env-default:":8080"`
	MetricsAddress     string `yaml:"metrics_address"      env:"METRICS_ADDR"            env-default:":9090"`
	ReadTimeoutSec     int    `yaml:"read_timeout_sec"     env:"SERVER_READ_TIMEOUT"     env-default:"15"`
	WriteTimeoutSec    int    `yaml:"write_timeout_sec"    env:"SERVER_WRITE_TIMEOUT"    env-default:"15"`
	IdleTimeoutSec     int    `yaml:"idle_timeout_sec"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60"`
	ShutdownTimeoutSec int    `yaml:"shutdown_timeout_sec" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"15"`
}

// Log holds the logging settings.
type Log struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Pretty bool   `yaml:"pretty" env:"LOG_PRETTY" env-default:"false"`
}

// Marketplace holds the upstream marketplace API settings. AccessKey and
// Secret are the credential material used to sign per-request tokens.
type Marketplace struct {
	BaseURL           string  `yaml:"base_url"            env:"MARKETPLACE_BASE_URL"`
	AccessKey         string  `yaml:"access_key"          env:"MARKETPLACE_ACCESS_KEY"`
	Secret            string  `yaml:"secret"              env:"MARKETPLACE_SECRET"`
	UserAgent         string  `yaml:"user_agent"          env:"MARKETPLACE_USER_AGENT" env-default:"market-gateway/1.0"`
	TimeoutSec        int     `yaml:"timeout_sec"         env:"MARKETPLACE_TIMEOUT"    env-default:"10"`
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"MARKETPLACE_RPS"        env-default:"10"`
	Burst             int     `yaml:"burst"               env:"MARKETPLACE_BURST"      env-default:"5"`
	SearchTTLSec      int     `yaml:"search_ttl_sec"      env:"MARKETPLACE_SEARCH_TTL" env-default:"60"`
	ProductTTLSec     int     `yaml:"product_ttl_sec"     env:"MARKETPLACE_PRODUCT_TTL" env-default:"300"`
}

// Rates holds the exchange-rate provider settings.
type Rates struct {
	ProviderURL    string  `yaml:"provider_url"    env:"RATES_PROVIDER_URL"`
	TargetCurrency string  `yaml:"target_currency" env:"RATES_TARGET_CURRENCY" env-default:"USD"`
	FallbackRate   float64 `yaml:"fallback_rate"   env:"RATES_FALLBACK_RATE"   env-default:"0.00074"`
	TTLSec         int     `yaml:"ttl_sec"         env:"RATES_TTL"             env-default:"3600"`
	TimeoutSec     int     `yaml:"timeout_sec"     env:"RATES_TIMEOUT"         env-default:"5"`
}

// Cache holds the response cache settings.
type Cache struct {
	Driver           string `yaml:"driver"             env:"CACHE_DRIVER"         env-default:"memory"`
	Addr             string `yaml:"addr"               env:"CACHE_ADDR"           env-default:"localhost:6379"`
	DB               int    `yaml:"db"                 env:"CACHE_DB"             env-default:"0"`
	Password         string `yaml:"password"           env:"CACHE_PASSWORD"       env-default:""`
	DefaultTTLSec    int    `yaml:"default_ttl_sec"    env:"CACHE_DEFAULT_TTL"    env-default:"60"`
	GraceSec         int    `yaml:"grace_sec"          env:"CACHE_GRACE"          env-default:"86400"`
	SweepIntervalSec int    `yaml:"sweep_interval_sec" env:"CACHE_SWEEP_INTERVAL" env-default:"600"`
}

// Load reads the config file at path (when it exists) and then the
// environment. A missing file is not an error: everything can come from env.
func Load(path string) (*Config, error) {
	var cfg Config

	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks the settings required to serve traffic. Credential
// material is verified at startup so signing failures surface before the
// first request.
func (c *Config) Validate() error {
	if c.Marketplace.BaseURL == "" {
		return fmt.Errorf("marketplace base URL is required")
	}
	if c.Marketplace.AccessKey == "" {
		return fmt.Errorf("marketplace access key is required")
	}
	if c.Marketplace.Secret == "" {
		return fmt.Errorf("marketplace secret is required")
	}
	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("cache driver must be memory or redis, got %q", c.Cache.Driver)
	}
	if c.Rates.FallbackRate <= 0 {
		return fmt.Errorf("rates fallback rate must be positive")
	}
	return nil
}

// Pretty returns a YAML rendering of the config for startup logging, with
// the credential secret redacted.
func (c *Config) Pretty() (string, error) {
	clone := *c
	if clone.Marketplace.Secret != "" {
		clone.Marketplace.Secret = "[redacted]"
	}

	b, err := yaml.Marshal(&clone)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(b), nil
}

// Timeout helpers converting the integer-second fields.

func (s Server) ReadTimeout() time.Duration  { return time.Duration(s.ReadTimeoutSec) * time.Second }
func (s Server) WriteTimeout() time.Duration { return time.Duration(s.WriteTimeoutSec) * time.Second }
func (s Server) IdleTimeout() time.Duration  { return time.Duration(s.IdleTimeoutSec) * time.Second }
func (s Server) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSec) * time.Second
}

func (m Marketplace) Timeout() time.Duration { return time.Duration(m.TimeoutSec) * time.Second }
func (m Marketplace) SearchTTL() time.Duration {
	return time.Duration(m.SearchTTLSec) * time.Second
}
func (m Marketplace) ProductTTL() time.Duration {
	return time.Duration(m.ProductTTLSec) * time.Second
}

func (r Rates) TTL() time.Duration     { return time.Duration(r.TTLSec) * time.Second }
func (r Rates) Timeout() time.Duration { return time.Duration(r.TimeoutSec) * time.Second }

func (c Cache) DefaultTTL() time.Duration { return time.Duration(c.DefaultTTLSec) * time.Second }
func (c Cache) Grace() time.Duration      { return time.Duration(c.GraceSec) * time.Second }
func (c Cache) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSec) * time.Second
}
