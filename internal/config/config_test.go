package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  address: ":3000"
marketplace:
  base_url: "https://api.marketplace.example"
  access_key: "ak"
  secret: "c2VjcmV0"
  search_ttl_sec: 120
cache:
  driver: memory
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Address != ":3000" {
		t.Errorf("Server.Address = %q, want :3000", cfg.Server.Address)
	}
	if cfg.Marketplace.SearchTTL() != 2*time.Minute {
		t.Errorf("SearchTTL = %v, want 2m", cfg.Marketplace.SearchTTL())
	}
	if cfg.Rates.TargetCurrency != "USD" {
		t.Errorf("TargetCurrency default = %q, want USD", cfg.Rates.TargetCurrency)
	}
	if cfg.Cache.Driver != "memory" {
		t.Errorf("Cache.Driver = %q, want memory", cfg.Cache.Driver)
	}
}

func TestLoad_EnvOnlyWhenFileMissing(t *testing.T) {
	t.Setenv("MARKETPLACE_BASE_URL", "https://env.marketplace.example")
	t.Setenv("MARKETPLACE_ACCESS_KEY", "env-ak")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Marketplace.BaseURL != "https://env.marketplace.example" {
		t.Errorf("BaseURL = %q, want env value", cfg.Marketplace.BaseURL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("Server.Address default = %q, want :8080", cfg.Server.Address)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Marketplace: Marketplace{
				BaseURL:   "https://api.marketplace.example",
				AccessKey: "ak",
				Secret:    "c2VjcmV0",
			},
			Rates: Rates{FallbackRate: 0.00074},
			Cache: Cache{Driver: "memory"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"redis driver valid", func(c *Config) { c.Cache.Driver = "redis" }, false},
		{"missing base URL", func(c *Config) { c.Marketplace.BaseURL = "" }, true},
		{"missing access key", func(c *Config) { c.Marketplace.AccessKey = "" }, true},
		{"missing secret", func(c *Config) { c.Marketplace.Secret = "" }, true},
		{"unknown cache driver", func(c *Config) { c.Cache.Driver = "memcached" }, true},
		{"non-positive fallback rate", func(c *Config) { c.Rates.FallbackRate = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPretty_RedactsSecret(t *testing.T) {
	cfg := &Config{
		Marketplace: Marketplace{
			BaseURL:   "https://api.marketplace.example",
			AccessKey: "ak",
			Secret:    "super-secret-value",
		},
	}

	out, err := cfg.Pretty()
	if err != nil {
		t.Fatalf("Pretty failed: %v", err)
	}

	if strings.Contains(out, "super-secret-value") {
		t.Error("Pretty output must not contain the raw secret")
	}
	if !strings.Contains(out, "[redacted]") {
		t.Error("Pretty output should mark the secret as redacted")
	}
}
