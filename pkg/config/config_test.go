package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	saved := os.Environ()
	os.Clearenv()
	t.Cleanup(func() {
		os.Clearenv()
		for _, kv := range saved {
			if key, value, ok := strings.Cut(kv, "="); ok {
				os.Setenv(key, value)
			}
		}
	})
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Refresh.Schedule != "@every 30m" {
		t.Errorf("Schedule = %v, want @every 30m", cfg.Refresh.Schedule)
	}
	if cfg.Refresh.BatchSize != 100 {
		t.Errorf("BatchSize = %v, want 100", cfg.Refresh.BatchSize)
	}
	if cfg.Refresh.BatchDelay != 601*time.Second {
		t.Errorf("BatchDelay = %v, want 601s", cfg.Refresh.BatchDelay)
	}
	if !reflect.DeepEqual(cfg.Refresh.RateLimitedHosts, []string{"reddit.com"}) {
		t.Errorf("RateLimitedHosts = %v, want [reddit.com]", cfg.Refresh.RateLimitedHosts)
	}
	if cfg.Refresh.Concurrency != 10 {
		t.Errorf("Concurrency = %v, want 10", cfg.Refresh.Concurrency)
	}
	if cfg.Cache.Type != "memory" {
		t.Errorf("Cache.Type = %v, want memory", cfg.Cache.Type)
	}
	if cfg.Notify.Type != "log" {
		t.Errorf("Notify.Type = %v, want log", cfg.Notify.Type)
	}
	if cfg.Server.Port != "8000" || cfg.Server.Enabled {
		t.Errorf("Server = %+v, want port 8000 disabled", cfg.Server)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	os.Setenv("REFRESH_SCHEDULE", "*/5 * * * *")
	os.Setenv("REFRESH_BATCH_DELAY", "90")
	os.Setenv("REQUEST_TIMEOUT", "15s")
	os.Setenv("RATE_LIMITED_HOSTS", "reddit.com, , news.ycombinator.com")
	os.Setenv("HOST_RPS", "0.5")
	os.Setenv("CONTENT_MARKDOWN", "true")
	os.Setenv("SERVER_ENABLED", "true")
	os.Setenv("REDIS_KEY_PREFIX", "test:")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Refresh.Schedule != "*/5 * * * *" {
		t.Errorf("Schedule = %v", cfg.Refresh.Schedule)
	}
	if cfg.Refresh.BatchDelay != 90*time.Second {
		t.Errorf("BatchDelay = %v, want 90s", cfg.Refresh.BatchDelay)
	}
	if cfg.Refresh.RequestTimeout != 15*time.Second {
		t.Errorf("RequestTimeout = %v, want 15s", cfg.Refresh.RequestTimeout)
	}
	if !reflect.DeepEqual(cfg.Refresh.RateLimitedHosts, []string{"reddit.com", "news.ycombinator.com"}) {
		t.Errorf("RateLimitedHosts = %v", cfg.Refresh.RateLimitedHosts)
	}
	if cfg.Refresh.HostRPS != 0.5 {
		t.Errorf("HostRPS = %v, want 0.5", cfg.Refresh.HostRPS)
	}
	if !cfg.Refresh.Markdown {
		t.Error("Markdown should be enabled")
	}
	if !cfg.Server.Enabled {
		t.Error("Server should be enabled")
	}
	if cfg.Cache.Redis.KeyPrefix != "test:" {
		t.Errorf("KeyPrefix = %v, want test:", cfg.Cache.Redis.KeyPrefix)
	}
}

func TestLoadFromEnv_InvalidValuesUseDefaults(t *testing.T) {
	clearEnv(t)
	os.Setenv("REFRESH_BATCH_SIZE", "not-a-number")
	os.Setenv("REFRESH_BATCH_DELAY", "soon")
	os.Setenv("SERVER_ENABLED", "maybe")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Refresh.BatchSize != 100 {
		t.Errorf("BatchSize = %v, want 100 (default)", cfg.Refresh.BatchSize)
	}
	if cfg.Refresh.BatchDelay != 601*time.Second {
		t.Errorf("BatchDelay = %v, want 601s (default)", cfg.Refresh.BatchDelay)
	}
	if cfg.Server.Enabled {
		t.Error("Server.Enabled should keep its default")
	}
}

func validConfig() Config {
	return Config{
		Refresh: RefreshConfig{
			Schedule:       "@every 30m",
			FeedsFile:      "feeds.yaml",
			BatchSize:      100,
			BatchDelay:     time.Minute,
			Concurrency:    10,
			RequestTimeout: time.Second,
			MaxBodyBytes:   1024,
		},
		Cache:   CacheConfig{Type: "memory"},
		Storage: StorageConfig{Path: "articles.db"},
		Notify:  NotifyConfig{Type: "log"},
		Server:  ServerConfig{Port: "8000", Enabled: true},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"empty schedule", func(c *Config) { c.Refresh.Schedule = "" }, true},
		{"empty feeds file", func(c *Config) { c.Refresh.FeedsFile = "" }, true},
		{"zero batch size", func(c *Config) { c.Refresh.BatchSize = 0 }, true},
		{"negative batch delay", func(c *Config) { c.Refresh.BatchDelay = -time.Second }, true},
		{"zero concurrency", func(c *Config) { c.Refresh.Concurrency = 0 }, true},
		{"zero timeout", func(c *Config) { c.Refresh.RequestTimeout = 0 }, true},
		{"zero max body", func(c *Config) { c.Refresh.MaxBodyBytes = 0 }, true},
		{"unknown cache type", func(c *Config) { c.Cache.Type = "memcached" }, true},
		{"redis cache without address", func(c *Config) { c.Cache.Type = "redis" }, true},
		{"redis cache with address", func(c *Config) {
			c.Cache.Type = "redis"
			c.Cache.Redis.Address = "localhost:6379"
		}, false},
		{"sqlite cache without path", func(c *Config) { c.Cache.Type = "sqlite" }, true},
		{"empty storage path", func(c *Config) { c.Storage.Path = "" }, true},
		{"unknown notify type", func(c *Config) { c.Notify.Type = "email" }, true},
		{"redis notify without channel", func(c *Config) {
			c.Notify.Type = "redis"
			c.Cache.Redis.Address = "localhost:6379"
		}, true},
		{"empty port with server enabled", func(c *Config) { c.Server.Port = "" }, true},
		{"empty port with server disabled", func(c *Config) {
			c.Server.Port = ""
			c.Server.Enabled = false
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseFeeds(t *testing.T) {
	doc := []byte(`
feeds:
  - url: https://example.com/feed.xml
    title: Example
  - url: https://www.reddit.com/r/golang/.rss
    home_page_url: https://www.reddit.com/r/golang
  - url: https://example.com/feed.xml
`)

	feeds, err := ParseFeeds(doc)
	if err != nil {
		t.Fatalf("ParseFeeds() error = %v", err)
	}
	if len(feeds) != 2 {
		t.Fatalf("got %d feeds, want 2", len(feeds))
	}
	if feeds[0].Title != "Example" {
		t.Errorf("Title = %v, want Example", feeds[0].Title)
	}
	if feeds[1].HomePageURL != "https://www.reddit.com/r/golang" {
		t.Errorf("HomePageURL = %v", feeds[1].HomePageURL)
	}
}

func TestParseFeeds_Invalid(t *testing.T) {
	if _, err := ParseFeeds([]byte("feeds: [")); err == nil {
		t.Error("expected a decode error")
	}
	if _, err := ParseFeeds([]byte("feeds:\n  - url: not a url\n")); err == nil {
		t.Error("expected a validation error")
	}
}

func TestLoadFeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	if err := os.WriteFile(path, []byte("feeds:\n  - url: https://example.com/feed.xml\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	feeds, err := LoadFeeds(path)
	if err != nil {
		t.Fatalf("LoadFeeds() error = %v", err)
	}
	if len(feeds) != 1 || feeds[0].URL != "https://example.com/feed.xml" {
		t.Errorf("unexpected feeds: %+v", feeds)
	}

	if _, err := LoadFeeds(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
