// ABOUTME: Configuration management for the refresher with environment variable support
// ABOUTME: Defines configuration structures for refresh, cache, storage, notify, log and server settings

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Refresh contains scheduling and download configuration
	Refresh RefreshConfig

	// Cache contains cache configuration
	Cache CacheConfig

	// Storage contains article storage configuration
	Storage StorageConfig

	// Notify contains sync notification configuration
	Notify NotifyConfig

	// Log contains logging configuration
	Log LogConfig

	// Server contains control API configuration
	Server ServerConfig
}

// RefreshConfig holds refresh scheduling and transport configuration
type RefreshConfig struct {
	// Schedule is the cron spec that triggers a refresh
	Schedule string

	// FeedsFile is the YAML file listing the subscribed feeds
	FeedsFile string

	// BatchSize is the number of rate-limited feeds fetched together
	BatchSize int

	// BatchDelay spaces consecutive rate-limited batches
	BatchDelay time.Duration

	// RateLimitedHosts are host substrings that enforce a request quota
	RateLimitedHosts []string

	// Concurrency caps simultaneous downloads
	Concurrency int

	// HostRPS paces requests per host when host pacing is enabled
	HostRPS float64

	// RequestTimeout bounds a single HTTP request
	RequestTimeout time.Duration

	// MaxBodyBytes caps a downloaded feed body
	MaxBodyBytes int64

	// UserAgent identifies the refresher to feed servers
	UserAgent string

	// Markdown converts article content to Markdown
	Markdown bool

	// ShutdownTimeout bounds how long shutdown waits for an active refresh
	ShutdownTimeout time.Duration
}

// CacheConfig holds cache backend configuration
type CacheConfig struct {
	// Type specifies the cache backend (memory/redis/sqlite)
	Type string

	// Redis contains Redis-specific configuration
	Redis RedisConfig

	// Memory contains in-memory cache configuration
	Memory MemoryConfig

	// SQLitePath is the database file for the sqlite cache
	SQLitePath string

	// StateTTL is how long feed state is kept; zero keeps it forever
	StateTTL time.Duration
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	// Address is the Redis server address
	Address string

	// Password is the Redis authentication password
	Password string

	// DB is the Redis database number
	DB int

	// KeyPrefix namespaces every key written by the refresher
	KeyPrefix string
}

// MemoryConfig holds in-memory cache configuration
type MemoryConfig struct {
	// CleanupInterval is how often expired entries are purged
	CleanupInterval time.Duration
}

// StorageConfig holds article storage configuration
type StorageConfig struct {
	// Path is the SQLite database file for articles
	Path string

	// Retention is how long articles missing from their feed are kept
	Retention time.Duration
}

// NotifyConfig holds sync notification configuration
type NotifyConfig struct {
	// Type specifies the notifier (log/redis)
	Type string

	// Channel is the Redis pub/sub channel
	Channel string
}

// LogConfig holds logging configuration
type LogConfig struct {
	// Level is the minimum log level
	Level string

	// Format is json or text
	Format string

	// File enables rotating file output in addition to stdout
	File string
}

// ServerConfig holds control API configuration
type ServerConfig struct {
	// Port is the HTTP server port
	Port string

	// Enabled starts the control API; the control_api_enabled flag also starts it
	Enabled bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Refresh: RefreshConfig{
			Schedule:         getEnvOrDefault("REFRESH_SCHEDULE", "@every 30m"),
			FeedsFile:        getEnvOrDefault("FEEDS_FILE", "feeds.yaml"),
			BatchSize:        getEnvAsIntOrDefault("REFRESH_BATCH_SIZE", 100),
			BatchDelay:       getEnvAsDurationOrDefault("REFRESH_BATCH_DELAY", 601*time.Second),
			RateLimitedHosts: getEnvAsListOrDefault("RATE_LIMITED_HOSTS", []string{"reddit.com"}),
			Concurrency:      getEnvAsIntOrDefault("REFRESH_CONCURRENCY", 10),
			HostRPS:          getEnvAsFloatOrDefault("HOST_RPS", 2),
			RequestTimeout:   getEnvAsDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
			MaxBodyBytes:     int64(getEnvAsIntOrDefault("MAX_BODY_BYTES", 10<<20)),
			UserAgent:        getEnvOrDefault("USER_AGENT", "DigestsRefresher/1.0"),
			Markdown:         getEnvAsBoolOrDefault("CONTENT_MARKDOWN", false),
			ShutdownTimeout:  getEnvAsDurationOrDefault("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Cache: CacheConfig{
			Type: getEnvOrDefault("CACHE_TYPE", "memory"),
			Redis: RedisConfig{
				Address:   getEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
				Password:  getEnvOrDefault("REDIS_PASSWORD", ""),
				DB:        getEnvAsIntOrDefault("REDIS_DB", 0),
				KeyPrefix: getEnvOrDefault("REDIS_KEY_PREFIX", "digests:"),
			},
			Memory: MemoryConfig{
				CleanupInterval: getEnvAsDurationOrDefault("MEMORY_CACHE_CLEANUP", 10*time.Minute),
			},
			SQLitePath: getEnvOrDefault("SQLITE_CACHE_PATH", "cache.db"),
			StateTTL:   getEnvAsDurationOrDefault("FEED_STATE_TTL", 0),
		},
		Storage: StorageConfig{
			Path:      getEnvOrDefault("STORAGE_PATH", "articles.db"),
			Retention: getEnvAsDurationOrDefault("ARTICLE_RETENTION", 30*24*time.Hour),
		},
		Notify: NotifyConfig{
			Type:    getEnvOrDefault("NOTIFY_TYPE", "log"),
			Channel: getEnvOrDefault("NOTIFY_CHANNEL", "digests:articles"),
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
			File:   getEnvOrDefault("LOG_FILE", ""),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8000"),
			Enabled: getEnvAsBoolOrDefault("SERVER_ENABLED", false),
		},
	}

	return cfg, nil
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the environment variable as int or a default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsDurationOrDefault accepts Go durations ("90s") or plain seconds
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getEnvAsListOrDefault splits a comma-separated variable
func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Refresh.Schedule == "" {
		return errors.New("refresh schedule cannot be empty")
	}

	if c.Refresh.FeedsFile == "" {
		return errors.New("feeds file cannot be empty")
	}

	if c.Refresh.BatchSize < 1 {
		return errors.New("batch size must be at least 1")
	}

	if c.Refresh.BatchDelay < 0 {
		return errors.New("batch delay cannot be negative")
	}

	if c.Refresh.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}

	if c.Refresh.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}

	if c.Refresh.MaxBodyBytes <= 0 {
		return errors.New("max body bytes must be positive")
	}

	switch c.Cache.Type {
	case "memory":
	case "redis":
		if c.Cache.Redis.Address == "" {
			return errors.New("redis address cannot be empty when using redis cache")
		}
	case "sqlite":
		if c.Cache.SQLitePath == "" {
			return errors.New("sqlite cache path cannot be empty when using sqlite cache")
		}
	default:
		return errors.New("cache type must be 'memory', 'redis' or 'sqlite'")
	}

	if c.Storage.Path == "" {
		return errors.New("storage path cannot be empty")
	}

	switch c.Notify.Type {
	case "log":
	case "redis":
		if c.Cache.Redis.Address == "" {
			return errors.New("redis address cannot be empty when using redis notifications")
		}
		if c.Notify.Channel == "" {
			return errors.New("notify channel cannot be empty")
		}
	default:
		return fmt.Errorf("notify type must be 'log' or 'redis', got %q", c.Notify.Type)
	}

	if c.Server.Enabled && c.Server.Port == "" {
		return errors.New("port cannot be empty")
	}

	return nil
}
