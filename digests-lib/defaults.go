// ABOUTME: Default implementations for library dependencies
// ABOUTME: Provides factory functions for creating default service implementations

package digests

import (
	"io"
	"os"
	"time"

	"digests-refresher/core/interfaces"
	"digests-refresher/infrastructure/cache/memory"
	"digests-refresher/infrastructure/cache/sqlite"
	httpInfra "digests-refresher/infrastructure/http/standard"
	"digests-refresher/infrastructure/logger/logrus"
	"digests-refresher/infrastructure/notify"
	articlestore "digests-refresher/infrastructure/storage/sqlite"
)

// DefaultHTTPClient creates a default HTTP client with sensible timeouts
func DefaultHTTPClient() interfaces.HTTPClient {
	return httpInfra.NewStandardHTTPClientWithUserAgent(30*time.Second, "Digests-Library/1.0")
}

// DefaultMemoryCache creates a default in-memory cache
func DefaultMemoryCache() interfaces.Cache {
	return memory.NewMemoryCache()
}

// DefaultSQLiteCache creates a default SQLite cache with the given file path
func DefaultSQLiteCache(filePath string) (*sqlite.Client, error) {
	return sqlite.NewSQLiteCache(filePath, nil)
}

// DefaultStorage opens SQLite article storage at filePath
func DefaultStorage(filePath string) (*articlestore.Store, error) {
	return articlestore.NewStore(filePath, articlestore.Options{})
}

// DefaultLogger creates a default logger that writes text to stdout
func DefaultLogger() interfaces.Logger {
	logger, err := logrus.NewWithOutput(os.Stdout, "info", "text")
	if err != nil {
		return QuietLogger()
	}
	return logger
}

// QuietLogger creates a logger that discards all output
func QuietLogger() interfaces.Logger {
	logger, _ := logrus.NewWithOutput(io.Discard, "panic", "text")
	return logger
}

// CacheOption represents cache configuration options
type CacheOption struct {
	Type     CacheType
	FilePath string // For SQLite cache
}

// CacheType represents the type of cache
type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeSQLite CacheType = "sqlite"
)

// WithCacheOption creates a cache based on the provided options
func WithCacheOption(opt CacheOption) Option {
	return func(c *Config) error {
		switch opt.Type {
		case CacheTypeMemory:
			c.Cache = DefaultMemoryCache()
		case CacheTypeSQLite:
			if opt.FilePath == "" {
				opt.FilePath = "digests_cache.db"
			}
			cache, err := DefaultSQLiteCache(opt.FilePath)
			if err != nil {
				return NewError(ErrorTypeConfiguration, "failed to open cache").WithCause(err)
			}
			c.Cache = cache
		default:
			return NewError(ErrorTypeConfiguration, "invalid cache type").
				WithContext("type", string(opt.Type))
		}
		return nil
	}
}

// WithSQLiteStorage stores articles in a SQLite database at filePath
func WithSQLiteStorage(filePath string) Option {
	return func(c *Config) error {
		store, err := DefaultStorage(filePath)
		if err != nil {
			return NewError(ErrorTypeConfiguration, "failed to open storage").WithCause(err)
		}
		c.Storage = store
		return nil
	}
}

// WithQuietMode configures the client to suppress all log output
func WithQuietMode() Option {
	return func(c *Config) error {
		c.Logger = QuietLogger()
		c.Notifier = notify.NewLogNotifier(c.Logger)
		return nil
	}
}

// HTTPClientConfig holds configuration for HTTP client
type HTTPClientConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// DefaultHTTPClientConfig returns default HTTP client configuration
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:   30 * time.Second,
		UserAgent: "Digests-Library/1.0",
	}
}

// WithHTTPClientConfig creates an HTTP client with custom configuration
func WithHTTPClientConfig(config HTTPClientConfig) Option {
	return func(c *Config) error {
		c.HTTPClient = httpInfra.NewStandardHTTPClientWithUserAgent(config.Timeout, config.UserAgent)
		return nil
	}
}
