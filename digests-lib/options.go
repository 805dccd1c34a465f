// ABOUTME: Configuration options for the Digests library client
// ABOUTME: Provides functional options pattern for flexible client configuration

package digests

import (
	"time"

	"digests-refresher/core/interfaces"
	"digests-refresher/core/schedule"
	"digests-refresher/infrastructure/download"
	"digests-refresher/infrastructure/feedstate"
	"digests-refresher/infrastructure/notify"
	"digests-refresher/infrastructure/parser"
	"digests-refresher/pkg/featureflags"
)

// Config holds the configuration for the client
type Config struct {
	// Cache backs feed state persistence
	Cache interfaces.Cache

	// HTTPClient downloads feeds
	HTTPClient interfaces.HTTPClient

	// Logger receives structured logs
	Logger interfaces.Logger

	// Parser turns downloaded bytes into feeds
	Parser interfaces.Parser

	// Storage reconciles parsed feeds against stored articles; required
	Storage interfaces.Storage

	// Notifier receives article changes (optional)
	Notifier interfaces.SyncNotifier

	// StateStore persists fetch state between processes (optional)
	StateStore interfaces.FeedStateStore

	// Policy controls rate-limited batching
	Policy schedule.Policy

	// Transport configures the download session
	Transport download.Options

	// Flags toggles optional refresher behavior
	Flags featureflags.Manager
}

// Option is a functional option for configuring the client
type Option func(*Config) error

// WithCache sets a custom cache implementation
func WithCache(cache interfaces.Cache) Option {
	return func(c *Config) error {
		c.Cache = cache
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client interfaces.HTTPClient) Option {
	return func(c *Config) error {
		c.HTTPClient = client
		return nil
	}
}

// WithLogger sets a custom logger
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithParser sets a custom feed parser
func WithParser(p interfaces.Parser) Option {
	return func(c *Config) error {
		c.Parser = p
		return nil
	}
}

// WithMarkdown converts article content to Markdown
func WithMarkdown() Option {
	return func(c *Config) error {
		c.Parser = parser.NewFeedParser(parser.Options{Markdown: true})
		return nil
	}
}

// WithStorage sets the article storage
func WithStorage(storage interfaces.Storage) Option {
	return func(c *Config) error {
		c.Storage = storage
		return nil
	}
}

// WithNotifier sets the sync notifier
func WithNotifier(n interfaces.SyncNotifier) Option {
	return func(c *Config) error {
		c.Notifier = n
		return nil
	}
}

// WithStateStore sets a custom feed state store
func WithStateStore(store interfaces.FeedStateStore) Option {
	return func(c *Config) error {
		c.StateStore = store
		return nil
	}
}

// WithStatePersistence keeps fetch state in the configured cache.
// Apply it after WithCache.
func WithStatePersistence(ttl time.Duration) Option {
	return func(c *Config) error {
		if c.Cache == nil {
			return NewError(ErrorTypeConfiguration, "state persistence needs a cache")
		}
		c.StateStore = feedstate.NewStore(c.Cache, ttl)
		return nil
	}
}

// WithRateLimitedHosts batches feeds whose host contains one of hosts
func WithRateLimitedHosts(batchSize int, delay time.Duration, hosts ...string) Option {
	return func(c *Config) error {
		if batchSize < 1 {
			return NewError(ErrorTypeValidation, "batch size must be at least 1").
				WithContext("batch_size", batchSize)
		}
		c.Policy = schedule.Policy{
			BatchSize:  batchSize,
			BaseDelay:  delay,
			Classifier: schedule.NewSubstringClassifier(hosts...),
		}
		return nil
	}
}

// WithConcurrency caps simultaneous downloads
func WithConcurrency(n int) Option {
	return func(c *Config) error {
		c.Transport.Concurrency = n
		return nil
	}
}

// WithHostPacing paces requests to each host at rps
func WithHostPacing(rps float64, burst int) Option {
	return func(c *Config) error {
		c.Transport.HostRPS = rps
		c.Transport.HostBurst = burst
		return nil
	}
}

// WithFlags sets the feature flag manager
func WithFlags(flags featureflags.Manager) Option {
	return func(c *Config) error {
		c.Flags = flags
		return nil
	}
}

// defaultConfig returns the default client configuration
func defaultConfig() Config {
	logger := DefaultLogger()
	return Config{
		Cache:      DefaultMemoryCache(),
		HTTPClient: DefaultHTTPClient(),
		Logger:     logger,
		Parser:     parser.NewFeedParser(parser.Options{}),
		Storage:    nil, // Must be provided
		Notifier:   notify.NewLogNotifier(logger),
		Policy:     schedule.DefaultPolicy(),
		Transport:  download.Options{Concurrency: download.DefaultConcurrency},
	}
}
