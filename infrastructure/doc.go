// Package infrastructure provides concrete implementations of the interfaces
// defined in the core package. These implementations handle external concerns
// such as caching, HTTP communication, storage and logging.
//
// The infrastructure package is organized by technical concern:
//
// - cache/memory: In-memory cache backed by go-cache
// - cache/redis: Redis-based cache implementation
// - cache/sqlite: SQLite-backed cache with expiry cleanup
// - download: Concurrent download session implementing the transport contract
// - feedstate: Feed fetch metadata persisted in a cache
// - http/standard: Standard library HTTP client with retry logic
// - logger/logrus: Structured logger with optional file rotation
// - notify: Article change notifiers (log, Redis pub/sub)
// - parser: gofeed-based feed parser
// - storage/sqlite: Article storage and reconciliation
// - sqlbuilder: Small SQL statement builder shared by the SQLite packages
//
// # Design Philosophy
//
// Infrastructure components are designed to be:
// - Pluggable: Easy to swap implementations
// - Configurable: Accept configuration objects
// - Testable: Include both unit and integration tests
// - Production-ready: Include retries, timeouts, and error handling
//
// # Cache Implementations
//
// Memory Cache Example:
//
//	cache := memory.NewMemoryCache()
//	err := cache.Set(ctx, "key", []byte("value"), 1*time.Hour)
//	value, err := cache.Get(ctx, "key")
//
// Redis Cache Example:
//
//	cache, err := redis.NewRedisCache(config.RedisConfig{
//	    Address:   "localhost:6379",
//	    KeyPrefix: "digests:",
//	})
//
// # Download Session
//
// The session fetches items concurrently and reports one terminal event per item:
//
//	factory := download.NewFactory(client, download.Options{Concurrency: 10}, logger)
//	transport := factory(delegate)
//	transport.Download(items)
//
// # Logger
//
// The logger supports structured logging with fields:
//
//	logger, err := logrus.New(logrus.Options{Level: "info", Format: "json"})
//	logger.Info("Feed updated", map[string]interface{}{
//	    "url": "https://example.com/feed.xml",
//	    "new": 3,
//	})
package infrastructure
