// ABOUTME: Application wiring for the refresher process
// ABOUTME: Builds caches, storage, transport and the refresh runner, then drives them from cron

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"digests-refresher/api"
	"digests-refresher/api/middleware"
	"digests-refresher/core/interfaces"
	"digests-refresher/core/refresh"
	"digests-refresher/core/schedule"
	"digests-refresher/infrastructure/cache/memory"
	rediscache "digests-refresher/infrastructure/cache/redis"
	sqlitecache "digests-refresher/infrastructure/cache/sqlite"
	"digests-refresher/infrastructure/download"
	"digests-refresher/infrastructure/feedstate"
	stdhttp "digests-refresher/infrastructure/http/standard"
	"digests-refresher/infrastructure/notify"
	"digests-refresher/infrastructure/parser"
	articlestore "digests-refresher/infrastructure/storage/sqlite"
	"digests-refresher/pkg/config"
	"digests-refresher/pkg/featureflags"
	goredis "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

type app struct {
	cfg    *config.Config
	logger interfaces.Logger
	flags  featureflags.Manager

	catalog *feedCatalog
	store   *articlestore.Store
	runner  *refresh.Runner
	cron    *cron.Cron

	server  *http.Server
	limiter *middleware.RateLimiter

	redis   *goredis.Client
	closers []func() error
}

// newApp wires every component. Call close to release resources on failure or shutdown.
func newApp(ctx context.Context, cfg *config.Config, flags featureflags.Manager, logger interfaces.Logger) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logger,
		flags:  flags,
	}

	cache, err := a.buildCache(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	store, err := articlestore.NewStore(cfg.Storage.Path, articlestore.Options{
		Retention: cfg.Storage.Retention,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	deps := interfaces.Dependencies{
		Cache:      cache,
		HTTPClient: stdhttp.NewStandardHTTPClientWithUserAgent(cfg.Refresh.RequestTimeout, cfg.Refresh.UserAgent),
		Logger:     logger,
		Parser:     parser.NewFeedParser(parser.Options{Markdown: cfg.Refresh.Markdown}),
		Storage:    store,
		Notifier:   a.buildNotifier(ctx),
	}

	var restorer stateRestorer
	if flags.IsEnabled(ctx, featureflags.StatePersistenceEnabled) {
		state := feedstate.NewStore(cache, cfg.Cache.StateTTL)
		restorer = state
		deps.StateStore = state
		logger.Info("Feed state persistence enabled", map[string]interface{}{
			"cache_type": cfg.Cache.Type,
		})
	}

	progress := refresh.NewProgress(logger)
	deps.Observer = progress

	transportOpts := download.Options{
		Concurrency:  cfg.Refresh.Concurrency,
		MaxBodyBytes: cfg.Refresh.MaxBodyBytes,
	}
	if flags.IsEnabled(ctx, featureflags.HostPacingEnabled) {
		transportOpts.HostRPS = cfg.Refresh.HostRPS
	}

	refresher := refresh.NewRefresher(deps, refresh.Options{
		Policy: schedule.Policy{
			BatchSize:  cfg.Refresh.BatchSize,
			BaseDelay:  cfg.Refresh.BatchDelay,
			Classifier: schedule.NewSubstringClassifier(cfg.Refresh.RateLimitedHosts...),
		},
		Flags:        flags,
		NewTransport: download.NewFactory(deps.HTTPClient, transportOpts, logger),
	})

	a.catalog = newFeedCatalog(cfg.Refresh.FeedsFile, restorer, logger)
	a.runner = refresh.NewRunner(refresher, progress, a.catalog.Load, logger, nil)

	a.cron = cron.New()
	if _, err := a.cron.AddFunc(cfg.Refresh.Schedule, a.trigger); err != nil {
		a.close()
		return nil, err
	}

	if cfg.Server.Enabled || flags.IsEnabled(ctx, featureflags.ControlAPIEnabled) {
		a.buildServer()
	}

	return a, nil
}

func (a *app) buildCache(ctx context.Context) (interfaces.Cache, error) {
	cfg := a.cfg
	switch cfg.Cache.Type {
	case "redis":
		client, err := a.redisClient(ctx)
		if err != nil {
			a.logger.Error("Failed to create Redis cache, falling back to memory", map[string]interface{}{
				"error": err.Error(),
			})
			break
		}
		a.logger.Info("Using Redis cache", map[string]interface{}{
			"address": cfg.Cache.Redis.Address,
		})
		return rediscache.NewRedisCacheFromClient(client, cfg.Cache.Redis.KeyPrefix), nil
	case "sqlite":
		cache, err := sqlitecache.NewSQLiteCache(cfg.Cache.SQLitePath, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, cache.Close)
		a.logger.Info("Using SQLite cache", map[string]interface{}{
			"path": cfg.Cache.SQLitePath,
		})
		return cache, nil
	}

	a.logger.Info("Using memory cache", nil)
	return memory.NewMemoryCacheWithCleanup(cfg.Cache.Memory.CleanupInterval), nil
}

func (a *app) buildNotifier(ctx context.Context) interfaces.SyncNotifier {
	if a.cfg.Notify.Type == "redis" {
		client, err := a.redisClient(ctx)
		if err == nil {
			a.logger.Info("Publishing article changes to Redis", map[string]interface{}{
				"channel": a.cfg.Notify.Channel,
			})
			return notify.NewRedisNotifier(client, a.cfg.Notify.Channel)
		}
		a.logger.Error("Failed to create Redis notifier, falling back to log", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return notify.NewLogNotifier(a.logger)
}

// redisClient returns the client shared by the cache and the notifier
func (a *app) redisClient(ctx context.Context) (*goredis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	client, err := rediscache.NewClient(ctx, a.cfg.Cache.Redis)
	if err != nil {
		return nil, err
	}
	a.redis = client
	a.closers = append(a.closers, client.Close)
	return client, nil
}

func (a *app) buildServer() {
	_, router, limiter := api.NewAPIWithMiddleware(api.APIConfig{
		Logger:     a.logger,
		RateLimit:  100, // 100 requests per minute
		RateWindow: time.Minute,
		Controller: a.runner,
		Articles:   a.store,
	})
	a.limiter = limiter

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// trigger starts a run from the schedule
func (a *app) trigger() {
	err := a.runner.Trigger(context.Background())
	switch {
	case err == nil:
	case errors.Is(err, refresh.ErrRefreshActive), errors.Is(err, refresh.ErrSuspended):
		a.logger.Info("Scheduled refresh skipped", map[string]interface{}{
			"reason": err.Error(),
		})
	default:
		a.logger.Error("Scheduled refresh failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// start runs an initial refresh, starts the schedule and the control API
func (a *app) start() <-chan error {
	serverErr := make(chan error, 1)

	a.trigger()
	a.cron.Start()
	a.logger.Info("Refresh schedule started", map[string]interface{}{
		"schedule": a.cfg.Refresh.Schedule,
	})

	if a.server != nil {
		go func() {
			a.logger.Info("HTTP server starting", map[string]interface{}{
				"address": a.server.Addr,
			})
			if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serverErr <- err
			}
		}()
	}
	return serverErr
}

// shutdown stops the schedule, lets the active run finish within ctx and closes resources
func (a *app) shutdown(ctx context.Context) error {
	var errs []error

	<-a.cron.Stop().Done()

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := a.runner.Wait(ctx); err != nil {
		a.logger.Warn("Active refresh did not finish, suspending", map[string]interface{}{
			"error": err.Error(),
		})
		a.runner.Suspend()
		errs = append(errs, err)
	}

	if err := a.close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// close releases resources in reverse order of creation
func (a *app) close() error {
	if a.limiter != nil {
		a.limiter.Stop()
		a.limiter = nil
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
