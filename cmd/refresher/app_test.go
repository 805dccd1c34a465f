package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"digests-refresher/core/refresh"
	"digests-refresher/pkg/config"
	"digests-refresher/pkg/featureflags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example</title>
    <link>https://example.com</link>
    <item>
      <title>First post</title>
      <link>https://example.com/first</link>
      <guid>first</guid>
      <description>Hello</description>
    </item>
    <item>
      <title>Second post</title>
      <link>https://example.com/second</link>
      <guid>second</guid>
      <description>World</description>
    </item>
  </channel>
</rss>`

func feedServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Header().Set("ETag", `"v1"`)
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		fmt.Fprint(w, testRSS)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testConfig(t *testing.T, feedURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	feedsFile := filepath.Join(dir, "feeds.yaml")
	writeFeeds(t, feedsFile, fmt.Sprintf("feeds:\n  - url: %s/feed.xml\n", feedURL))

	return &config.Config{
		Refresh: config.RefreshConfig{
			Schedule:        "@every 1h",
			FeedsFile:       feedsFile,
			BatchSize:       100,
			BatchDelay:      time.Minute,
			Concurrency:     4,
			HostRPS:         50,
			RequestTimeout:  5 * time.Second,
			MaxBodyBytes:    1 << 20,
			ShutdownTimeout: 5 * time.Second,
		},
		Cache: config.CacheConfig{
			Type:       "memory",
			Memory:     config.MemoryConfig{CleanupInterval: time.Minute},
			SQLitePath: filepath.Join(dir, "cache.db"),
		},
		Storage: config.StorageConfig{
			Path:      filepath.Join(dir, "articles.db"),
			Retention: time.Hour,
		},
		Notify: config.NotifyConfig{Type: "log"},
		Log:    config.LogConfig{Level: "error", Format: "text"},
		Server: config.ServerConfig{Port: "0"},
	}
}

func runOnce(t *testing.T, a *app) {
	t.Helper()
	require.NoError(t, a.runner.Trigger(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.runner.Wait(ctx))
}

func shutdown(t *testing.T, a *app) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.shutdown(ctx))
}

func TestApp_RefreshStoresArticles(t *testing.T) {
	srv, hits := feedServer(t)
	cfg := testConfig(t, srv.URL)
	flags := featureflags.NewStaticManager(map[featureflags.FeatureFlag]bool{
		featureflags.HostPacingEnabled: true,
	})

	a, err := newApp(context.Background(), cfg, flags, quietLogger(t))
	require.NoError(t, err)
	assert.Nil(t, a.server)

	runOnce(t, a)

	articles, err := a.store.Articles(context.Background(), srv.URL+"/feed.xml")
	require.NoError(t, err)
	assert.Len(t, articles, 2)

	info := a.runner.Info()
	assert.Equal(t, 1, info.Runs)
	assert.Equal(t, 1, info.FeedsCompleted)
	assert.Empty(t, info.LastError)

	// The second run replays the validators and gets a 304
	runOnce(t, a)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 2, a.runner.Info().Runs)

	shutdown(t, a)
}

func TestApp_StatePersistsAcrossRestarts(t *testing.T) {
	srv, _ := feedServer(t)
	cfg := testConfig(t, srv.URL)
	cfg.Cache.Type = "sqlite"
	flags := featureflags.NewStaticManager(map[featureflags.FeatureFlag]bool{
		featureflags.StatePersistenceEnabled: true,
	})

	first, err := newApp(context.Background(), cfg, flags, quietLogger(t))
	require.NoError(t, err)
	runOnce(t, first)
	shutdown(t, first)

	second, err := newApp(context.Background(), cfg, flags, quietLogger(t))
	require.NoError(t, err)
	defer shutdown(t, second)

	feeds, err := second.catalog.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.NotEmpty(t, feeds[0].ContentHash())
	require.NotNil(t, feeds[0].Metadata().ConditionalGetInfo)
	assert.Equal(t, `"v1"`, feeds[0].Metadata().ConditionalGetInfo.ETag)
}

func TestApp_ControlAPIGating(t *testing.T) {
	tests := []struct {
		name       string
		enabled    bool
		flag       bool
		wantServer bool
	}{
		{"disabled", false, false, false},
		{"config enabled", true, false, true},
		{"flag enabled", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, "https://example.com")
			cfg.Server.Enabled = tt.enabled
			flags := featureflags.NewStaticManager(map[featureflags.FeatureFlag]bool{
				featureflags.ControlAPIEnabled: tt.flag,
			})

			a, err := newApp(context.Background(), cfg, flags, quietLogger(t))
			require.NoError(t, err)
			defer shutdown(t, a)

			assert.Equal(t, tt.wantServer, a.server != nil)
			assert.Equal(t, tt.wantServer, a.limiter != nil)
		})
	}
}

func TestApp_ControlAPIServesStatus(t *testing.T) {
	cfg := testConfig(t, "https://example.com")
	cfg.Server.Enabled = true

	a, err := newApp(context.Background(), cfg, featureflags.NewStaticManager(nil), quietLogger(t))
	require.NoError(t, err)
	defer shutdown(t, a)

	rec := httptest.NewRecorder()
	a.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"running":false`)
}

func TestApp_TriggerSkipsWhileSuspended(t *testing.T) {
	srv, hits := feedServer(t)
	cfg := testConfig(t, srv.URL)

	a, err := newApp(context.Background(), cfg, featureflags.NewStaticManager(nil), quietLogger(t))
	require.NoError(t, err)
	defer shutdown(t, a)

	a.runner.Suspend()
	a.trigger()
	assert.ErrorIs(t, a.runner.Trigger(context.Background()), refresh.ErrSuspended)
	assert.Zero(t, a.runner.Info().Runs)
	assert.Zero(t, hits.Load())

	a.runner.Resume()
	require.NoError(t, a.runner.Trigger(context.Background()))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.runner.Wait(ctx))
	assert.Equal(t, int32(1), hits.Load())
}

func TestApp_InvalidSchedule(t *testing.T) {
	cfg := testConfig(t, "https://example.com")
	cfg.Refresh.Schedule = "every now and then"

	_, err := newApp(context.Background(), cfg, featureflags.NewStaticManager(nil), quietLogger(t))
	assert.Error(t, err)
}

func TestApp_RedisFallsBackToMemory(t *testing.T) {
	cfg := testConfig(t, "https://example.com")
	cfg.Cache.Type = "redis"
	cfg.Cache.Redis.Address = "127.0.0.1:1"

	a, err := newApp(context.Background(), cfg, featureflags.NewStaticManager(nil), quietLogger(t))
	require.NoError(t, err)
	defer shutdown(t, a)
	assert.Nil(t, a.redis)
}
