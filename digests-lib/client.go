// ABOUTME: Main client for the Digests library providing scheduled feed refreshes
// ABOUTME: Offers a clean API for using the refresh core without the HTTP control API

package digests

import (
	"context"
	"sync"

	"digests-refresher/core/domain"
	"digests-refresher/core/interfaces"
	"digests-refresher/core/refresh"
	"digests-refresher/infrastructure/download"
)

// Client is the main entry point for the Digests library
type Client struct {
	refresher *refresh.Refresher
	progress  *refresh.Progress
	config    Config

	mu     sync.Mutex
	feeds  map[string]*domain.Feed
	closed bool
}

// NewClient creates a new Digests client with the given options
func NewClient(options ...Option) (*Client, error) {
	// Start with default config
	config := defaultConfig()

	// Apply options
	for _, opt := range options {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	// Validate dependencies
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	deps := interfaces.Dependencies{
		Cache:      config.Cache,
		HTTPClient: config.HTTPClient,
		Logger:     config.Logger,
		Parser:     config.Parser,
		Storage:    config.Storage,
		Notifier:   config.Notifier,
		StateStore: config.StateStore,
	}

	progress := refresh.NewProgress(config.Logger)
	deps.Observer = progress

	refresher := refresh.NewRefresher(deps, refresh.Options{
		Policy:       config.Policy,
		Flags:        config.Flags,
		NewTransport: download.NewFactory(config.HTTPClient, config.Transport, config.Logger),
	})

	return &Client{
		refresher: refresher,
		progress:  progress,
		config:    config,
		feeds:     make(map[string]*domain.Feed),
	}, nil
}

// Close suspends the client; later refreshes fail with ErrClientClosed
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.refresher.Suspend()
	return nil
}

// Refresh downloads the subscriptions and blocks until every feed resolved,
// including rate-limited batches, or ctx is done. Returning early does not
// cancel the refresh.
func (c *Client) Refresh(ctx context.Context, subs []Subscription) (*Result, error) {
	feeds, err := c.resolve(subs)
	if err != nil {
		return nil, err
	}

	c.progress.Reset()
	if err := c.refresher.RefreshContext(ctx, feeds); err != nil {
		return nil, NewError(ErrorTypeCanceled, "refresh did not finish").WithCause(err)
	}

	return &Result{
		Feeds:          len(feeds),
		FeedsCompleted: c.progress.Completed(),
	}, nil
}

// RefreshAsync starts a refresh and calls onComplete once it finished
func (c *Client) RefreshAsync(subs []Subscription, onComplete func()) error {
	feeds, err := c.resolve(subs)
	if err != nil {
		return err
	}
	c.refresher.Refresh(feeds, onComplete)
	return nil
}

// Suspend stops in-flight work; Resume lets later refreshes run again
func (c *Client) Suspend() {
	c.refresher.Suspend()
}

// Resume reverses Suspend
func (c *Client) Resume() {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()

	if !closed {
		c.refresher.Resume()
	}
}

// Status returns a snapshot of the client's refresh activity
func (c *Client) Status() Status {
	stats := c.refresher.Stats()
	return Status{
		Suspended:      stats.Suspended,
		ActiveRequests: stats.ActiveRequests,
		PendingUnits:   stats.PendingUnits,
		PendingBatches: stats.PendingBatches,
	}
}

// State returns the fetch state remembered for a feed URL
func (c *Client) State(feedURL string) (FeedState, bool) {
	c.mu.Lock()
	feed, ok := c.feeds[feedURL]
	c.mu.Unlock()

	if !ok {
		return FeedState{}, false
	}
	return feedStateFromDomain(feed.Metadata()), true
}

// resolve maps subscriptions onto the client's feed instances so fetch state
// carries over between refreshes
func (c *Client) resolve(subs []Subscription) ([]*domain.Feed, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}

	feeds := make([]*domain.Feed, 0, len(subs))
	var fresh []*domain.Feed
	for _, sub := range subs {
		if feed, ok := c.feeds[sub.URL]; ok {
			feeds = append(feeds, feed)
			continue
		}
		feed, err := domain.NewFeed(sub.URL, sub.HomePageURL, sub.Title)
		if err != nil {
			return nil, NewError(ErrorTypeValidation, err.Error()).WithContext("url", sub.URL)
		}
		c.feeds[feed.URL] = feed
		feeds = append(feeds, feed)
		fresh = append(fresh, feed)
	}

	if c.config.StateStore != nil {
		for _, feed := range fresh {
			c.restore(feed)
		}
	}
	return feeds, nil
}

func (c *Client) restore(feed *domain.Feed) {
	md, err := c.config.StateStore.Load(context.Background(), feed.URL)
	if err != nil {
		c.config.Logger.Warn("Failed to load feed state", map[string]interface{}{
			"url":   feed.URL,
			"error": err.Error(),
		})
		return
	}
	if md != nil {
		feed.SetMetadata(*md)
	}
}

// validateConfig validates the client configuration
func validateConfig(config *Config) error {
	if config.HTTPClient == nil {
		return NewError(ErrorTypeConfiguration, "HTTP client is required")
	}

	if config.Logger == nil {
		return NewError(ErrorTypeConfiguration, "logger is required")
	}

	if config.Parser == nil {
		return NewError(ErrorTypeConfiguration, "parser is required")
	}

	if config.Storage == nil {
		return ErrNoStorage
	}

	if config.Policy.BatchSize < 1 {
		return NewError(ErrorTypeConfiguration, "batch size must be at least 1")
	}

	return nil
}
