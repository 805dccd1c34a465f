// ABOUTME: Feed catalog reloads the feeds file before every run
// ABOUTME: Keeps feed instances across runs so fetch metadata survives reloads

package main

import (
	"context"
	"sync"

	"digests-refresher/core/domain"
	"digests-refresher/core/interfaces"
	"digests-refresher/pkg/config"
)

// stateRestorer seeds fetch metadata for feeds seen for the first time
type stateRestorer interface {
	Restore(ctx context.Context, feeds []*domain.Feed) (int, error)
}

type feedCatalog struct {
	path   string
	state  stateRestorer
	logger interfaces.Logger

	mu    sync.Mutex
	feeds map[string]*domain.Feed
}

// newFeedCatalog creates a catalog over the feeds file; state may be nil
func newFeedCatalog(path string, state stateRestorer, logger interfaces.Logger) *feedCatalog {
	return &feedCatalog{
		path:   path,
		state:  state,
		logger: logger,
		feeds:  make(map[string]*domain.Feed),
	}
}

// Load returns the current feed set. It is a refresh.FeedSource.
func (c *feedCatalog) Load(ctx context.Context) ([]*domain.Feed, error) {
	loaded, err := config.LoadFeeds(c.path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	feeds := make([]*domain.Feed, 0, len(loaded))
	next := make(map[string]*domain.Feed, len(loaded))
	var fresh []*domain.Feed

	for _, feed := range loaded {
		prev, ok := c.feeds[feed.URL]
		switch {
		case !ok:
			fresh = append(fresh, feed)
		case prev.HomePageURL == feed.HomePageURL && prev.Title == feed.Title:
			feed = prev
		default:
			// Edited entry: new instance, same fetch state
			feed.SetMetadata(prev.Metadata())
		}
		next[feed.URL] = feed
		feeds = append(feeds, feed)
	}

	if c.state != nil && len(fresh) > 0 {
		restored, err := c.state.Restore(ctx, fresh)
		if err != nil {
			c.logger.Warn("Failed to restore feed state", map[string]interface{}{
				"error": err.Error(),
			})
		}
		if restored > 0 {
			c.logger.Info("Restored feed state", map[string]interface{}{
				"feeds": restored,
			})
		}
	}

	if removed := len(c.feeds) - countKept(c.feeds, next); removed > 0 {
		c.logger.Info("Feeds removed from catalog", map[string]interface{}{
			"feeds": removed,
		})
	}
	c.feeds = next
	return feeds, nil
}

func countKept(prev, next map[string]*domain.Feed) int {
	kept := 0
	for url := range prev {
		if _, ok := next[url]; ok {
			kept++
		}
	}
	return kept
}
