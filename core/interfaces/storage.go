// ABOUTME: Storage interfaces for persisting domain entities
// ABOUTME: Defines contracts for article reconciliation and feed metadata persistence

package interfaces

import (
	"context"

	"digests-refresher/core/domain"
)

// Storage reconciles parsed feeds against stored articles
type Storage interface {
	// Update stores the parsed feed's articles and reports which ones changed
	Update(ctx context.Context, feed *domain.Feed, parsed *domain.ParsedFeed) (*domain.ArticleChanges, error)
}

// FeedStateStore persists per-feed fetch metadata between runs
type FeedStateStore interface {
	// Load returns the stored metadata for a feed, or nil if none is stored
	Load(ctx context.Context, feedURL string) (*domain.FeedMetadata, error)

	// Save stores the metadata for a feed
	Save(ctx context.Context, feedURL string, md domain.FeedMetadata) error
}
