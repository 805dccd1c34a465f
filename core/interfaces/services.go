// ABOUTME: Service interfaces for the collaborators of the refresh core
// ABOUTME: Parser, sync notification and progress observation contracts

package interfaces

import (
	"context"

	"digests-refresher/core/domain"
)

// Parser turns a downloaded feed body into a structured feed
type Parser interface {
	// Parse parses data downloaded from feedURL.
	// Returns an error when the bytes are not a recognizable feed.
	Parse(ctx context.Context, feedURL string, data []byte) (*domain.ParsedFeed, error)
}

// SyncNotifier forwards persisted article changes downstream
type SyncNotifier interface {
	// Notify blocks until downstream processing of changes has finished.
	Notify(ctx context.Context, changes *domain.ArticleChanges) error
}

// RefreshObserver is told about per-feed progress during a refresh
type RefreshObserver interface {
	// FeedRequestCompleted is called exactly once per feed per refresh, whatever the outcome.
	FeedRequestCompleted(feed *domain.Feed)
}
