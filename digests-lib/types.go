// ABOUTME: Public types for the Digests library API
// ABOUTME: Provides user-friendly types that wrap internal domain models

package digests

import "digests-refresher/core/domain"

// Subscription identifies a feed to refresh
type Subscription struct {
	URL         string `json:"url"`
	HomePageURL string `json:"home_page_url,omitempty"`
	Title       string `json:"title,omitempty"`
}

// Result summarizes a finished refresh
type Result struct {
	Feeds          int `json:"feeds"`
	FeedsCompleted int `json:"feeds_completed"`
}

// Status is a snapshot of refresh activity
type Status struct {
	Suspended      bool `json:"suspended"`
	ActiveRequests int  `json:"active_requests"`
	PendingUnits   int  `json:"pending_units"`
	PendingBatches int  `json:"pending_batches"`
}

// FeedState is the fetch state remembered for a feed
type FeedState struct {
	ContentHash  string `json:"content_hash,omitempty"`
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

func feedStateFromDomain(md domain.FeedMetadata) FeedState {
	state := FeedState{ContentHash: md.ContentHash}
	if md.ConditionalGetInfo != nil {
		state.ETag = md.ConditionalGetInfo.ETag
		state.LastModified = md.ConditionalGetInfo.LastModified
	}
	return state
}
