// ABOUTME: Feed domain model represents a subscribed remote feed and its fetch metadata
// ABOUTME: Metadata (content hash, conditional GET validators) is guarded for concurrent refreshes

package domain

import (
	"errors"
	"net/url"
	"sync"
)

// ConditionalGetInfo holds the cache validators returned by a previous response.
// They are replayed on the next request so the server can answer 304.
type ConditionalGetInfo struct {
	// ETag is the entity tag sent back as If-None-Match
	ETag string `json:"etag,omitempty" yaml:"etag,omitempty"`

	// LastModified is the raw Last-Modified header sent back as If-Modified-Since
	LastModified string `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
}

// IsEmpty reports whether no validator is present
func (c *ConditionalGetInfo) IsEmpty() bool {
	return c == nil || (c.ETag == "" && c.LastModified == "")
}

// FeedMetadata is the per-feed state that changes after a successful fetch
type FeedMetadata struct {
	ContentHash        string              `json:"content_hash,omitempty"`
	ConditionalGetInfo *ConditionalGetInfo `json:"conditional_get_info,omitempty"`
}

// Feed represents a subscribed RSS or Atom feed.
// The feed is referenced by the refresher, never owned by it.
type Feed struct {
	// URL is the feed's source URL and its identity
	URL string

	// HomePageURL is the website the feed belongs to, used for host classification
	HomePageURL string

	// Title is the human-readable title of the feed
	Title string

	mu       sync.RWMutex
	metadata FeedMetadata
}

// NewFeed creates a new Feed instance with validation
func NewFeed(feedURL, homePageURL, title string) (*Feed, error) {
	feed := &Feed{
		URL:         feedURL,
		HomePageURL: homePageURL,
		Title:       title,
	}

	if err := feed.Validate(); err != nil {
		return nil, err
	}

	return feed, nil
}

// Validate checks if the feed has valid required fields
func (f *Feed) Validate() error {
	if f.URL == "" {
		return errors.New("feed URL cannot be empty")
	}

	parsed, err := url.Parse(f.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return errors.New("feed URL is not valid format")
	}

	return nil
}

// Metadata returns a copy of the feed's fetch metadata
func (f *Feed) Metadata() FeedMetadata {
	f.mu.RLock()
	defer f.mu.RUnlock()

	md := f.metadata
	if md.ConditionalGetInfo != nil {
		info := *md.ConditionalGetInfo
		md.ConditionalGetInfo = &info
	}
	return md
}

// ContentHash returns the hash of the last successfully processed body
func (f *Feed) ContentHash() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.metadata.ContentHash
}

// SetMetadata replaces the feed's fetch metadata
func (f *Feed) SetMetadata(md FeedMetadata) {
	if md.ConditionalGetInfo.IsEmpty() {
		md.ConditionalGetInfo = nil
	} else {
		info := *md.ConditionalGetInfo
		md.ConditionalGetInfo = &info
	}

	f.mu.Lock()
	f.metadata = md
	f.mu.Unlock()
}
