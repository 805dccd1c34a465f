// ABOUTME: Feed state store that keeps fetch metadata in any Cache backend
// ABOUTME: Lets content hashes and validators survive restarts of the refresher

package feedstate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"digests-refresher/core/domain"
	coreerrors "digests-refresher/core/errors"
	"digests-refresher/core/interfaces"
)

const keyPrefix = "feedstate:"

// record is the stored JSON form of domain.FeedMetadata
type record struct {
	ContentHash  string    `json:"content_hash,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	SavedAt      time.Time `json:"saved_at"`
}

// Store implements FeedStateStore on top of a Cache
type Store struct {
	cache interfaces.Cache
	ttl   time.Duration
}

// NewStore creates a store; a zero ttl keeps state forever
func NewStore(cache interfaces.Cache, ttl time.Duration) *Store {
	return &Store{cache: cache, ttl: ttl}
}

// Load returns the stored metadata, or nil if the feed has none
func (s *Store) Load(ctx context.Context, feedURL string) (*domain.FeedMetadata, error) {
	data, err := s.cache.Get(ctx, keyPrefix+feedURL)
	if err != nil {
		if coreerrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load feed state: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode feed state: %w", err)
	}

	md := &domain.FeedMetadata{ContentHash: rec.ContentHash}
	info := &domain.ConditionalGetInfo{ETag: rec.ETag, LastModified: rec.LastModified}
	if !info.IsEmpty() {
		md.ConditionalGetInfo = info
	}
	return md, nil
}

// Save stores the metadata for a feed
func (s *Store) Save(ctx context.Context, feedURL string, md domain.FeedMetadata) error {
	rec := record{ContentHash: md.ContentHash, SavedAt: time.Now().UTC()}
	if md.ConditionalGetInfo != nil {
		rec.ETag = md.ConditionalGetInfo.ETag
		rec.LastModified = md.ConditionalGetInfo.LastModified
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode feed state: %w", err)
	}
	if err := s.cache.Set(ctx, keyPrefix+feedURL, data, s.ttl); err != nil {
		return fmt.Errorf("save feed state: %w", err)
	}
	return nil
}

// Restore loads stored metadata into feeds that have none yet. Individual
// failures are returned together and do not stop the remaining feeds.
func (s *Store) Restore(ctx context.Context, feeds []*domain.Feed) (int, error) {
	restored := 0
	var errs []error
	for _, feed := range feeds {
		if feed == nil || feed.ContentHash() != "" {
			continue
		}
		md, err := s.Load(ctx, feed.URL)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", feed.URL, err))
			continue
		}
		if md == nil {
			continue
		}
		feed.SetMetadata(*md)
		restored++
	}
	if len(errs) > 0 {
		return restored, fmt.Errorf("restore feed state: %d failures, first: %w", len(errs), errs[0])
	}
	return restored, nil
}
