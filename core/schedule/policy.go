// ABOUTME: Partitioning policy that splits a feed set into immediate and rate-limited batches
// ABOUTME: Rate-limited hosts are fetched in fixed-size batches spaced by a base delay

package schedule

import (
	"strings"
	"time"

	"digests-refresher/core/domain"
)

const (
	// DefaultBatchSize is the number of rate-limited feeds fetched together
	DefaultBatchSize = 100

	// DefaultBaseDelay keeps a batch of 100 under a 100-requests-per-10-minutes limit
	DefaultBaseDelay = 601 * time.Second

	// DefaultRateLimitedHost is the host substring classified as rate limited
	DefaultRateLimitedHost = "reddit.com"
)

// HostClassifier decides whether a feed's host enforces a request quota
type HostClassifier interface {
	IsRateLimited(feed *domain.Feed) bool
}

// SubstringClassifier matches the feed's declared host against a list of substrings
type SubstringClassifier struct {
	substrings []string
}

// NewSubstringClassifier creates a classifier; empty substrings are ignored
func NewSubstringClassifier(substrings ...string) *SubstringClassifier {
	c := &SubstringClassifier{}
	for _, s := range substrings {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			c.substrings = append(c.substrings, s)
		}
	}
	return c
}

// IsRateLimited checks the home page URL, or the feed URL when no home page is known
func (c *SubstringClassifier) IsRateLimited(feed *domain.Feed) bool {
	if feed == nil {
		return false
	}

	declared := feed.HomePageURL
	if declared == "" {
		declared = feed.URL
	}
	declared = strings.ToLower(declared)

	for _, s := range c.substrings {
		if strings.Contains(declared, s) {
			return true
		}
	}
	return false
}

// Batch is an ordered slice of rate-limited feeds and its dispatch delay
type Batch struct {
	Index int
	Feeds []*domain.Feed
	Delay time.Duration
}

// Policy controls how a refresh request is partitioned
type Policy struct {
	BatchSize  int
	BaseDelay  time.Duration
	Classifier HostClassifier
}

// DefaultPolicy returns the policy used for reddit-style quotas
func DefaultPolicy() Policy {
	return Policy{
		BatchSize:  DefaultBatchSize,
		BaseDelay:  DefaultBaseDelay,
		Classifier: NewSubstringClassifier(DefaultRateLimitedHost),
	}
}

// Partition splits feeds into the immediate group and delayed batches.
// Input order is preserved; batch i is due i*BaseDelay after submission.
func (p Policy) Partition(feeds []*domain.Feed) (immediate []*domain.Feed, batches []Batch) {
	size := p.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	var limited []*domain.Feed
	for _, feed := range feeds {
		if p.Classifier != nil && p.Classifier.IsRateLimited(feed) {
			limited = append(limited, feed)
		} else {
			immediate = append(immediate, feed)
		}
	}

	for start := 0; start < len(limited); start += size {
		end := start + size
		if end > len(limited) {
			end = len(limited)
		}
		index := len(batches)
		batches = append(batches, Batch{
			Index: index,
			Feeds: limited[start:end:end],
			Delay: time.Duration(index) * p.BaseDelay,
		})
	}

	return immediate, batches
}
