// ABOUTME: Loads the subscribed feed list from a YAML file
// ABOUTME: Entries are validated and de-duplicated by URL

package config

import (
	"fmt"
	"os"

	"digests-refresher/core/domain"
	"gopkg.in/yaml.v3"
)

// FeedEntry is one subscription in the feeds file
type FeedEntry struct {
	URL         string `yaml:"url"`
	HomePageURL string `yaml:"home_page_url,omitempty"`
	Title       string `yaml:"title,omitempty"`
}

// FeedList is the top-level document of the feeds file
type FeedList struct {
	Feeds []FeedEntry `yaml:"feeds"`
}

// LoadFeeds reads and validates the feeds file at path
func LoadFeeds(path string) ([]*domain.Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}
	return ParseFeeds(data)
}

// ParseFeeds decodes a feeds document. Repeated URLs keep their first entry.
func ParseFeeds(data []byte) ([]*domain.Feed, error) {
	var list FeedList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode feeds file: %w", err)
	}

	feeds := make([]*domain.Feed, 0, len(list.Feeds))
	seen := make(map[string]struct{}, len(list.Feeds))
	for i, entry := range list.Feeds {
		feed, err := domain.NewFeed(entry.URL, entry.HomePageURL, entry.Title)
		if err != nil {
			return nil, fmt.Errorf("feed %d: %w", i, err)
		}
		if _, ok := seen[feed.URL]; ok {
			continue
		}
		seen[feed.URL] = struct{}{}
		feeds = append(feeds, feed)
	}
	return feeds, nil
}
