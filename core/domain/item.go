// ABOUTME: Parsed feed models produced by the parser collaborator
// ABOUTME: Carries the structured content that storage reconciles against existing articles

package domain

import "time"

// ParsedFeed is the structured form of a downloaded feed body
type ParsedFeed struct {
	// URL is the feed URL the body was downloaded from
	URL string

	// Title is the feed's declared title
	Title string

	// HomePageURL is the feed's declared website link
	HomePageURL string

	// Language is the declared feed language (e.g., "en-US")
	Language string

	// FeedType is "article", "podcast", or "rss"
	FeedType string

	// Items contains the feed entries in document order
	Items []ParsedItem
}

// ParsedItem represents an individual entry within a parsed feed
type ParsedItem struct {
	// ID is the entry's unique identifier (GUID, or link as a fallback)
	ID string

	Title   string
	Link    string
	Summary string
	Content string
	Author  string

	// Categories are the entry's declared categories
	Categories []string

	Published *time.Time
	Updated   *time.Time
}

// IsValid checks if the item has enough data to become an article
func (i ParsedItem) IsValid() bool {
	return i.ID != "" && (i.Title != "" || i.Link != "" || i.Summary != "" || i.Content != "")
}
