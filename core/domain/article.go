// ABOUTME: Article domain model and the change set produced by storage reconciliation
// ABOUTME: ArticleChanges is what gets forwarded to the sync collaborator

package domain

import "time"

// Article is a stored feed entry
type Article struct {
	FeedURL   string     `json:"feed_url"`
	ArticleID string     `json:"article_id"`
	Title     string     `json:"title,omitempty"`
	Link      string     `json:"link,omitempty"`
	Summary   string     `json:"summary,omitempty"`
	Content   string     `json:"content,omitempty"`
	Author    string     `json:"author,omitempty"`
	Published *time.Time `json:"published,omitempty"`
	Updated   *time.Time `json:"updated,omitempty"`

	// Checksum fingerprints the article fields so updates can be detected
	Checksum string `json:"checksum"`

	FetchedAt time.Time `json:"fetched_at"`
}

// ArticleChanges describes the outcome of reconciling a parsed feed against storage
type ArticleChanges struct {
	FeedURL string    `json:"feed_url"`
	New     []Article `json:"new,omitempty"`
	Updated []Article `json:"updated,omitempty"`
	Deleted []Article `json:"deleted,omitempty"`
}

// IsEmpty reports whether the change set carries no articles
func (c *ArticleChanges) IsEmpty() bool {
	return c == nil || (len(c.New) == 0 && len(c.Updated) == 0 && len(c.Deleted) == 0)
}

// Count returns the total number of changed articles
func (c *ArticleChanges) Count() int {
	if c == nil {
		return 0
	}
	return len(c.New) + len(c.Updated) + len(c.Deleted)
}
