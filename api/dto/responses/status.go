// ABOUTME: Response DTOs for the refresher control endpoints
// ABOUTME: Provides run status, control acknowledgements and stored articles

package responses

import "time"

// StatusResponse describes the refresher and its current or last run
type StatusResponse struct {
	Suspended      bool       `json:"suspended" doc:"Whether work is suspended"`
	Running        bool       `json:"running" doc:"Whether a refresh run is active"`
	Runs           int        `json:"runs" doc:"Number of runs started since the process began"`
	Feeds          int        `json:"feeds" doc:"Feeds in the current or last run"`
	FeedsCompleted int        `json:"feeds_completed" doc:"Feeds finished in the current or last run"`
	ActiveRequests int        `json:"active_requests" doc:"Refresh requests not yet completed"`
	PendingUnits   int        `json:"pending_units" doc:"Outstanding fetches and batches"`
	PendingBatches int        `json:"pending_batches" doc:"Rate-limited batches waiting for their timer"`
	StartedAt      *time.Time `json:"started_at,omitempty" doc:"When the current or last run started"`
	FinishedAt     *time.Time `json:"finished_at,omitempty" doc:"When the last run finished"`
	LastError      string     `json:"last_error,omitempty" doc:"Error that prevented the last run from starting"`
}

// ControlResponse acknowledges a control action
type ControlResponse struct {
	Accepted bool   `json:"accepted" doc:"Whether the action took effect"`
	Message  string `json:"message" doc:"Human-readable outcome"`
}

// ArticleResponse represents a stored article
type ArticleResponse struct {
	ID        string     `json:"id" doc:"Article identifier within its feed"`
	Title     string     `json:"title" doc:"Article title"`
	Link      string     `json:"link" doc:"Link to the full article"`
	Summary   string     `json:"summary,omitempty" doc:"Plain-text summary"`
	Author    string     `json:"author,omitempty" doc:"Author of the article"`
	Published *time.Time `json:"published,omitempty" doc:"Publication date"`
	FetchedAt time.Time  `json:"fetched_at" doc:"When the article was last seen in its feed"`
}

// ArticlesResponse lists the stored articles of a feed
type ArticlesResponse struct {
	FeedURL  string            `json:"feed_url" doc:"Feed URL"`
	Articles []ArticleResponse `json:"articles" doc:"Stored articles, most recently fetched first"`
	Total    int               `json:"total" doc:"Number of articles returned"`
}
