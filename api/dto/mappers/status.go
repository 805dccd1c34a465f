// ABOUTME: Mappers for converting refresher state and articles to API DTOs
// ABOUTME: Provides clean separation between business logic and API layer

package mappers

import (
	"time"

	"digests-refresher/api/dto/responses"
	"digests-refresher/core/domain"
	"digests-refresher/core/refresh"
)

// ToStatusResponse combines run information and refresher stats
func ToStatusResponse(info refresh.RunInfo, stats refresh.Stats) *responses.StatusResponse {
	return &responses.StatusResponse{
		Suspended:      stats.Suspended,
		Running:        info.Running,
		Runs:           info.Runs,
		Feeds:          info.Feeds,
		FeedsCompleted: info.FeedsCompleted,
		ActiveRequests: stats.ActiveRequests,
		PendingUnits:   stats.PendingUnits,
		PendingBatches: stats.PendingBatches,
		StartedAt:      timePtr(info.StartedAt),
		FinishedAt:     timePtr(info.FinishedAt),
		LastError:      info.LastError,
	}
}

// ToArticleResponse converts a stored article
func ToArticleResponse(a domain.Article) responses.ArticleResponse {
	return responses.ArticleResponse{
		ID:        a.ArticleID,
		Title:     a.Title,
		Link:      a.Link,
		Summary:   a.Summary,
		Author:    a.Author,
		Published: a.Published,
		FetchedAt: a.FetchedAt,
	}
}

// ToArticlesResponse converts stored articles to the API response
func ToArticlesResponse(feedURL string, articles []domain.Article) *responses.ArticlesResponse {
	resp := &responses.ArticlesResponse{
		FeedURL:  feedURL,
		Articles: make([]responses.ArticleResponse, 0, len(articles)),
	}
	for _, a := range articles {
		resp.Articles = append(resp.Articles, ToArticleResponse(a))
	}
	resp.Total = len(resp.Articles)
	return resp
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
