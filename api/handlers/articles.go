// ABOUTME: Article handlers for the Huma API
// ABOUTME: Lists the stored articles of a subscribed feed

package handlers

import (
	"context"
	"net/http"
	"net/url"

	"digests-refresher/api/dto/mappers"
	"digests-refresher/api/dto/responses"
	"digests-refresher/core/domain"
	coreerrors "digests-refresher/core/errors"
	"github.com/danielgtaylor/huma/v2"
)

// ArticleReader reads stored articles
type ArticleReader interface {
	RecentArticles(ctx context.Context, feedURL string, limit int) ([]domain.Article, error)
}

// ArticleHandler handles article requests
type ArticleHandler struct {
	reader ArticleReader
}

// NewArticleHandler creates a new article handler
func NewArticleHandler(reader ArticleReader) *ArticleHandler {
	return &ArticleHandler{reader: reader}
}

// RegisterRoutes registers article routes
func (h *ArticleHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "listArticles",
		Method:      http.MethodGet,
		Path:        "/articles",
		Summary:     "List stored articles",
		Description: "Returns the stored articles of a feed, most recently fetched first",
		Tags:        []string{"Articles"},
	}, h.ListArticles)
}

// ListArticlesInput defines the input for the ListArticles operation
type ListArticlesInput struct {
	FeedURL string `query:"feed_url" required:"true" doc:"Feed URL"`
	Limit   int    `query:"limit" minimum:"1" maximum:"500" default:"50" doc:"Maximum number of articles"`
}

// ListArticlesOutput defines the output for the ListArticles operation
type ListArticlesOutput struct {
	Body responses.ArticlesResponse
}

// ListArticles handles the GET /articles endpoint
func (h *ArticleHandler) ListArticles(ctx context.Context, input *ListArticlesInput) (*ListArticlesOutput, error) {
	parsed, err := url.Parse(input.FeedURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, toHumaError(&coreerrors.ValidationError{Field: "feed_url", Message: "must be an absolute URL"})
	}

	articles, err := h.reader.RecentArticles(ctx, input.FeedURL, input.Limit)
	if err != nil {
		return nil, toHumaError(&coreerrors.StorageError{Op: "list articles", Err: err})
	}

	resp := mappers.ToArticlesResponse(input.FeedURL, articles)
	return &ListArticlesOutput{Body: *resp}, nil
}
