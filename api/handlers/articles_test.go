package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"digests-refresher/api/dto/responses"
	"digests-refresher/core/domain"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArticleAPI(t *testing.T, reader *mockArticleReader) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	NewArticleHandler(reader).RegisterRoutes(api)
	return api
}

func TestArticleHandler_ListArticles(t *testing.T) {
	feedURL := "https://example.com/feed.xml"
	reader := &mockArticleReader{
		articlesFunc: func(ctx context.Context, u string, limit int) ([]domain.Article, error) {
			assert.Equal(t, feedURL, u)
			assert.Equal(t, 2, limit)
			return []domain.Article{
				{ArticleID: "1", Title: "One"},
				{ArticleID: "2", Title: "Two"},
			}, nil
		},
	}
	api := newArticleAPI(t, reader)

	resp := api.Get("/articles?limit=2&feed_url=" + url.QueryEscape(feedURL))
	require.Equal(t, http.StatusOK, resp.Code)

	var body responses.ArticlesResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, feedURL, body.FeedURL)
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, "One", body.Articles[0].Title)
}

func TestArticleHandler_DefaultLimit(t *testing.T) {
	var got int
	api := newArticleAPI(t, &mockArticleReader{
		articlesFunc: func(ctx context.Context, u string, limit int) ([]domain.Article, error) {
			got = limit
			return nil, nil
		},
	})

	resp := api.Get("/articles?feed_url=" + url.QueryEscape("https://example.com/feed.xml"))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 50, got)
}

func TestArticleHandler_Validation(t *testing.T) {
	api := newArticleAPI(t, &mockArticleReader{})

	resp := api.Get("/articles")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	resp = api.Get("/articles?feed_url=" + url.QueryEscape("not a url"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestArticleHandler_StorageError(t *testing.T) {
	api := newArticleAPI(t, &mockArticleReader{
		articlesFunc: func(ctx context.Context, u string, limit int) ([]domain.Article, error) {
			return nil, errors.New("database is locked")
		},
	})

	resp := api.Get("/articles?feed_url=" + url.QueryEscape("https://example.com/feed.xml"))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
