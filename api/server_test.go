package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"digests-refresher/core/domain"
	"digests-refresher/core/refresh"
)

type stubController struct {
	stats refresh.Stats
}

func (s *stubController) Trigger(ctx context.Context) error { return nil }
func (s *stubController) Info() refresh.RunInfo             { return refresh.RunInfo{} }
func (s *stubController) Stats() refresh.Stats              { return s.stats }
func (s *stubController) Suspend()                          { s.stats.Suspended = true }
func (s *stubController) Resume()                           { s.stats.Suspended = false }

type stubArticles struct{}

func (stubArticles) RecentArticles(ctx context.Context, feedURL string, limit int) ([]domain.Article, error) {
	return nil, nil
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, fields map[string]interface{}) {}
func (nopLogger) Info(msg string, fields map[string]interface{})  {}
func (nopLogger) Warn(msg string, fields map[string]interface{})  {}
func (nopLogger) Error(msg string, fields map[string]interface{}) {}

func TestNewAPI_HasCorrectInfo(t *testing.T) {
	api, router := NewAPI()
	if router == nil {
		t.Fatal("NewAPI returned nil router")
	}

	info := api.OpenAPI().Info
	if info.Title != "Digests Refresher" {
		t.Errorf("API title = %s, want Digests Refresher", info.Title)
	}
	if info.Version != "1.0.0" {
		t.Errorf("API version = %s, want 1.0.0", info.Version)
	}
}

func TestAPI_OpenAPIEndpoint(t *testing.T) {
	_, router := NewAPI()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	if w.Code != http.StatusOK {
		t.Errorf("OpenAPI endpoint status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.oai.openapi+json" {
		t.Errorf("OpenAPI content-type = %s, want application/vnd.oai.openapi+json", ct)
	}
}

func TestNewAPIWithMiddleware_RegistersRoutes(t *testing.T) {
	api, router, limiter := NewAPIWithMiddleware(APIConfig{
		Logger:     nopLogger{},
		RateLimit:  100,
		RateWindow: time.Minute,
		Controller: &stubController{},
		Articles:   stubArticles{},
	})
	if limiter == nil {
		t.Fatal("expected a rate limiter")
	}
	defer limiter.Stop()

	for _, path := range []string{"/status", "/refresh", "/suspend", "/resume", "/articles"} {
		if api.OpenAPI().Paths[path] == nil {
			t.Errorf("route %s not registered", path)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("request logging middleware did not set X-Request-ID")
	}
	if w.Header().Get("X-RateLimit-Limit") != "100" {
		t.Errorf("X-RateLimit-Limit = %q, want 100", w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestNewAPIWithMiddleware_OptionalParts(t *testing.T) {
	api, _, limiter := NewAPIWithMiddleware(APIConfig{Controller: &stubController{}})
	if limiter != nil {
		t.Error("rate limiter should be disabled without a limit")
	}
	if api.OpenAPI().Paths["/articles"] != nil {
		t.Error("/articles should not be registered without a reader")
	}
}
