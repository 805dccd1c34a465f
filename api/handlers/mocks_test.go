package handlers

import (
	"context"
	"sync"

	"digests-refresher/core/domain"
	"digests-refresher/core/refresh"
)

type mockController struct {
	mu           sync.Mutex
	triggerFunc  func(ctx context.Context) error
	info         refresh.RunInfo
	stats        refresh.Stats
	triggerCalls int
	suspendCalls int
	resumeCalls  int
}

func (m *mockController) Trigger(ctx context.Context) error {
	m.mu.Lock()
	m.triggerCalls++
	m.mu.Unlock()
	if m.triggerFunc != nil {
		return m.triggerFunc(ctx)
	}
	return nil
}

func (m *mockController) Info() refresh.RunInfo { return m.info }

func (m *mockController) Stats() refresh.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *mockController) Suspend() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suspendCalls++
	m.stats.Suspended = true
}

func (m *mockController) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumeCalls++
	m.stats.Suspended = false
}

type mockArticleReader struct {
	articlesFunc func(ctx context.Context, feedURL string, limit int) ([]domain.Article, error)
}

func (m *mockArticleReader) RecentArticles(ctx context.Context, feedURL string, limit int) ([]domain.Article, error) {
	if m.articlesFunc != nil {
		return m.articlesFunc(ctx, feedURL, limit)
	}
	return nil, nil
}
