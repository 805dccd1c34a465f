package refresh

import (
	"context"
	"io"
	"strings"
	"sync"

	"digests-refresher/core/domain"
	"digests-refresher/core/interfaces"
)

// fakeTransport records downloads; tests deliver events by hand
type fakeTransport struct {
	delegate interfaces.DownloadDelegate

	mu          sync.Mutex
	items       []any
	cancelCount int
	downloads   chan []any
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{downloads: make(chan []any, 64)}
}

func (t *fakeTransport) factory() interfaces.TransportFactory {
	return func(d interfaces.DownloadDelegate) interfaces.Transport {
		t.delegate = d
		return t
	}
}

func (t *fakeTransport) Download(items []any) {
	t.mu.Lock()
	t.items = append(t.items, items...)
	t.mu.Unlock()
	t.downloads <- items
}

func (t *fakeTransport) CancelAll() {
	t.mu.Lock()
	t.cancelCount++
	t.mu.Unlock()
}

func (t *fakeTransport) cancelled() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelCount
}

// complete delivers a successful body for item and waits for done
func (t *fakeTransport) complete(item any, body string, headers map[string]string) {
	t.finish(item, &mockResponse{statusCode: 200, body: body, headers: headers}, []byte(body), nil)
}

// fail delivers an error for item and waits for done
func (t *fakeTransport) fail(item any, err error) {
	t.finish(item, nil, nil, err)
}

func (t *fakeTransport) finish(item any, resp interfaces.Response, data []byte, err error) {
	done := make(chan struct{})
	var once sync.Once
	t.delegate.DownloadDidComplete(item, resp, data, err, func() { once.Do(func() { close(done) }) })
	<-done
}

// mockResponse is a mock implementation of the Response interface
type mockResponse struct {
	statusCode int
	body       string
	headers    map[string]string
}

func (m *mockResponse) StatusCode() int {
	return m.statusCode
}

func (m *mockResponse) Body() io.ReadCloser {
	return io.NopCloser(strings.NewReader(m.body))
}

func (m *mockResponse) Header(key string) string {
	if m.headers != nil {
		return m.headers[key]
	}
	return ""
}

// mockParser is a mock implementation of the Parser interface
type mockParser struct {
	mu        sync.Mutex
	calls     int
	parseFunc func(ctx context.Context, feedURL string, data []byte) (*domain.ParsedFeed, error)
}

func (m *mockParser) Parse(ctx context.Context, feedURL string, data []byte) (*domain.ParsedFeed, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.parseFunc != nil {
		return m.parseFunc(ctx, feedURL, data)
	}
	return &domain.ParsedFeed{URL: feedURL, Items: []domain.ParsedItem{{ID: "1", Title: "Item"}}}, nil
}

func (m *mockParser) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockStorage is a mock implementation of the Storage interface
type mockStorage struct {
	mu         sync.Mutex
	calls      int
	updateFunc func(ctx context.Context, feed *domain.Feed, parsed *domain.ParsedFeed) (*domain.ArticleChanges, error)
}

func (m *mockStorage) Update(ctx context.Context, feed *domain.Feed, parsed *domain.ParsedFeed) (*domain.ArticleChanges, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.updateFunc != nil {
		return m.updateFunc(ctx, feed, parsed)
	}
	return &domain.ArticleChanges{FeedURL: feed.URL, New: []domain.Article{{FeedURL: feed.URL, ArticleID: "1"}}}, nil
}

func (m *mockStorage) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockNotifier is a mock implementation of the SyncNotifier interface
type mockNotifier struct {
	mu         sync.Mutex
	calls      int
	notifyFunc func(ctx context.Context, changes *domain.ArticleChanges) error
}

func (m *mockNotifier) Notify(ctx context.Context, changes *domain.ArticleChanges) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.notifyFunc != nil {
		return m.notifyFunc(ctx, changes)
	}
	return nil
}

func (m *mockNotifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockObserver counts FeedRequestCompleted calls per feed URL
type mockObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func newMockObserver() *mockObserver {
	return &mockObserver{counts: make(map[string]int)}
}

func (m *mockObserver) FeedRequestCompleted(feed *domain.Feed) {
	m.mu.Lock()
	m.counts[feed.URL]++
	m.mu.Unlock()
}

func (m *mockObserver) Count(url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[url]
}

// mockStateStore records saved metadata
type mockStateStore struct {
	mu    sync.Mutex
	saved map[string]domain.FeedMetadata
}

func (m *mockStateStore) Load(ctx context.Context, feedURL string) (*domain.FeedMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	md, ok := m.saved[feedURL]
	if !ok {
		return nil, nil
	}
	return &md, nil
}

func (m *mockStateStore) Save(ctx context.Context, feedURL string, md domain.FeedMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = make(map[string]domain.FeedMetadata)
	}
	m.saved[feedURL] = md
	return nil
}

// completionCounter counts onComplete invocations
type completionCounter struct {
	mu    sync.Mutex
	count int
	done  chan struct{}
}

func newCompletionCounter() *completionCounter {
	return &completionCounter{done: make(chan struct{})}
}

func (c *completionCounter) callback() func() {
	return func() {
		c.mu.Lock()
		c.count++
		first := c.count == 1
		c.mu.Unlock()
		if first {
			close(c.done)
		}
	}
}

func (c *completionCounter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
