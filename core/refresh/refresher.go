// ABOUTME: Refresher coordinates feed downloads, change detection and downstream sync
// ABOUTME: Partitions rate-limited hosts into delayed batches and reports completion once per request

package refresh

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"digests-refresher/core/delta"
	"digests-refresher/core/domain"
	coreerrors "digests-refresher/core/errors"
	"digests-refresher/core/interfaces"
	"digests-refresher/core/schedule"
	"digests-refresher/pkg/featureflags"
	"github.com/google/uuid"
	"k8s.io/utils/clock"
)

// DefaultOperationTimeout bounds parse, storage and sync calls for one feed
const DefaultOperationTimeout = 2 * time.Minute

// Options configures a Refresher
type Options struct {
	// Policy decides which feeds are batched and how far apart
	Policy schedule.Policy

	// Clock drives batch timers; nil means the real clock
	Clock clock.Clock

	// Flags toggles optional behavior; nil disables every flag
	Flags featureflags.Manager

	// NewTransport creates the download transport bound to the refresher
	NewTransport interfaces.TransportFactory

	// OperationTimeout bounds collaborator calls for one feed
	OperationTimeout time.Duration
}

// Stats is a snapshot of the refresher's activity
type Stats struct {
	Suspended      bool `json:"suspended"`
	ActiveRequests int  `json:"active_requests"`
	PendingUnits   int  `json:"pending_units"`
	PendingBatches int  `json:"pending_batches"`
}

// request is one submitted feed set and its completion bookkeeping
type request struct {
	id        string
	feedCount int
	startedAt time.Time
	agg       *aggregator

	mu     sync.Mutex
	handle *schedule.Handle
}

func (req *request) setHandle(h *schedule.Handle) {
	req.mu.Lock()
	req.handle = h
	req.mu.Unlock()
}

func (req *request) pendingBatches() int {
	req.mu.Lock()
	defer req.mu.Unlock()
	if req.handle == nil {
		return 0
	}
	return req.handle.Pending()
}

func (req *request) cancelBatches() []schedule.Batch {
	req.mu.Lock()
	h := req.handle
	req.mu.Unlock()
	if h == nil {
		return nil
	}
	return h.Cancel()
}

// Refresher fetches feeds, forwards genuine changes to storage and sync,
// and reports when every unit of a refresh request has finished.
type Refresher struct {
	deps      interfaces.Dependencies
	logger    interfaces.Logger
	policy    schedule.Policy
	scheduler *schedule.Scheduler
	flags     featureflags.Manager
	transport interfaces.Transport
	timeout   time.Duration

	mu        sync.Mutex
	suspended bool
	active    map[*request]struct{}
}

// NewRefresher creates a refresher. opts.NewTransport is required.
func NewRefresher(deps interfaces.Dependencies, opts Options) *Refresher {
	logger := deps.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	flags := opts.Flags
	if flags == nil {
		flags = featureflags.NewStaticManager(nil)
	}
	timeout := opts.OperationTimeout
	if timeout <= 0 {
		timeout = DefaultOperationTimeout
	}

	r := &Refresher{
		deps:      deps,
		logger:    logger,
		policy:    opts.Policy,
		scheduler: schedule.NewScheduler(opts.Clock),
		flags:     flags,
		timeout:   timeout,
		active:    make(map[*request]struct{}),
	}
	r.transport = opts.NewTransport(r)
	return r
}

// Refresh downloads feeds and calls onComplete exactly once after every
// immediate fetch and every scheduled batch has resolved. An empty feed set
// calls onComplete before Refresh returns.
func (r *Refresher) Refresh(feeds []*domain.Feed, onComplete func()) {
	if onComplete == nil {
		onComplete = func() {}
	}

	feeds = uniqueFeeds(feeds)
	if len(feeds) == 0 {
		onComplete()
		return
	}

	immediate, batches := r.policy.Partition(feeds)

	req := &request{
		id:        uuid.New().String(),
		feedCount: len(feeds),
		startedAt: time.Now(),
	}
	req.agg = newAggregator(func() {
		r.untrack(req)
		r.logger.Info("Refresh completed", map[string]interface{}{
			"request_id": req.id,
			"feeds":      req.feedCount,
			"duration":   time.Since(req.startedAt).String(),
		})
		onComplete()
	})

	// Batches count as units from now on so completion cannot fire before they are dispatched
	req.agg.Register(len(immediate) + len(batches))
	r.track(req)

	r.logger.Info("Refresh started", map[string]interface{}{
		"request_id": req.id,
		"feeds":      len(feeds),
		"immediate":  len(immediate),
		"batches":    len(batches),
	})

	if len(immediate) > 0 {
		r.transport.Download(r.unitsFor(req, immediate))
	}

	if len(batches) > 0 {
		req.setHandle(r.scheduler.Schedule(batches, func(b schedule.Batch) {
			r.dispatchBatch(req, b)
		}))
	}
}

// RefreshContext runs Refresh and blocks until it completes or ctx is done.
// Returning early does not cancel the refresh.
func (r *Refresher) RefreshContext(ctx context.Context, feeds []*domain.Feed) error {
	done := make(chan struct{})
	r.Refresh(feeds, func() { close(done) })

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Suspend cancels in-flight downloads and stops further parsing, storage and
// sync work. It never fires a completion itself: cancelled units resolve as
// unchanged, so pending completions still fire once they drain.
func (r *Refresher) Suspend() {
	r.mu.Lock()
	r.suspended = true
	requests := make([]*request, 0, len(r.active))
	for req := range r.active {
		requests = append(requests, req)
	}
	r.mu.Unlock()

	r.transport.CancelAll()

	cancelled := 0
	if r.flags.IsEnabled(context.Background(), featureflags.CancelPendingBatches) {
		for _, req := range requests {
			for range req.cancelBatches() {
				cancelled++
				req.agg.Resolve()
			}
		}
	}

	r.logger.Info("Refresher suspended", map[string]interface{}{
		"active_requests":   len(requests),
		"cancelled_batches": cancelled,
	})
}

// Resume allows future refreshes to do work again. Cancelled downloads and
// batches are not restarted.
func (r *Refresher) Resume() {
	r.mu.Lock()
	r.suspended = false
	r.mu.Unlock()

	r.logger.Info("Refresher resumed", nil)
}

// IsSuspended reports whether the suspension flag is set
func (r *Refresher) IsSuspended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.suspended
}

// Stats returns a snapshot of current activity
func (r *Refresher) Stats() Stats {
	r.mu.Lock()
	stats := Stats{Suspended: r.suspended, ActiveRequests: len(r.active)}
	requests := make([]*request, 0, len(r.active))
	for req := range r.active {
		requests = append(requests, req)
	}
	r.mu.Unlock()

	for _, req := range requests {
		stats.PendingUnits += req.agg.Pending()
		stats.PendingBatches += req.pendingBatches()
	}
	return stats
}

// dispatchBatch starts a batch's downloads. Its feeds are registered before
// the batch unit resolves so the counter never touches zero in between.
func (r *Refresher) dispatchBatch(req *request, b schedule.Batch) {
	r.logger.Info("Dispatching rate-limited batch", map[string]interface{}{
		"request_id": req.id,
		"batch":      b.Index,
		"feeds":      len(b.Feeds),
		"delay":      b.Delay.String(),
	})

	req.agg.Register(len(b.Feeds))
	if len(b.Feeds) > 0 {
		r.transport.Download(r.unitsFor(req, b.Feeds))
	}
	req.agg.Resolve()
}

func (r *Refresher) unitsFor(req *request, feeds []*domain.Feed) []any {
	items := make([]any, 0, len(feeds))
	for _, feed := range feeds {
		items = append(items, newFetchUnit(feed, req))
	}
	return items
}

func (r *Refresher) track(req *request) {
	r.mu.Lock()
	r.active[req] = struct{}{}
	r.mu.Unlock()
}

func (r *Refresher) untrack(req *request) {
	r.mu.Lock()
	delete(r.active, req)
	r.mu.Unlock()
}

// beginPersisting moves a unit to Persisting unless the refresher is suspended.
// It shares the suspension lock so no storage call starts after Suspend returns.
func (r *Refresher) beginPersisting(u *fetchUnit) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.suspended {
		return false
	}
	u.setState(StatePersisting)
	return true
}

// uniqueFeeds drops nil feeds and repeated URLs, keeping the first occurrence
func uniqueFeeds(feeds []*domain.Feed) []*domain.Feed {
	seen := make(map[string]struct{}, len(feeds))
	unique := make([]*domain.Feed, 0, len(feeds))
	for _, feed := range feeds {
		if feed == nil {
			continue
		}
		if _, ok := seen[feed.URL]; ok {
			continue
		}
		seen[feed.URL] = struct{}{}
		unique = append(unique, feed)
	}
	return unique
}

// validFeedURL reports whether the feed URL can be requested
func validFeedURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// requestHeader builds conditional GET headers from stored metadata
func requestHeader(feed *domain.Feed) http.Header {
	header := http.Header{}
	delta.AddRequestHeaders(feed.Metadata().ConditionalGetInfo, header)
	return header
}

// logFields returns the common fields for per-feed log lines
func logFields(u *fetchUnit, extra map[string]interface{}) map[string]interface{} {
	fields := map[string]interface{}{
		"request_id": u.req.id,
		"url":        u.feed.URL,
	}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}

// errorFields adds the error and its kind to log fields
func errorFields(err error) map[string]interface{} {
	return map[string]interface{}{
		"error":      err.Error(),
		"error_kind": coreerrors.Kind(err),
	}
}
