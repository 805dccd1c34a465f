// ABOUTME: Runner triggers refreshes of the subscribed feed set one at a time
// ABOUTME: Skips triggers while a refresh is active and records the outcome of each run

package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"digests-refresher/core/domain"
	"digests-refresher/core/interfaces"
	"k8s.io/utils/clock"
)

var (
	// ErrRefreshActive is returned when a trigger arrives during a refresh
	ErrRefreshActive = errors.New("a refresh is already running")

	// ErrSuspended is returned when a trigger arrives while suspended
	ErrSuspended = errors.New("refresher is suspended")
)

// FeedSource returns the feeds a run should refresh
type FeedSource func(ctx context.Context) ([]*domain.Feed, error)

// RunInfo describes the current or most recent run
type RunInfo struct {
	Running        bool      `json:"running"`
	Runs           int       `json:"runs"`
	Feeds          int       `json:"feeds"`
	FeedsCompleted int       `json:"feeds_completed"`
	StartedAt      time.Time `json:"started_at,omitempty"`
	FinishedAt     time.Time `json:"finished_at,omitempty"`
	LastError      string    `json:"last_error,omitempty"`
}

// Runner serializes refresh runs over a Refresher
type Runner struct {
	refresher *Refresher
	progress  *Progress
	source    FeedSource
	logger    interfaces.Logger
	clock     clock.Clock

	mu   sync.Mutex
	info RunInfo
	done chan struct{}
}

// NewRunner creates a runner. progress may be nil.
func NewRunner(refresher *Refresher, progress *Progress, source FeedSource, logger interfaces.Logger, clk clock.Clock) *Runner {
	if logger == nil {
		logger = nopLogger{}
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Runner{
		refresher: refresher,
		progress:  progress,
		source:    source,
		logger:    logger,
		clock:     clk,
	}
}

// Trigger starts a run and returns without waiting for it
func (r *Runner) Trigger(ctx context.Context) error {
	if r.refresher.IsSuspended() {
		return ErrSuspended
	}

	r.mu.Lock()
	if r.info.Running {
		r.mu.Unlock()
		return ErrRefreshActive
	}
	r.info.Running = true
	r.mu.Unlock()

	feeds, err := r.source(ctx)
	if err != nil {
		r.mu.Lock()
		r.info.Running = false
		r.info.LastError = err.Error()
		r.mu.Unlock()
		return err
	}

	if r.progress != nil {
		r.progress.Reset()
	}

	done := make(chan struct{})
	started := r.clock.Now()

	r.mu.Lock()
	r.info.Runs++
	r.info.Feeds = len(feeds)
	r.info.StartedAt = started
	r.info.FinishedAt = time.Time{}
	r.info.LastError = ""
	r.done = done
	r.mu.Unlock()

	r.logger.Info("Refresh run started", map[string]interface{}{
		"feeds": len(feeds),
	})

	r.refresher.Refresh(feeds, func() {
		finished := r.clock.Now()

		r.mu.Lock()
		r.info.Running = false
		r.info.FinishedAt = finished
		r.mu.Unlock()
		close(done)

		r.logger.Info("Refresh run finished", map[string]interface{}{
			"feeds":       len(feeds),
			"duration_ms": finished.Sub(started).Milliseconds(),
		})
	})
	return nil
}

// Wait blocks until the active run finishes or ctx is done
func (r *Runner) Wait(ctx context.Context) error {
	r.mu.Lock()
	done := r.done
	running := r.info.Running
	r.mu.Unlock()

	if !running || done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Info returns a snapshot of the current or most recent run
func (r *Runner) Info() RunInfo {
	r.mu.Lock()
	info := r.info
	r.mu.Unlock()

	if r.progress != nil {
		info.FeedsCompleted = r.progress.Completed()
	}
	return info
}

// Stats returns the refresher's activity snapshot
func (r *Runner) Stats() Stats {
	return r.refresher.Stats()
}

// Suspend suspends the refresher; the active run still completes
func (r *Runner) Suspend() {
	r.refresher.Suspend()
}

// Resume lets later triggers do work again
func (r *Runner) Resume() {
	r.refresher.Resume()
}

// Progress counts per-feed completions of the current run
type Progress struct {
	logger interfaces.Logger

	mu        sync.Mutex
	completed int
}

var _ interfaces.RefreshObserver = (*Progress)(nil)

// NewProgress creates a progress observer; logger may be nil
func NewProgress(logger interfaces.Logger) *Progress {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Progress{logger: logger}
}

// FeedRequestCompleted records one finished feed
func (p *Progress) FeedRequestCompleted(feed *domain.Feed) {
	p.mu.Lock()
	p.completed++
	p.mu.Unlock()

	p.logger.Debug("Feed request completed", map[string]interface{}{
		"url": feed.URL,
	})
}

// Completed returns the number of feeds finished since the last Reset
func (p *Progress) Completed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed
}

// Reset zeroes the counter
func (p *Progress) Reset() {
	p.mu.Lock()
	p.completed = 0
	p.mu.Unlock()
}
