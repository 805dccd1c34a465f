// ABOUTME: Completion aggregator for one refresh request
// ABOUTME: Counts outstanding fetch units and fires the completion callback exactly once

package refresh

import "sync"

// aggregator is the pending work counter of a refresh request.
// A unit is either an immediate fetch or a batch that has not been dispatched yet.
type aggregator struct {
	mu         sync.Mutex
	pending    int
	onComplete func()
}

func newAggregator(onComplete func()) *aggregator {
	return &aggregator{onComplete: onComplete}
}

// Register adds n outstanding units
func (a *aggregator) Register(n int) {
	if n <= 0 {
		return
	}
	a.mu.Lock()
	a.pending += n
	a.mu.Unlock()
}

// Resolve completes one unit. The callback runs outside the lock when the
// counter reaches zero, and is cleared first so late events cannot fire it again.
// Returns false when there was nothing left to resolve.
func (a *aggregator) Resolve() bool {
	a.mu.Lock()
	if a.pending == 0 {
		a.mu.Unlock()
		return false
	}
	a.pending--

	var callback func()
	if a.pending == 0 {
		callback = a.onComplete
		a.onComplete = nil
	}
	a.mu.Unlock()

	if callback != nil {
		callback()
	}
	return true
}

// Pending returns the number of outstanding units
func (a *aggregator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}
