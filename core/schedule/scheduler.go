// ABOUTME: Timer-driven dispatcher for delayed batches
// ABOUTME: A single goroutine drains an explicit queue of (batch, due time) pairs

package schedule

import (
	"sort"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// Scheduler dispatches batches once their delay has elapsed
type Scheduler struct {
	clock clock.Clock
}

// NewScheduler creates a scheduler; a nil clock means the real clock
func NewScheduler(clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Scheduler{clock: clk}
}

// entry is a queued batch and the instant it becomes due
type entry struct {
	batch Batch
	due   time.Time
}

// Handle tracks the batches of one Schedule call
type Handle struct {
	clock    clock.Clock
	dispatch func(Batch)

	mu        sync.Mutex
	queue     []entry
	cancelled bool

	stop chan struct{}
	done chan struct{}
}

// Schedule queues batches relative to now. Batches that are already due
// (delay <= 0) are dispatched before Schedule returns; the rest are
// dispatched in order from a single timer loop. dispatch must not block for long.
func (s *Scheduler) Schedule(batches []Batch, dispatch func(Batch)) *Handle {
	now := s.clock.Now()

	h := &Handle{
		clock:    s.clock,
		dispatch: dispatch,
		queue:    make([]entry, 0, len(batches)),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, b := range batches {
		h.queue = append(h.queue, entry{batch: b, due: now.Add(b.Delay)})
	}
	sort.SliceStable(h.queue, func(i, j int) bool {
		return h.queue[i].due.Before(h.queue[j].due)
	})

	for {
		b, ok := h.popDue(now)
		if !ok {
			break
		}
		dispatch(b)
	}

	if h.Pending() == 0 {
		close(h.done)
		return h
	}

	go h.run()
	return h
}

// Pending returns the number of batches not yet dispatched
func (h *Handle) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled {
		return 0
	}
	return len(h.queue)
}

// Done is closed once every batch was dispatched or the handle was cancelled
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Cancel stops the timer loop and returns the batches that were never dispatched.
// A batch is either dispatched or returned here, never both.
func (h *Handle) Cancel() []Batch {
	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		return nil
	}
	h.cancelled = true
	remaining := make([]Batch, 0, len(h.queue))
	for _, e := range h.queue {
		remaining = append(remaining, e.batch)
	}
	h.queue = nil
	h.mu.Unlock()

	select {
	case <-h.stop:
	default:
		close(h.stop)
	}
	return remaining
}

func (h *Handle) run() {
	defer close(h.done)

	for {
		h.mu.Lock()
		if h.cancelled || len(h.queue) == 0 {
			h.mu.Unlock()
			return
		}
		next := h.queue[0].due
		h.mu.Unlock()

		if wait := next.Sub(h.clock.Now()); wait > 0 {
			timer := h.clock.NewTimer(wait)
			select {
			case <-timer.C():
			case <-h.stop:
				timer.Stop()
				return
			}
		}

		now := h.clock.Now()
		for {
			b, ok := h.popDue(now)
			if !ok {
				break
			}
			h.dispatch(b)
		}
	}
}

// popDue removes and returns the head of the queue if it is due at now
func (h *Handle) popDue(now time.Time) (Batch, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancelled || len(h.queue) == 0 || h.queue[0].due.After(now) {
		return Batch{}, false
	}
	e := h.queue[0]
	h.queue = h.queue[1:]
	return e.batch, true
}
