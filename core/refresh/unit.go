// ABOUTME: Per-feed fetch unit tracked by the refresher
// ABOUTME: Guards the one completion notification and the one counter decrement per feed

package refresh

import (
	"sync"
	"sync/atomic"

	"digests-refresher/core/domain"
)

// UnitState is the lifecycle position of a fetch unit
type UnitState int32

const (
	StatePending UnitState = iota
	StateNoChange
	StateChanged
	StatePersisting
	StatePersisted
	StateDone
)

var unitStateNames = map[UnitState]string{
	StatePending:    "pending",
	StateNoChange:   "no_change",
	StateChanged:    "changed",
	StatePersisting: "persisting",
	StatePersisted:  "persisted",
	StateDone:       "done",
}

// String returns the state name used in logs
func (s UnitState) String() string {
	if name, ok := unitStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// fetchUnit is the opaque item handed to the transport
type fetchUnit struct {
	feed *domain.Feed
	req  *request

	state    atomic.Int32
	notified sync.Once
	resolved sync.Once
}

func newFetchUnit(feed *domain.Feed, req *request) *fetchUnit {
	return &fetchUnit{feed: feed, req: req}
}

func (u *fetchUnit) State() UnitState {
	return UnitState(u.state.Load())
}

func (u *fetchUnit) setState(s UnitState) {
	u.state.Store(int32(s))
}
