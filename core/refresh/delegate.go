// ABOUTME: Download delegate implementation of the refresher
// ABOUTME: Runs the per-feed protocol from downloaded bytes to persisted, synced changes

package refresh

import (
	"context"
	"errors"

	"digests-refresher/core/delta"
	"digests-refresher/core/domain"
	coreerrors "digests-refresher/core/errors"
	"digests-refresher/core/interfaces"
)

var _ interfaces.DownloadDelegate = (*Refresher)(nil)

var errNoParsedFeed = errors.New("parser returned no feed")

// RequestFor builds the conditional GET request for a feed
func (r *Refresher) RequestFor(item any) *interfaces.DownloadRequest {
	u, ok := item.(*fetchUnit)
	if !ok || !validFeedURL(u.feed.URL) {
		return nil
	}

	return &interfaces.DownloadRequest{
		URL:    u.feed.URL,
		Header: requestHeader(u.feed),
	}
}

// ShouldContinue stops downloads once suspended or when the bytes cannot be a feed
func (r *Refresher) ShouldContinue(item any, data []byte) bool {
	u, ok := item.(*fetchUnit)
	if !ok {
		return false
	}
	if r.IsSuspended() {
		return false
	}
	if len(data) == 0 {
		return true
	}
	if delta.IsDefinitelyNotFeed(data) {
		r.logger.Debug("Aborting download of non-feed content", logFields(u, nil))
		return false
	}
	return true
}

// DownloadDidComplete runs the per-feed protocol and releases the item when done
func (r *Refresher) DownloadDidComplete(item any, resp interfaces.Response, data []byte, err error, done func()) {
	defer done()

	u, ok := item.(*fetchUnit)
	if !ok {
		return
	}
	r.process(u, resp, data, err)
}

// DidReceiveUnexpectedResponse resolves a feed whose server answered with an error status
func (r *Refresher) DidReceiveUnexpectedResponse(item any, resp interfaces.Response) {
	u, ok := item.(*fetchUnit)
	if !ok {
		return
	}

	status := 0
	if resp != nil {
		status = resp.StatusCode()
	}
	r.finishNoChange(u, "unexpected_response", &coreerrors.TransportError{URL: u.feed.URL, StatusCode: status})
}

// DidReceiveNotModified resolves a feed the server reported as unchanged
func (r *Refresher) DidReceiveNotModified(item any, resp interfaces.Response) {
	if u, ok := item.(*fetchUnit); ok {
		r.finishNoChange(u, "not_modified", nil)
	}
}

// DidDiscardDuplicate resolves a feed whose URL was already being downloaded
func (r *Refresher) DidDiscardDuplicate(item any) {
	if u, ok := item.(*fetchUnit); ok {
		r.finishNoChange(u, "duplicate", nil)
	}
}

// DidCompleteAll is informational; completion is driven by the per-request counters
func (r *Refresher) DidCompleteAll() {
	r.logger.Debug("Download session idle", nil)
}

func (r *Refresher) process(u *fetchUnit, resp interfaces.Response, data []byte, err error) {
	if r.IsSuspended() {
		r.finishNoChange(u, "suspended", nil)
		return
	}
	if err != nil {
		r.finishNoChange(u, "download_failed", &coreerrors.TransportError{URL: u.feed.URL, Err: err})
		return
	}
	if len(data) == 0 {
		r.finishNoChange(u, "empty_body", &coreerrors.ContentError{URL: u.feed.URL, Reason: "empty body"})
		return
	}

	// The server may ignore validators, so the body hash is the real change test
	if !delta.HasChanged(data, u.feed.ContentHash()) {
		r.finishNoChange(u, "unchanged", nil)
		return
	}
	if delta.IsDefinitelyNotFeed(data) {
		r.finishNoChange(u, "not_a_feed", &coreerrors.ContentError{URL: u.feed.URL, Reason: "binary content"})
		return
	}
	u.setState(StateChanged)

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if r.deps.Parser == nil || r.deps.Storage == nil {
		r.finishNoChange(u, "not_configured", nil)
		return
	}

	parsed, err := r.deps.Parser.Parse(ctx, u.feed.URL, data)
	if err == nil && parsed == nil {
		err = errNoParsedFeed
	}
	if err != nil {
		r.finishNoChange(u, "parse_failed", &coreerrors.ParseError{URL: u.feed.URL, Err: err})
		return
	}

	if !r.beginPersisting(u) {
		r.finishNoChange(u, "suspended", nil)
		return
	}

	changes, err := r.deps.Storage.Update(ctx, u.feed, parsed)
	if err != nil {
		r.finishNoChange(u, "storage_failed", &coreerrors.StorageError{Op: "update", Err: err})
		return
	}
	if changes == nil {
		changes = &domain.ArticleChanges{FeedURL: u.feed.URL}
	}

	md := domain.FeedMetadata{
		ContentHash:        delta.Hash(data),
		ConditionalGetInfo: delta.NextMetadata(resp),
	}
	u.feed.SetMetadata(md)
	u.setState(StatePersisted)
	r.saveState(ctx, u, md)

	r.logger.Info("Feed updated", logFields(u, map[string]interface{}{
		"new":     len(changes.New),
		"updated": len(changes.Updated),
		"deleted": len(changes.Deleted),
	}))

	r.notifyCompleted(u)

	if r.deps.Notifier != nil {
		if err := r.deps.Notifier.Notify(ctx, changes); err != nil {
			r.logger.Error("Sync notification failed", logFields(u, errorFields(err)))
		}
	}

	r.resolve(u)
}

// saveState persists fetch metadata; failures only cost a full download next time
func (r *Refresher) saveState(ctx context.Context, u *fetchUnit, md domain.FeedMetadata) {
	if r.deps.StateStore == nil {
		return
	}
	if err := r.deps.StateStore.Save(ctx, u.feed.URL, md); err != nil {
		r.logger.Warn("Failed to save feed state", logFields(u, errorFields(err)))
	}
}

// finishNoChange resolves a unit that produced no downstream work
func (r *Refresher) finishNoChange(u *fetchUnit, reason string, err error) {
	fields := logFields(u, map[string]interface{}{"reason": reason})
	if err != nil {
		for k, v := range errorFields(err) {
			fields[k] = v
		}
		r.logger.Warn("Feed refresh failed", fields)
	} else {
		r.logger.Debug("Feed unchanged", fields)
	}

	if u.State() != StateDone {
		u.setState(StateNoChange)
	}
	r.notifyCompleted(u)
	r.resolve(u)
}

// notifyCompleted tells the observer about a feed once, whatever the outcome
func (r *Refresher) notifyCompleted(u *fetchUnit) {
	u.notified.Do(func() {
		if r.deps.Observer != nil {
			r.deps.Observer.FeedRequestCompleted(u.feed)
		}
	})
}

// resolve decrements the request counter once per unit
func (r *Refresher) resolve(u *fetchUnit) {
	u.resolved.Do(func() {
		u.setState(StateDone)
		if !u.req.agg.Resolve() {
			r.logger.Error("Resolved more units than registered", logFields(u, nil))
		}
	})
}

// nopLogger discards everything
type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}
