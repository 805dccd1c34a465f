package download

import (
	"net/http"
	"sync"

	"digests-refresher/core/interfaces"
)

type event struct {
	kind   string
	item   any
	status int
	data   []byte
	err    error
}

// recordingDelegate uses string items holding the URL to fetch
type recordingDelegate struct {
	mu           sync.Mutex
	events       []event
	idleCount    int
	header       http.Header
	continueFunc func(item any, data []byte) bool
	completeFunc func(item any, done func())

	terminal chan event
	idle     chan struct{}
}

func newRecordingDelegate() *recordingDelegate {
	return &recordingDelegate{
		terminal: make(chan event, 128),
		idle:     make(chan struct{}, 128),
	}
}

func (d *recordingDelegate) record(e event) {
	d.mu.Lock()
	d.events = append(d.events, e)
	d.mu.Unlock()
	d.terminal <- e
}

func (d *recordingDelegate) RequestFor(item any) *interfaces.DownloadRequest {
	u, ok := item.(string)
	if !ok || u == "" {
		return nil
	}
	return &interfaces.DownloadRequest{URL: u, Header: d.header}
}

func (d *recordingDelegate) ShouldContinue(item any, data []byte) bool {
	if d.continueFunc != nil {
		return d.continueFunc(item, data)
	}
	return true
}

func (d *recordingDelegate) DownloadDidComplete(item any, resp interfaces.Response, data []byte, err error, done func()) {
	e := event{kind: "complete", item: item, data: data, err: err}
	if resp != nil {
		e.status = resp.StatusCode()
	}
	d.record(e)
	if d.completeFunc != nil {
		d.completeFunc(item, done)
		return
	}
	done()
}

func (d *recordingDelegate) DidReceiveUnexpectedResponse(item any, resp interfaces.Response) {
	d.record(event{kind: "unexpected", item: item, status: resp.StatusCode()})
}

func (d *recordingDelegate) DidReceiveNotModified(item any, resp interfaces.Response) {
	d.record(event{kind: "not_modified", item: item, status: resp.StatusCode()})
}

func (d *recordingDelegate) DidDiscardDuplicate(item any) {
	d.record(event{kind: "duplicate", item: item})
}

func (d *recordingDelegate) DidCompleteAll() {
	d.mu.Lock()
	d.idleCount++
	d.mu.Unlock()
	d.idle <- struct{}{}
}

func (d *recordingDelegate) eventCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}
