// ABOUTME: Transport contract between the refresh core and the download layer
// ABOUTME: Event-notification delegate with exactly one terminal event per item

package interfaces

import "net/http"

// DownloadRequest is what the delegate asks the transport to fetch for an item
type DownloadRequest struct {
	URL    string
	Header http.Header
}

// DownloadDelegate receives transport events for opaque work items.
//
// Every item handed to Transport.Download receives exactly one terminal event:
// DownloadDidComplete, DidReceiveUnexpectedResponse, DidReceiveNotModified or
// DidDiscardDuplicate. Methods may be called from many goroutines at once.
type DownloadDelegate interface {
	// RequestFor builds the request for an item. A nil request completes the
	// item through DownloadDidComplete with ErrInvalidRequest.
	RequestFor(item any) *DownloadRequest

	// ShouldContinue is called with the bytes received so far after each chunk.
	// Returning false aborts the download; the item then completes with ErrDownloadAborted.
	ShouldContinue(item any, data []byte) bool

	// DownloadDidComplete delivers the body (possibly empty) or the error.
	// The delegate must call done exactly once when it has finished with the item.
	DownloadDidComplete(item any, resp Response, data []byte, err error, done func())

	// DidReceiveUnexpectedResponse reports a non-2xx, non-304 response
	DidReceiveUnexpectedResponse(item any, resp Response)

	// DidReceiveNotModified reports a 304 response
	DidReceiveNotModified(item any, resp Response)

	// DidDiscardDuplicate reports an item whose URL was already being downloaded
	DidDiscardDuplicate(item any)

	// DidCompleteAll is called whenever the transport becomes idle
	DidCompleteAll()
}

// Transport downloads items on behalf of a DownloadDelegate
type Transport interface {
	// Download starts downloading items concurrently and returns immediately
	Download(items []any)

	// CancelAll stops delivering chunks for in-flight items. Each of them still
	// gets exactly one DownloadDidComplete carrying a cancellation error.
	CancelAll()
}

// TransportFactory creates a transport bound to a delegate
type TransportFactory func(delegate DownloadDelegate) Transport
