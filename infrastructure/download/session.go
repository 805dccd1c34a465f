// ABOUTME: Download session that fetches feed items concurrently for a delegate
// ABOUTME: Bounds concurrency, paces hosts, streams bodies in chunks and supports cancel-all

package download

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"

	coreerrors "digests-refresher/core/errors"
	"digests-refresher/core/interfaces"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	DefaultConcurrency  = 10
	DefaultMaxBodyBytes = 10 << 20
	DefaultChunkSize    = 32 << 10
)

// Options configures a session
type Options struct {
	// Concurrency caps simultaneous downloads; zero uses DefaultConcurrency
	Concurrency int

	// HostRPS paces requests per host; zero disables pacing
	HostRPS float64

	// HostBurst is the per-host burst size when pacing is enabled
	HostBurst int

	// MaxBodyBytes caps a response body; zero uses DefaultMaxBodyBytes
	MaxBodyBytes int64

	// ChunkSize is the read size between ShouldContinue checks
	ChunkSize int
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.HostRPS > 0 && o.HostBurst <= 0 {
		o.HostBurst = 1
	}
	return o
}

// Session implements the Transport interface over an HTTPClient
type Session struct {
	client   interfaces.HTTPClient
	delegate interfaces.DownloadDelegate
	logger   interfaces.Logger
	opts     Options
	sem      *semaphore.Weighted

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	inflight map[string]struct{}
	active   int
	limiters map[string]*rate.Limiter
}

var _ interfaces.Transport = (*Session)(nil)

// NewSession creates a session delivering events to delegate
func NewSession(client interfaces.HTTPClient, delegate interfaces.DownloadDelegate, opts Options, logger interfaces.Logger) *Session {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		client:   client,
		delegate: delegate,
		logger:   logger,
		opts:     opts,
		sem:      semaphore.NewWeighted(int64(opts.Concurrency)),
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[string]struct{}),
		limiters: make(map[string]*rate.Limiter),
	}
}

// NewFactory returns a TransportFactory building sessions that share client and options
func NewFactory(client interfaces.HTTPClient, opts Options, logger interfaces.Logger) interfaces.TransportFactory {
	return func(delegate interfaces.DownloadDelegate) interfaces.Transport {
		return NewSession(client, delegate, opts, logger)
	}
}

// Download starts downloading items and returns immediately
func (s *Session) Download(items []any) {
	if len(items) == 0 {
		return
	}

	// Reserve the whole burst so the session cannot look idle halfway through it
	s.mu.Lock()
	s.active += len(items)
	s.mu.Unlock()

	for _, item := range items {
		req := s.delegate.RequestFor(item)

		s.mu.Lock()
		ctx := s.ctx
		duplicate := false
		if req != nil {
			if _, ok := s.inflight[req.URL]; ok {
				duplicate = true
			} else {
				s.inflight[req.URL] = struct{}{}
			}
		}
		s.mu.Unlock()

		switch {
		case req == nil:
			go s.finish(item, "", func() {
				s.complete(item, nil, nil, coreerrors.ErrInvalidRequest)
			})
		case duplicate:
			go s.finish(item, "", func() {
				s.delegate.DidDiscardDuplicate(item)
			})
		default:
			go s.finish(item, req.URL, func() {
				s.fetch(ctx, item, req)
			})
		}
	}
}

// CancelAll cancels every in-flight download. Later calls to Download start fresh.
func (s *Session) CancelAll() {
	s.mu.Lock()
	cancel := s.cancel
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	cancel()
}

// Active returns the number of items not yet released by the delegate
func (s *Session) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// finish runs deliver, then releases the item and reports idleness
func (s *Session) finish(item any, inflightURL string, deliver func()) {
	deliver()

	s.mu.Lock()
	if inflightURL != "" {
		delete(s.inflight, inflightURL)
	}
	s.active--
	idle := s.active == 0
	s.mu.Unlock()

	if idle {
		s.delegate.DidCompleteAll()
	}
}

// fetch downloads one item and delivers exactly one terminal event
func (s *Session) fetch(ctx context.Context, item any, req *interfaces.DownloadRequest) {
	if err := s.pace(ctx, req.URL); err != nil {
		s.complete(item, nil, nil, cancellationOr(ctx, err))
		return
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.complete(item, nil, nil, cancellationOr(ctx, err))
		return
	}

	resp, data, err := s.get(ctx, item, req)
	s.sem.Release(1)

	// Cancellation wins over whatever the request produced
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.complete(item, resp, nil, ctxErr)
		return
	}
	if err != nil {
		s.complete(item, resp, nil, err)
		return
	}

	switch status := resp.StatusCode(); {
	case status == http.StatusNotModified:
		s.delegate.DidReceiveNotModified(item, resp)
	case status < 200 || status > 299:
		s.delegate.DidReceiveUnexpectedResponse(item, resp)
	default:
		s.complete(item, resp, data, nil)
	}
}

// get performs the request and streams a 2xx body
func (s *Session) get(ctx context.Context, item any, req *interfaces.DownloadRequest) (interfaces.Response, []byte, error) {
	resp, err := s.client.Get(ctx, req.URL, req.Header)
	if err != nil {
		return nil, nil, err
	}
	body := resp.Body()
	if body == nil {
		return resp, nil, nil
	}
	defer body.Close()

	if status := resp.StatusCode(); status < 200 || status > 299 {
		return resp, nil, nil
	}

	data, err := s.read(item, body)
	return resp, data, err
}

// read streams the body in chunks, consulting the delegate after each one
func (s *Session) read(item any, body io.Reader) ([]byte, error) {
	var data []byte
	chunk := make([]byte, s.opts.ChunkSize)
	for {
		n, err := body.Read(chunk)
		if n > 0 {
			if int64(len(data)+n) > s.opts.MaxBodyBytes {
				return nil, coreerrors.ErrBodyTooLarge
			}
			data = append(data, chunk[:n]...)
			if !s.delegate.ShouldContinue(item, data) {
				return nil, coreerrors.ErrDownloadAborted
			}
		}
		if errors.Is(err, io.EOF) {
			return data, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// pace waits for the host's limiter when per-host pacing is enabled
func (s *Session) pace(ctx context.Context, rawURL string) error {
	if s.opts.HostRPS <= 0 {
		return ctx.Err()
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}

	s.mu.Lock()
	limiter, ok := s.limiters[u.Host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(s.opts.HostRPS), s.opts.HostBurst)
		s.limiters[u.Host] = limiter
	}
	s.mu.Unlock()

	return limiter.Wait(ctx)
}

func cancellationOr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// complete hands the result to the delegate and waits until it releases the item
func (s *Session) complete(item any, resp interfaces.Response, data []byte, err error) {
	if err != nil && s.logger != nil {
		s.logger.Debug("Download finished with error", map[string]interface{}{
			"error": err.Error(),
		})
	}

	released := make(chan struct{})
	var once sync.Once
	s.delegate.DownloadDidComplete(item, resp, data, err, func() {
		once.Do(func() { close(released) })
	})
	<-released
}
