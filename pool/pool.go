package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/petal-labs/scribe/core"
)

// DefaultConcurrency is the number of requests in flight when no ceiling is
// configured.
const DefaultConcurrency = 10

// Request is one unit of work in a batch.
type Request struct {
	Payload core.Payload
	// After, if set, is called once with the decoded response after the
	// request completes successfully and has released its slot. In Run it
	// is skipped for requests that complete after the batch aborted.
	After func(*core.Response)
}

// Batch is the outcome of a successful Run.
type Batch struct {
	// Responses are index-aligned with the submitted requests.
	Responses []*core.Response
	// Usage holds the usage records emitted by the batch, in request order.
	// Requests that reported no consumption contribute nothing.
	Usage []core.UsageRecord
	// Warnings collects recoverable per-request failures, such as usage
	// records the recorder could not persist.
	Warnings []error
}

// Result is the per-request outcome of RunCollect.
type Result struct {
	Response *core.Response
	Err      error
}

// Dispatcher sends batches through a single Caller. It is safe for
// concurrent use; each Run has its own ceiling.
type Dispatcher struct {
	caller      core.Caller
	concurrency int
	logger      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithConcurrency sets the maximum number of requests in flight. Values
// below one select DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) { d.concurrency = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// New creates a Dispatcher for caller.
func New(caller core.Caller, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		caller:      caller,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.concurrency < 1 {
		d.concurrency = DefaultConcurrency
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Concurrency returns the configured ceiling.
func (d *Dispatcher) Concurrency() int { return d.concurrency }

// Run sends every request and returns their responses in submission order.
// On the first failure it stops dispatching and returns a
// *BatchAbortedError. If ctx is cancelled first, ctx.Err() is returned.
// Run does not wait for in-flight siblings of a failed request, but no
// After callback runs once it has returned an error.
func (d *Dispatcher) Run(ctx context.Context, reqs []Request) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return &Batch{Responses: []*core.Response{}}, nil
	}

	// acquireCtx gates dispatch only. In-flight calls keep the caller's
	// context so an abort does not cut off siblings mid-response.
	acquireCtx, abort := context.WithCancel(ctx)
	defer abort()

	var (
		sem       = semaphore.NewWeighted(int64(d.concurrency))
		wg        sync.WaitGroup
		mu        sync.Mutex
		responses = make([]*core.Response, len(reqs))
		failed    *BatchAbortedError
		provider  = d.caller.ID()
		// callbacks is read-held by running After callbacks. Once discard
		// is set, taking it exclusively waits out callbacks already running.
		callbacks sync.RWMutex
		discard   atomic.Bool
		start     = time.Now()
	)

	for i, req := range reqs {
		if err := sem.Acquire(acquireCtx, 1); err != nil {
			break
		}
		if acquireCtx.Err() != nil {
			sem.Release(1)
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := d.caller.Call(ctx, req.Payload)
			if err != nil {
				// Abort before releasing the slot so no queued request
				// slips through.
				defer sem.Release(1)
				if ctx.Err() != nil {
					abort()
					return
				}
				discard.Store(true)
				mu.Lock()
				first := failed == nil
				if first {
					failed = &BatchAbortedError{Index: i, Provider: provider, Err: err}
				}
				mu.Unlock()
				if first {
					d.logger.Warn("batch aborted",
						"provider", provider,
						"index", i,
						"kind", string(core.KindOf(err)),
						"error", err,
					)
				}
				abort()
				return
			}
			sem.Release(1)

			if req.After != nil {
				callbacks.RLock()
				if discard.Load() {
					callbacks.RUnlock()
					return
				}
				req.After(resp)
				callbacks.RUnlock()
			}

			mu.Lock()
			responses[i] = resp
			mu.Unlock()
		}()
	}

	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()

	select {
	case <-allDone:
	case <-acquireCtx.Done():
	}

	mu.Lock()
	abortErr := failed
	mu.Unlock()
	if abortErr == nil && ctx.Err() != nil {
		discard.Store(true)
	}
	if discard.Load() {
		// Wait out callbacks that started before the abort.
		callbacks.Lock()
		callbacks.Unlock()
	}
	if abortErr != nil {
		return nil, abortErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := &Batch{Responses: responses}
	for i, resp := range responses {
		if resp.Record != nil {
			batch.Usage = append(batch.Usage, *resp.Record)
		}
		for _, w := range resp.Warnings {
			batch.Warnings = append(batch.Warnings, fmt.Errorf("request %d: %w", i, w))
		}
	}

	d.logger.Debug("batch completed",
		"provider", provider,
		"requests", len(reqs),
		"elapsed", time.Since(start),
	)
	return batch, nil
}

// RunCollect sends every request and reports each outcome without aborting
// on failure. Requests not yet started when ctx is cancelled report
// ctx.Err(). After callbacks run for successful requests while the request
// still holds its slot.
func (d *Dispatcher) RunCollect(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			resp, err := d.caller.Call(ctx, req.Payload)
			if err != nil {
				results[i].Err = err
				return nil
			}
			if req.After != nil {
				req.After(resp)
			}
			results[i].Response = resp
			return nil
		})
	}
	_ = g.Wait()
	return results
}
