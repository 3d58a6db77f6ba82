// Package pool dispatches batches of provider requests with bounded
// concurrency.
//
// A Dispatcher wraps one core.Caller. Run sends every request of a batch,
// never more than the configured ceiling at once, and returns the responses
// in submission order regardless of completion order:
//
//	d := pool.New(client.Completions(), pool.WithConcurrency(5))
//	batch, err := d.Run(ctx, []pool.Request{
//	    {Payload: p1, After: func(r *core.Response) { log.Println(r.Model) }},
//	    {Payload: p2},
//	})
//
// Run is all-or-nothing. The first failed request aborts the batch: queued
// requests are never sent and Run returns a *BatchAbortedError wrapping the
// provider's classified error. Requests already in flight finish in the
// background and their results are discarded; their After callbacks do not
// run. RunCollect is the non-aborting variant that reports a Result
// for every index.
//
// Usage records emitted by the provider client are surfaced per batch in
// Batch.Usage, in the order of the requests that produced them.
package pool
