package middleware

import (
	"context"

	"github.com/petal-labs/scribe/core"
)

// WithRetry retries calls that fail with a transport-kind error, waiting
// between attempts as policy directs. Other kinds fail immediately.
func WithRetry(policy core.RetryPolicy) Middleware {
	if policy == nil {
		policy = core.DefaultRetryPolicy()
	}
	return func(next core.Caller) core.Caller {
		return callFunc(next, func(ctx context.Context, payload core.Payload) (*core.Response, error) {
			return core.Retry(ctx, policy, func(ctx context.Context) (*core.Response, error) {
				return next.Call(ctx, payload)
			})
		})
	}
}
