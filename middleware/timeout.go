package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/petal-labs/scribe/core"
)

// WithTimeout bounds each call to d. A call cut short by this deadline,
// rather than by the caller's own context, fails as a retryable transport
// error. Non-positive durations leave calls unbounded.
func WithTimeout(d time.Duration) Middleware {
	return func(next core.Caller) core.Caller {
		if d <= 0 {
			return next
		}
		return callFunc(next, func(ctx context.Context, payload core.Payload) (*core.Response, error) {
			callCtx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			resp, err := next.Call(callCtx, payload)
			if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
				return nil, &core.ProviderError{
					Provider: next.ID(),
					Message:  fmt.Sprintf("request timed out after %v", d),
					Err:      fmt.Errorf("%w: %v", core.ErrTransport, context.DeadlineExceeded),
				}
			}
			return resp, err
		})
	}
}
