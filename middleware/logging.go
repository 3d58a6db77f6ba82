package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/petal-labs/scribe/core"
)

// WithLogging logs the start and outcome of each call at Debug, including
// failures raised by middleware it wraps. Payloads are never logged.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next core.Caller) core.Caller {
		return callFunc(next, func(ctx context.Context, payload core.Payload) (*core.Response, error) {
			log := logger.With("provider", next.ID())
			log.DebugContext(ctx, "provider call start")
			start := time.Now()

			resp, err := next.Call(ctx, payload)

			duration := time.Since(start)
			if err != nil {
				log.DebugContext(ctx, "provider call failed",
					"duration", duration, "kind", string(core.KindOf(err)), "error", err)
				return resp, err
			}
			status := 0
			if resp != nil {
				status = resp.Status
			}
			log.DebugContext(ctx, "provider call done", "duration", duration, "status", status)
			return resp, nil
		})
	}
}
