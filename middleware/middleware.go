// Package middleware wraps core.Caller with cross-cutting behavior such as
// per-request timeouts, retries and circuit breaking.
//
// Middleware composes in the order given, the first being outermost:
//
//	caller = middleware.Wrap(chat.Completions(),
//		middleware.WithCircuitBreaker(middleware.DefaultCircuitBreakerConfig()),
//		middleware.WithTimeout(2*time.Minute),
//	)
package middleware

import (
	"context"

	"github.com/petal-labs/scribe/core"
)

// Middleware wraps a Caller to add behavior before and/or after each call.
type Middleware func(next core.Caller) core.Caller

// Chain combines multiple middleware into a single middleware.
// Middleware are executed in the order provided (first middleware is outermost).
func Chain(middlewares ...Middleware) Middleware {
	return func(next core.Caller) core.Caller {
		// Apply in reverse order so first middleware is outermost
		for i := len(middlewares) - 1; i >= 0; i-- {
			if middlewares[i] != nil {
				next = middlewares[i](next)
			}
		}
		return next
	}
}

// Wrap applies middlewares to c. The result keeps c's ID.
func Wrap(c core.Caller, middlewares ...Middleware) core.Caller {
	if len(middlewares) == 0 {
		return c
	}
	return Chain(middlewares...)(c)
}

// callFunc builds a Caller sharing next's ID.
func callFunc(next core.Caller, fn func(ctx context.Context, payload core.Payload) (*core.Response, error)) core.Caller {
	return core.CallerFunc(next.ID(), fn)
}
