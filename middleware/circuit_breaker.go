package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/petal-labs/scribe/core"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // Normal operation.
	CircuitOpen                         // Failing, reject calls.
	CircuitHalfOpen                     // Testing if recovered.
)

// String returns the string representation of a CircuitState.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	FailureThreshold int           // Consecutive transport failures before opening.
	SuccessThreshold int           // Successes in half-open to close.
	OpenDuration     time.Duration // How long to stay open.
}

// DefaultCircuitBreakerConfig returns sensible circuit breaker defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenDuration:     30 * time.Second,
	}
}

// ErrCircuitOpen is returned when the circuit breaker is open. It carries
// no provider sentinel, so it classifies as a transport failure.
var ErrCircuitOpen = errors.New("circuit breaker open: too many failures")

// CircuitBreaker stops calling a provider after repeated transport
// failures. Only transport-kind errors count: a provider that answers with
// an authentication or validation error is up.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       CircuitState
	failures    int
	successes   int
	lastFailure time.Time
}

// NewCircuitBreaker returns a closed breaker. Zero config fields take the
// defaults.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCircuitBreakerConfig()
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = def.FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = def.SuccessThreshold
	}
	if config.OpenDuration <= 0 {
		config.OpenDuration = def.OpenDuration
	}
	return &CircuitBreaker{config: config}
}

// State returns the current state.
func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.state
}

// advance moves an open circuit to half-open once OpenDuration has passed.
// b.mu must be held.
func (b *CircuitBreaker) advance() {
	if b.state == CircuitOpen && time.Since(b.lastFailure) > b.config.OpenDuration {
		b.state = CircuitHalfOpen
		b.successes = 0
	}
}

// Middleware returns middleware sharing this breaker's state. Wrapping
// several callers with it trips them together.
func (b *CircuitBreaker) Middleware() Middleware {
	return func(next core.Caller) core.Caller {
		return callFunc(next, func(ctx context.Context, payload core.Payload) (*core.Response, error) {
			b.mu.Lock()
			b.advance()
			if b.state == CircuitOpen {
				b.mu.Unlock()
				return nil, fmt.Errorf("%s: %w", next.ID(), ErrCircuitOpen)
			}
			b.mu.Unlock()

			resp, err := next.Call(ctx, payload)

			b.mu.Lock()
			defer b.mu.Unlock()

			if err != nil {
				if core.KindOf(err) != core.KindTransport || ctx.Err() != nil {
					return nil, err
				}
				b.failures++
				b.lastFailure = time.Now()

				if b.state == CircuitHalfOpen {
					// Failure in half-open returns to open.
					b.state = CircuitOpen
				} else if b.failures >= b.config.FailureThreshold {
					b.state = CircuitOpen
				}
				return nil, err
			}

			if b.state == CircuitHalfOpen {
				b.successes++
				if b.successes >= b.config.SuccessThreshold {
					b.state = CircuitClosed
					b.failures = 0
				}
			} else {
				b.failures = 0
			}
			return resp, nil
		})
	}
}

// WithCircuitBreaker creates middleware with its own breaker.
func WithCircuitBreaker(config CircuitBreakerConfig) Middleware {
	return NewCircuitBreaker(config).Middleware()
}
