package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func transportErr(status int) error {
	return &ProviderError{Provider: "test", Status: status, Message: "boom", Err: ErrTransport}
}

func TestDefaultRetryPolicy(t *testing.T) {
	policy := DefaultRetryPolicy()
	if policy == nil {
		t.Fatal("DefaultRetryPolicy() returned nil")
	}
}

func TestRetryPolicyRetryableErrors(t *testing.T) {
	policy := DefaultRetryPolicy()

	tests := []struct {
		name string
		err  error
	}{
		{"ErrTransport", ErrTransport},
		{"network failure", &ProviderError{Provider: "test", Err: ErrTransport}},
		{"status 429", transportErr(429)},
		{"status 500", transportErr(500)},
		{"status 503", transportErr(503)},
		{"wrapped", fmt.Errorf("section 2: %w", transportErr(502))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := policy.NextDelay(0, tt.err); !ok {
				t.Errorf("NextDelay(0, %v) should retry", tt.err)
			}
		})
	}
}

func TestRetryPolicyNonRetryableErrors(t *testing.T) {
	policy := DefaultRetryPolicy()

	tests := []struct {
		name string
		err  error
	}{
		{"nil error", nil},
		{"ErrUnauthorized", &ProviderError{Provider: "test", Status: 401, Err: ErrUnauthorized}},
		{"ErrPermissionDenied", &ProviderError{Provider: "test", Status: 403, Err: ErrPermissionDenied}},
		{"ErrBadRequest", &ProviderError{Provider: "test", Status: 400, Err: ErrBadRequest}},
		{"ErrValidation", &ProviderError{Provider: "test", Status: 400, Err: ErrValidation}},
		{"ErrNotFound", &ProviderError{Provider: "test", Status: 404, Err: ErrNotFound}},
		{"ErrConflict", &ProviderError{Provider: "test", Status: 409, Err: ErrConflict}},
		{"ErrDecode", &ProviderError{Provider: "test", Status: 200, Err: ErrDecode}},
		{"missing credential", &MissingCredentialError{Provider: "test"}},
		{"ErrModelRequired", ErrModelRequired},
		{"context.Canceled", context.Canceled},
		{"context.DeadlineExceeded", context.DeadlineExceeded},
		{"unclassified error", errors.New("random")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := policy.NextDelay(0, tt.err); ok {
				t.Errorf("NextDelay(0, %v) should not retry", tt.err)
			}
		})
	}
}

func TestRetryPolicyMaxRetries(t *testing.T) {
	policy := NewRetryPolicy(RetryConfig{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Jitter:     0,
	})

	for attempt := 0; attempt < 3; attempt++ {
		if _, ok := policy.NextDelay(attempt, ErrTransport); !ok {
			t.Errorf("NextDelay(%d, err) should allow retry", attempt)
		}
	}
	if _, ok := policy.NextDelay(3, ErrTransport); ok {
		t.Error("NextDelay(3, err) should not allow retry (exceeds max)")
	}
}

func TestRetryPolicyExponentialBackoff(t *testing.T) {
	policy := NewRetryPolicy(RetryConfig{
		MaxRetries: 5,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Jitter:     0,
	})

	for attempt := 0; attempt < 4; attempt++ {
		delay, ok := policy.NextDelay(attempt, ErrTransport)
		if !ok {
			t.Fatalf("NextDelay(%d, err) should allow retry", attempt)
		}
		want := 100 * time.Millisecond * time.Duration(1<<attempt)
		if delay != want {
			t.Errorf("attempt %d: delay = %v, want %v", attempt, delay, want)
		}
	}
}

func TestRetryPolicyMaxDelayCap(t *testing.T) {
	policy := NewRetryPolicy(RetryConfig{
		MaxRetries: 10,
		BaseDelay:  time.Second,
		MaxDelay:   5 * time.Second,
		Jitter:     0,
	})

	delay, ok := policy.NextDelay(5, ErrTransport)
	if !ok {
		t.Fatal("should allow retry")
	}
	if delay != 5*time.Second {
		t.Errorf("delay = %v, want 5s (max cap)", delay)
	}
}

func TestRetryPolicyJitter(t *testing.T) {
	policy := NewRetryPolicy(RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Jitter:     0.5,
	})

	delays := make(map[time.Duration]bool)
	for i := 0; i < 100; i++ {
		delay, ok := policy.NextDelay(0, ErrTransport)
		if !ok {
			t.Fatal("should allow retry")
		}
		delays[delay] = true
		if delay < 500*time.Millisecond || delay > 1500*time.Millisecond {
			t.Errorf("delay %v outside expected jitter range [0.5s, 1.5s]", delay)
		}
	}
	if len(delays) < 2 {
		t.Error("jitter should produce varying delays")
	}
}

func TestRetryPolicyConfigDefaults(t *testing.T) {
	policy := NewRetryPolicy(RetryConfig{Jitter: -1})

	if _, ok := policy.NextDelay(0, ErrTransport); !ok {
		t.Error("policy with default config should allow retry")
	}
	if _, ok := policy.NextDelay(3, ErrTransport); ok {
		t.Error("policy should respect default max retries of 3")
	}
}

func TestRetrySucceedsAfterTransportFailures(t *testing.T) {
	policy := NewRetryPolicy(RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond})

	calls := 0
	got, err := Retry(context.Background(), policy, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", transportErr(503)
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Errorf("Retry() = %q after %d calls, want ok after 3", got, calls)
	}
}

func TestRetryStopsOnAuthentication(t *testing.T) {
	policy := NewRetryPolicy(RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond})

	calls := 0
	_, err := Retry(context.Background(), policy, func(context.Context) (int, error) {
		calls++
		return 0, &ProviderError{Provider: "test", Status: 401, Err: ErrUnauthorized}
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Retry() error = %v, want ErrUnauthorized", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryHonorsContext(t *testing.T) {
	policy := NewRetryPolicy(RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Retry(ctx, policy, func(context.Context) (int, error) {
		return 0, ErrTransport
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() error = %v, want context.Canceled", err)
	}
}
