package core

import "time"

// TelemetryHook receives notifications about provider request lifecycle
// events. Implementations can use this for logging, metrics or tracing and
// must be safe for concurrent use, since a request pool emits events from
// many goroutines at once.
//
// # Security Considerations
//
// Events carry operational metadata only: provider, operation, model,
// timing, status and usage counts. API keys, prompts, search queries and
// response bodies are never included, so events can be logged or exported
// without further scrubbing. Keep it that way when adding fields.
type TelemetryHook interface {
	// OnRequestStart is called before a request is written to the wire.
	OnRequestStart(e RequestStartEvent)

	// OnRequestEnd is called once the request has completed or failed.
	OnRequestEnd(e RequestEndEvent)
}

// RequestStartEvent contains metadata about a starting request.
type RequestStartEvent struct {
	Provider  string    // Provider identifier (e.g., "openai", "pexels")
	Operation string    // Endpoint name (e.g., "chat.completions", "search")
	Model     ModelID   // Model being called, empty for search providers
	Start     time.Time // When the request started
}

// RequestEndEvent contains metadata about a completed request.
//
// Err holds the classified error. Provider error messages are passed through
// as the provider sent them and should not contain request content, but
// hooks exporting to third parties may prefer KindOf(Err).
type RequestEndEvent struct {
	Provider  string
	Operation string
	Model     ModelID
	Start     time.Time
	End       time.Time
	Status    int        // HTTP status, 0 if no response was received
	Usage     TokenUsage // Token consumption
	Err       error      // Error if request failed, nil on success
}

// Duration returns the elapsed time for the request.
func (e RequestEndEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// NoopTelemetryHook is a no-op implementation of TelemetryHook.
type NoopTelemetryHook struct{}

// OnRequestStart does nothing.
func (NoopTelemetryHook) OnRequestStart(RequestStartEvent) {}

// OnRequestEnd does nothing.
func (NoopTelemetryHook) OnRequestEnd(RequestEndEvent) {}

// MultiTelemetryHook fans events out to every hook in order.
type MultiTelemetryHook []TelemetryHook

// OnRequestStart forwards e to each hook.
func (m MultiTelemetryHook) OnRequestStart(e RequestStartEvent) {
	for _, h := range m {
		h.OnRequestStart(e)
	}
}

// OnRequestEnd forwards e to each hook.
func (m MultiTelemetryHook) OnRequestEnd(e RequestEndEvent) {
	for _, h := range m {
		h.OnRequestEnd(e)
	}
}

var (
	_ TelemetryHook = NoopTelemetryHook{}
	_ TelemetryHook = MultiTelemetryHook(nil)
)
