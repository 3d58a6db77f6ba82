package core

import (
	"context"
	"fmt"
	"time"
)

// UsageRecord is an append-only accounting entry for one successful provider
// call that reported nonzero consumption.
type UsageRecord struct {
	Provider        string    `json:"provider"`
	Model           string    `json:"model"`
	PromptUnits     int       `json:"prompt_units"`
	CompletionUnits int       `json:"completion_units"`
	RecordedAt      time.Time `json:"recorded_at"`
}

// NewUsageRecord builds a record from usage, or returns nil when usage is zero.
func NewUsageRecord(provider, model string, usage TokenUsage) *UsageRecord {
	if usage.IsZero() {
		return nil
	}
	return &UsageRecord{
		Provider:        provider,
		Model:           model,
		PromptUnits:     usage.PromptTokens,
		CompletionUnits: usage.CompletionTokens,
		RecordedAt:      time.Now().UTC(),
	}
}

// UsageRecorder is the sink for usage records. Implementations must be safe
// for concurrent use; records are never read back by the caller.
type UsageRecorder interface {
	Append(ctx context.Context, rec UsageRecord) error
}

// UsageRecorderFunc adapts a function to UsageRecorder.
type UsageRecorderFunc func(ctx context.Context, rec UsageRecord) error

// Append calls f.
func (f UsageRecorderFunc) Append(ctx context.Context, rec UsageRecord) error { return f(ctx, rec) }

// NoopUsageRecorder discards every record.
type NoopUsageRecorder struct{}

// Append does nothing.
func (NoopUsageRecorder) Append(context.Context, UsageRecord) error { return nil }

// UsageWarning reports a usage record the recorder failed to persist. It is
// attached to Response.Warnings rather than failing the call.
type UsageWarning struct {
	Record UsageRecord
	Err    error
}

func (w *UsageWarning) Error() string {
	return fmt.Sprintf("usage for %s/%s not recorded: %v", w.Record.Provider, w.Record.Model, w.Err)
}

// Unwrap returns the recorder error.
func (w *UsageWarning) Unwrap() error { return w.Err }

var _ UsageRecorder = NoopUsageRecorder{}
