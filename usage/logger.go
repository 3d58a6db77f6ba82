package usage

import (
	"context"
	"log/slog"

	"github.com/petal-labs/scribe/core"
)

// Logger writes each record as a structured log entry.
type Logger struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogger returns a Logger recorder. A nil logger uses slog.Default.
func NewLogger(logger *slog.Logger, level slog.Level) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger, level: level}
}

// Append logs rec.
func (l *Logger) Append(ctx context.Context, rec core.UsageRecord) error {
	l.logger.LogAttrs(ctx, l.level, "usage recorded",
		slog.String("provider", rec.Provider),
		slog.String("model", rec.Model),
		slog.Int("prompt_units", rec.PromptUnits),
		slog.Int("completion_units", rec.CompletionUnits),
		slog.Time("recorded_at", rec.RecordedAt),
	)
	return nil
}

var _ core.UsageRecorder = (*Logger)(nil)
