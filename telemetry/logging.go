package telemetry

import (
	"log/slog"

	"github.com/petal-labs/scribe/core"
)

// LoggingHook logs provider request lifecycle events.
type LoggingHook struct {
	logger *slog.Logger
}

// Logging returns a hook that logs request start at Debug and completion at
// Info, or at Warn when the request failed. A nil logger uses slog.Default.
func Logging(logger *slog.Logger) *LoggingHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingHook{logger: logger}
}

// OnRequestStart logs the start of a request.
func (h *LoggingHook) OnRequestStart(e core.RequestStartEvent) {
	h.logger.Debug("provider request started",
		slog.String("provider", e.Provider),
		slog.String("operation", e.Operation),
		slog.String("model", string(e.Model)),
	)
}

// OnRequestEnd logs the outcome of a request.
func (h *LoggingHook) OnRequestEnd(e core.RequestEndEvent) {
	attrs := []any{
		slog.String("provider", e.Provider),
		slog.String("operation", e.Operation),
		slog.String("model", string(e.Model)),
		slog.Int("status", e.Status),
		slog.Duration("elapsed", e.Duration()),
	}
	if e.Err != nil {
		attrs = append(attrs,
			slog.String("kind", string(core.KindOf(e.Err))),
			slog.String("error", e.Err.Error()),
		)
		h.logger.Warn("provider request failed", attrs...)
		return
	}
	if !e.Usage.IsZero() {
		attrs = append(attrs,
			slog.Int("prompt_tokens", e.Usage.PromptTokens),
			slog.Int("completion_tokens", e.Usage.CompletionTokens),
		)
	}
	h.logger.Info("provider request completed", attrs...)
}

var _ core.TelemetryHook = (*LoggingHook)(nil)
