package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/petal-labs/scribe/assembler"
	"github.com/petal-labs/scribe/core"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitProvider   = 2
	ExitNetwork    = 3
)

// exitError wraps an error with an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCodeFor maps an error to a process exit code. Missing credentials
// and requests rejected before reaching a provider are validation
// failures; anything a provider answered is a provider failure; network
// and decode problems are transport failures.
func exitCodeFor(err error) int {
	kind := core.KindOf(err)
	switch {
	case kind == core.KindNone:
		return ExitSuccess
	case kind == core.KindMissingCredential:
		return ExitValidation
	case kind == core.KindTransport:
		return ExitNetwork
	}

	var pe *core.ProviderError
	if errors.As(err, &pe) {
		return ExitProvider
	}
	return ExitValidation
}

// fail reports err in user terms and attaches its exit code.
func (a *App) fail(err error) error {
	if a.jsonOutput {
		writeJSON(a.stderr, errorJSON(err))
	} else {
		fmt.Fprintf(a.stderr, "Error: %s\n", assembler.Describe(err))
		if a.verbose && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(a.stderr, "  cause: %v\n", err)
		}
	}
	return exitWithCode(exitCodeFor(err), err)
}

// invalid reports a usage or configuration error.
func (a *App) invalid(err error) error {
	if a.jsonOutput {
		writeJSON(a.stderr, map[string]any{
			"error": map[string]any{"type": "validation_error", "message": err.Error()},
		})
	} else {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
	}
	return exitWithCode(ExitValidation, err)
}

func errorJSON(err error) map[string]any {
	body := map[string]any{
		"type":    string(core.KindOf(err)),
		"message": assembler.Describe(err),
	}
	var pe *core.ProviderError
	if errors.As(err, &pe) {
		body["provider"] = pe.Provider
		body["status"] = pe.Status
		if pe.RequestID != "" {
			body["request_id"] = pe.RequestID
		}
		if len(pe.Fields) > 0 {
			body["fields"] = pe.Fields
		}
	}
	return map[string]any{"error": body}
}
