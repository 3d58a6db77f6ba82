package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ProviderError represents an error returned by a provider with full context.
type ProviderError struct {
	Provider  string
	Status    int
	RequestID string
	Code      string
	Message   string
	// Fields maps request field names to messages for validation failures.
	Fields map[string]string
	Err    error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (status=%d", e.Provider, e.Message, e.Status)
	if e.Code != "" {
		fmt.Fprintf(&b, ", code=%s", e.Code)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&b, ", request_id=%s", e.RequestID)
	}
	b.WriteString(")")
	if len(e.Fields) > 0 {
		b.WriteString(": ")
		b.WriteString(formatFields(e.Fields))
	}
	return b.String()
}

// Unwrap returns the underlying error for error chaining.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

func formatFields(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+fields[name])
	}
	return strings.Join(parts, "; ")
}

// Sentinel errors for classification.
var (
	ErrMissingCredential = errors.New("missing credential")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrBadRequest        = errors.New("bad request")
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrUnprocessable     = errors.New("unprocessable entity")
	ErrTransport         = errors.New("transport error")
	ErrDecode            = errors.New("decode error")
	ErrUnknownVariant    = errors.New("unknown content block variant")
)

// MissingCredentialError is returned by provider constructors when no API key
// was passed explicitly and none could be found through the Settings lookup.
type MissingCredentialError struct {
	Provider string
	// Key is the settings key that was consulted.
	Key string
}

func (e *MissingCredentialError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: missing credential", e.Provider)
	}
	return fmt.Sprintf("%s: missing credential: pass an API key or set %q", e.Provider, e.Key)
}

// Is reports whether target is ErrMissingCredential.
func (e *MissingCredentialError) Is(target error) bool {
	return target == ErrMissingCredential
}

// ErrorKind names a failure class independent of the provider that raised it.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindMissingCredential ErrorKind = "missing_credential"
	KindAuthentication    ErrorKind = "authentication"
	KindPermissionDenied  ErrorKind = "permission_denied"
	KindBadRequest        ErrorKind = "bad_request"
	KindValidation        ErrorKind = "validation"
	KindNotFound          ErrorKind = "not_found"
	KindConflict          ErrorKind = "conflict"
	KindUnprocessable     ErrorKind = "unprocessable_entity"
	KindTransport         ErrorKind = "transport"
	KindUnknownVariant    ErrorKind = "unknown_variant"
)

// KindOf classifies err. Errors that carry none of the provider sentinels,
// including context cancellation and decode failures, are reported as
// KindTransport so that nothing falls through unclassified.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMissingCredential):
		return KindMissingCredential
	case errors.Is(err, ErrUnauthorized):
		return KindAuthentication
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrBadRequest):
		return KindBadRequest
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrUnprocessable):
		return KindUnprocessable
	case errors.Is(err, ErrUnknownVariant):
		return KindUnknownVariant
	default:
		return KindTransport
	}
}

// FieldErrors returns the field→message map carried by a validation error,
// or nil if err is not one.
func FieldErrors(err error) map[string]string {
	var pe *ProviderError
	if errors.As(err, &pe) && errors.Is(pe.Err, ErrValidation) {
		return pe.Fields
	}
	return nil
}

// Request validation errors with actionable guidance.
var (
	ErrModelRequired = fmt.Errorf("%w: model required: set a model on the request or configure providers.<id>.model", ErrBadRequest)
	ErrNoMessages    = fmt.Errorf("%w: no messages: add at least one non-empty message", ErrBadRequest)
)
