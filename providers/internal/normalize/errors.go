// Package normalize maps provider HTTP failures onto the core error taxonomy.
package normalize

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/petal-labs/scribe/core"
)

// Classifier turns a non-2xx response into a classified error.
type Classifier func(status int, body []byte, requestID string) error

// SentinelForStatus maps an HTTP status code to a core sentinel error. The
// mapping is total: anything without a dedicated kind is a transport failure.
func SentinelForStatus(status int) error {
	return SentinelForStatusWithOverrides(status, nil)
}

// SentinelForStatusWithOverrides maps an HTTP status code to a core sentinel error,
// then applies any exact status overrides from the provided map.
func SentinelForStatusWithOverrides(status int, overrides map[int]error) error {
	if override, ok := overrides[status]; ok && override != nil {
		return override
	}

	switch status {
	case http.StatusBadRequest:
		return core.ErrBadRequest
	case http.StatusUnauthorized:
		return core.ErrUnauthorized
	case http.StatusForbidden:
		return core.ErrPermissionDenied
	case http.StatusNotFound:
		return core.ErrNotFound
	case http.StatusConflict:
		return core.ErrConflict
	case http.StatusUnprocessableEntity:
		return core.ErrUnprocessable
	default:
		return core.ErrTransport
	}
}

// ProviderError constructs a normalized ProviderError.
// If message is empty, HTTP status text is used.
// If sentinel is nil, default status-based mapping is applied.
func ProviderError(provider string, status int, requestID, code, message string, sentinel error) *core.ProviderError {
	if message == "" {
		message = http.StatusText(status)
	}
	if sentinel == nil {
		sentinel = SentinelForStatus(status)
	}
	return &core.ProviderError{
		Provider:  provider,
		Status:    status,
		RequestID: requestID,
		Code:      code,
		Message:   message,
		Err:       sentinel,
	}
}

// WithFields promotes a 400 or 422 error to a validation error carrying
// fields. Other statuses, and calls without fields, are returned unchanged.
func WithFields(pe *core.ProviderError, fields map[string]string) *core.ProviderError {
	if len(fields) == 0 {
		return pe
	}
	if pe.Status != http.StatusBadRequest && pe.Status != http.StatusUnprocessableEntity {
		return pe
	}
	pe.Fields = fields
	pe.Err = core.ErrValidation
	return pe
}

// openAIStyleErrorResponse represents providers that return:
// {"error":{"message":"...","type":"...","code":"...","param":"..."}}
type openAIStyleErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
		Param   string `json:"param"`
	} `json:"error"`
}

// OpenAIStyleProviderError normalizes providers that use OpenAI-style error
// envelopes. A named param on a 400 or 422 becomes a validation field.
func OpenAIStyleProviderError(provider string, status int, body []byte, requestID string) error {
	var errResp openAIStyleErrorResponse
	_ = json.Unmarshal(body, &errResp)

	message := errResp.Error.Message
	code := errResp.Error.Code
	if code == "" {
		code = errResp.Error.Type
	}

	pe := ProviderError(provider, status, requestID, code, message, nil)
	if errResp.Error.Param != "" {
		return WithFields(pe, map[string]string{errResp.Error.Param: pe.Message})
	}
	return pe
}

// googleStyleErrorResponse represents Google API errors:
// {"error":{"code":403,"message":"...","errors":[{"reason":"...","location":"..."}]}}
type googleStyleErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Errors  []struct {
			Message      string `json:"message"`
			Reason       string `json:"reason"`
			Location     string `json:"location"`
			LocationType string `json:"locationType"`
		} `json:"errors"`
	} `json:"error"`
}

// GoogleStyleProviderError normalizes Google API error envelopes. The first
// error reason becomes the code, reasons listed in reasons override the
// status mapping, and any entries with a location become validation fields.
func GoogleStyleProviderError(provider string, status int, body []byte, requestID string, reasons map[string]error) error {
	var errResp googleStyleErrorResponse
	_ = json.Unmarshal(body, &errResp)

	var (
		code     string
		sentinel error
		fields   map[string]string
	)
	for _, e := range errResp.Error.Errors {
		if code == "" {
			code = e.Reason
		}
		if s, ok := reasons[e.Reason]; ok && sentinel == nil {
			sentinel = s
		}
		if e.Location != "" {
			if fields == nil {
				fields = make(map[string]string)
			}
			msg := e.Message
			if msg == "" {
				msg = e.Reason
			}
			fields[e.Location] = msg
		}
	}
	if code == "" {
		code = errResp.Error.Status
	}

	pe := ProviderError(provider, status, requestID, code, errResp.Error.Message, sentinel)
	if sentinel != nil {
		return pe
	}
	return WithFields(pe, fields)
}

// TextProviderError normalizes providers that return a short plain-text or
// {"error":"..."} body. match may inspect the message and return a sentinel
// to override the status mapping, or nil to keep it.
func TextProviderError(provider string, status int, body []byte, requestID string, match func(status int, message string) error) error {
	message := textMessage(body)
	var sentinel error
	if match != nil {
		sentinel = match(status, message)
	}
	return ProviderError(provider, status, requestID, "", message, sentinel)
}

func textMessage(body []byte) string {
	var obj struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &obj) == nil {
		if obj.Error != "" {
			return obj.Error
		}
		if obj.Message != "" {
			return obj.Message
		}
	}
	msg := strings.TrimSpace(string(body))
	if !json.Valid(body) && len(msg) <= 512 {
		return msg
	}
	return ""
}

// NetworkError wraps transport failures as provider-specific transport errors.
func NetworkError(provider string, err error) error {
	return &core.ProviderError{
		Provider: provider,
		Message:  err.Error(),
		Err:      core.ErrTransport,
	}
}

// DecodeError wraps a 2xx body that could not be decoded.
func DecodeError(provider string, status int, requestID string, err error) error {
	return &core.ProviderError{
		Provider:  provider,
		Status:    status,
		RequestID: requestID,
		Code:      "decode_error",
		Message:   err.Error(),
		Err:       core.ErrDecode,
	}
}
