package core

import (
	"encoding/json"
	"fmt"
)

// Payload is an opaque, provider-specific request body. It is treated as
// immutable once handed to a Caller.
type Payload map[string]any

// Clone returns a shallow copy of p.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Model returns the payload's "model" entry or "" if unset.
func (p Payload) Model() string {
	if m, ok := p["model"].(string); ok {
		return m
	}
	return ""
}

// Response is a decoded provider response.
type Response struct {
	Provider  string
	Status    int
	RequestID string
	Model     string

	// Body is the JSON object returned by the provider.
	Body map[string]any
	// Raw holds the undecoded response body.
	Raw json.RawMessage

	Usage TokenUsage
	// Record is the usage record emitted for this response, nil if the
	// provider reported no consumption.
	Record *UsageRecord
	// Warnings collects recoverable failures, such as a usage record that
	// could not be persisted.
	Warnings []error
}

// Decode unmarshals the raw response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Raw, v); err != nil {
		return &ProviderError{
			Provider:  r.Provider,
			Status:    r.Status,
			RequestID: r.RequestID,
			Code:      "decode_error",
			Message:   fmt.Sprintf("decode %T: %v", v, err),
			Err:       ErrDecode,
		}
	}
	return nil
}

// ModelID is a string identifier for a model.
type ModelID string

// Role represents a message participant role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// IsZero reports whether no consumption was recorded.
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0
}

// ChatRequest is a provider-neutral chat completion request.
type ChatRequest struct {
	Model       ModelID   `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float32  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	// JSONOutput asks the provider to return a JSON object.
	JSONOutput bool `json:"-"`
}

// Validate checks that the request can be sent.
func (r *ChatRequest) Validate() error {
	if r.Model == "" {
		return ErrModelRequired
	}
	if len(r.Messages) == 0 {
		return ErrNoMessages
	}
	for _, m := range r.Messages {
		if m.Content == "" {
			return ErrNoMessages
		}
	}
	return nil
}

// ChatResponse is a provider-neutral chat completion response.
type ChatResponse struct {
	ID     string     `json:"id"`
	Model  ModelID    `json:"model"`
	Output string     `json:"output"`
	Usage  TokenUsage `json:"usage"`
}
