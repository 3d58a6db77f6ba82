package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestMessageJSONMarshal(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "system role",
			msg:  Message{Role: RoleSystem, Content: "You write blog posts."},
			want: `{"role":"system","content":"You write blog posts."}`,
		},
		{
			name: "user role",
			msg:  Message{Role: RoleUser, Content: "Hello"},
			want: `{"role":"user","content":"Hello"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.msg)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestChatRequestOmitsNilFields(t *testing.T) {
	req := ChatRequest{
		Model:      "gpt-4o",
		Messages:   []Message{{Role: RoleUser, Content: "Hi"}},
		JSONOutput: true,
	}

	got, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"model":"gpt-4o","messages":[{"role":"user","content":"Hi"}]}`
	if string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestChatRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  ChatRequest
		want error
	}{
		{"ok", ChatRequest{Model: "m", Messages: []Message{{Role: RoleUser, Content: "x"}}}, nil},
		{"no model", ChatRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}}, ErrModelRequired},
		{"no messages", ChatRequest{Model: "m"}, ErrNoMessages},
		{"empty message", ChatRequest{Model: "m", Messages: []Message{{Role: RoleUser}}}, ErrNoMessages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !errors.Is(err, tt.want) || (tt.want == nil && err != nil) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPayloadCloneAndModel(t *testing.T) {
	p := Payload{"model": "dall-e-3", "prompt": "a lighthouse"}
	c := p.Clone()
	c["prompt"] = "a harbour"

	if p["prompt"] != "a lighthouse" {
		t.Error("Clone() should not share the top-level map")
	}
	if c.Model() != "dall-e-3" {
		t.Errorf("Model() = %q, want dall-e-3", c.Model())
	}
	if got := (Payload{"model": 3}).Model(); got != "" {
		t.Errorf("Model() with non-string = %q, want empty", got)
	}
}

func TestResponseDecode(t *testing.T) {
	resp := &Response{
		Provider: "openai",
		Status:   200,
		Raw:      json.RawMessage(`{"id":"chatcmpl-1","object":"chat.completion"}`),
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := resp.Decode(&out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if out.ID != "chatcmpl-1" {
		t.Errorf("ID = %q, want chatcmpl-1", out.ID)
	}

	resp.Raw = json.RawMessage(`not json`)
	err := resp.Decode(&out)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("Decode() error = %v, want ErrDecode", err)
	}
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Provider != "openai" {
		t.Errorf("Decode() error should be a ProviderError for openai, got %v", err)
	}
}

func TestTokenUsageIsZero(t *testing.T) {
	if !(TokenUsage{}).IsZero() {
		t.Error("empty usage should be zero")
	}
	if (TokenUsage{CompletionTokens: 1}).IsZero() {
		t.Error("usage with completion tokens should not be zero")
	}
}
