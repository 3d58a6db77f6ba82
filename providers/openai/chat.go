package openai

import (
	"context"

	"github.com/petal-labs/scribe/core"
)

// chatResponse is the subset of a chat completion body Scribe reads.
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// chatPayload converts a core request to an OpenAI request body.
func (p *OpenAI) chatPayload(req *core.ChatRequest) core.Payload {
	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	messages := make([]map[string]any, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = map[string]any{"role": string(m.Role), "content": m.Content}
	}

	payload := core.Payload{
		"model":    string(model),
		"messages": messages,
	}
	if req.Temperature != nil {
		payload["temperature"] = *req.Temperature
	}
	if req.MaxTokens != nil {
		payload["max_tokens"] = *req.MaxTokens
	}
	if req.JSONOutput {
		payload["response_format"] = map[string]any{"type": "json_object"}
	}
	return payload
}

// ChatPayload builds the raw completions payload for req, for batching
// through a request pool with Completions().
func (p *OpenAI) ChatPayload(req *core.ChatRequest) core.Payload {
	return p.chatPayload(req)
}

// Chat sends a chat completion request.
func (p *OpenAI) Chat(ctx context.Context, req *core.ChatRequest) (*core.ChatResponse, error) {
	payload := p.chatPayload(req)
	check := *req
	check.Model = core.ModelID(payload.Model())
	if err := check.Validate(); err != nil {
		return nil, err
	}

	resp, err := p.completions.Call(ctx, payload)
	if err != nil {
		return nil, err
	}
	return ChatResult(resp)
}

// DecodeChat maps a Completions response to a ChatResponse.
func (p *OpenAI) DecodeChat(resp *core.Response) (*core.ChatResponse, error) {
	return ChatResult(resp)
}

// ChatResult maps a raw completions response to a ChatResponse. The output
// is the content of the first choice.
func ChatResult(resp *core.Response) (*core.ChatResponse, error) {
	var cr chatResponse
	if err := resp.Decode(&cr); err != nil {
		return nil, err
	}

	out := &core.ChatResponse{
		ID:    cr.ID,
		Model: core.ModelID(resp.Model),
		Usage: resp.Usage,
	}
	if len(cr.Choices) > 0 {
		out.Output = cr.Choices[0].Message.Content
	}
	return out, nil
}
