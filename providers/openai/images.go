package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/petal-labs/scribe/core"
)

// imageResponse is the image generations response body.
type imageResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		B64JSON       string `json:"b64_json,omitempty"`
		URL           string `json:"url,omitempty"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
}

// ImagePayload converts a core request to an OpenAI request body.
func (p *OpenAI) ImagePayload(req *core.ImageGenerateRequest) core.Payload {
	model := req.Model
	if model == "" {
		model = p.config.ImageModel
	}
	n := req.N
	if n == 0 {
		n = 1
	}

	payload := core.Payload{
		"model":  string(model),
		"prompt": req.Prompt,
		"n":      n,
	}
	// gpt-image models always return base64 and reject response_format.
	if strings.HasPrefix(string(model), "dall-e") {
		payload["response_format"] = "b64_json"
	}
	if req.Size != "" {
		payload["size"] = string(req.Size)
	}
	if req.Quality != "" {
		payload["quality"] = string(req.Quality)
	}
	if req.Style != "" {
		payload["style"] = string(req.Style)
	}
	return payload
}

// GenerateImage generates images from a text prompt.
func (p *OpenAI) GenerateImage(ctx context.Context, req *core.ImageGenerateRequest) (*core.ImageResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, core.ErrPromptRequired
	}
	if req.Size != "" && !req.Size.IsValid() {
		return nil, fmt.Errorf("%w: unsupported image size %q", core.ErrBadRequest, req.Size)
	}
	if req.Quality != "" && !req.Quality.IsValid() {
		return nil, fmt.Errorf("%w: unsupported image quality %q", core.ErrBadRequest, req.Quality)
	}

	resp, err := p.images.Call(ctx, p.ImagePayload(req))
	if err != nil {
		return nil, err
	}
	return ImageResult(resp)
}

// ImageResult maps a raw image generations response to an ImageResponse.
func ImageResult(resp *core.Response) (*core.ImageResponse, error) {
	var ir imageResponse
	if err := resp.Decode(&ir); err != nil {
		return nil, err
	}

	out := &core.ImageResponse{
		Created: ir.Created,
		Data:    make([]core.ImageData, len(ir.Data)),
		Usage:   resp.Usage,
	}
	for i, d := range ir.Data {
		out.Data[i] = core.ImageData{
			B64JSON:       d.B64JSON,
			URL:           d.URL,
			RevisedPrompt: d.RevisedPrompt,
		}
	}
	return out, nil
}
