package core

import "context"

// Caller performs one authenticated request against a single provider
// endpoint. Callers MUST be safe for concurrent use: the request pool shares
// one Caller across all in-flight requests of a batch.
type Caller interface {
	// ID returns the provider identifier (e.g., "openai", "pexels").
	ID() string

	// Call sends payload and returns the decoded response or a classified
	// error. Usage is recorded before Call returns.
	Call(ctx context.Context, payload Payload) (*Response, error)
}

// ChatProvider is implemented by providers offering chat completions.
type ChatProvider interface {
	ID() string
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	// Completions returns the raw chat completion endpoint.
	Completions() Caller
	// ChatPayload builds the Completions payload for req.
	ChatPayload(req *ChatRequest) Payload
	// DecodeChat maps a Completions response to a ChatResponse.
	DecodeChat(resp *Response) (*ChatResponse, error)
}

// ImageGenerator is implemented by providers that generate images.
type ImageGenerator interface {
	ID() string
	GenerateImage(ctx context.Context, req *ImageGenerateRequest) (*ImageResponse, error)
}

// ImageSearcher is implemented by stock photo search providers.
type ImageSearcher interface {
	ID() string
	SearchImages(ctx context.Context, req *ImageSearchRequest) (*ImageSearchResponse, error)
}

// VideoSearcher is implemented by video search providers.
type VideoSearcher interface {
	ID() string
	SearchVideos(ctx context.Context, req *VideoSearchRequest) (*VideoSearchResponse, error)
}

// CallerFunc adapts a function to Caller under the given provider id.
func CallerFunc(id string, fn func(ctx context.Context, payload Payload) (*Response, error)) Caller {
	return callerFunc{id: id, fn: fn}
}

type callerFunc struct {
	id string
	fn func(ctx context.Context, payload Payload) (*Response, error)
}

func (c callerFunc) ID() string { return c.id }

func (c callerFunc) Call(ctx context.Context, payload Payload) (*Response, error) {
	return c.fn(ctx, payload)
}
