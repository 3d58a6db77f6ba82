// Package openai implements chat completions and image generation against
// the OpenAI API.
package openai

import (
	"net/http"
	"os"

	"github.com/petal-labs/scribe/core"
	"github.com/petal-labs/scribe/providers/internal/normalize"
	"github.com/petal-labs/scribe/providers/internal/transport"
)

// ProviderID identifies this provider in settings, usage records and errors.
const ProviderID = "openai"

// DefaultAPIKeyEnvVar is the environment variable name for the OpenAI API key.
const DefaultAPIKeyEnvVar = "OPENAI_API_KEY"

const (
	chatCompletionsPath  = "/chat/completions"
	imageGenerationsPath = "/images/generations"
)

// OpenAI is a provider client for the OpenAI API.
// OpenAI is safe for concurrent use.
type OpenAI struct {
	config      Config
	completions core.Caller
	images      core.Caller
}

// NewFromEnv creates a client using the OPENAI_API_KEY environment variable.
// A missing variable yields a *core.MissingCredentialError.
func NewFromEnv(opts ...Option) (*OpenAI, error) {
	key := os.Getenv(DefaultAPIKeyEnvVar)
	if key == "" {
		return nil, &core.MissingCredentialError{Provider: ProviderID, Key: DefaultAPIKeyEnvVar}
	}
	return New(key, opts...)
}

// New creates a client. An empty apiKey is resolved from the settings
// lookup under "providers.openai.api_key"; if that is empty too, New fails
// with a *core.MissingCredentialError before any network I/O.
func New(apiKey string, opts ...Option) (*OpenAI, error) {
	cfg := Config{BaseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(&cfg)
	}

	key, err := core.ResolveCredential(ProviderID, apiKey, cfg.Settings)
	if err != nil {
		return nil, err
	}
	applySettings(&cfg)

	headers := cfg.Headers.Clone()
	if cfg.OrgID != "" {
		if headers == nil {
			headers = make(http.Header)
		}
		headers.Set("OpenAI-Organization", cfg.OrgID)
	}

	client := transport.New(transport.Config{
		Provider:        ProviderID,
		BaseURL:         cfg.BaseURL,
		Auth:            transport.Auth{Style: transport.AuthBearer, Key: key},
		HTTPClient:      cfg.HTTPClient,
		Headers:         headers,
		Timeout:         cfg.Timeout,
		Limiter:         transport.NewLimiter(cfg.RateLimit, cfg.Burst),
		Telemetry:       cfg.Telemetry,
		Logger:          cfg.Logger,
		Recorder:        cfg.Recorder,
		Classify:        classify,
		RequestIDHeader: "x-request-id",
	})

	return &OpenAI{
		config: cfg,
		completions: client.Caller(transport.Endpoint{
			Operation: "chat.completions",
			Method:    http.MethodPost,
			Path:      chatCompletionsPath,
			Usage:     usageFromBody,
		}),
		images: client.Caller(transport.Endpoint{
			Operation: "images.generations",
			Method:    http.MethodPost,
			Path:      imageGenerationsPath,
			Usage:     usageFromBody,
		}),
	}, nil
}

// applySettings fills options left at their defaults from the settings lookup.
func applySettings(cfg *Config) {
	s := cfg.Settings
	if v := core.Lookup(s, ProviderID, "base_url"); v != "" && cfg.BaseURL == DefaultBaseURL {
		cfg.BaseURL = v
	}
	if cfg.Model == "" {
		cfg.Model = core.ModelID(core.Lookup(s, ProviderID, "model"))
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = core.ModelID(core.Lookup(s, ProviderID, "image_model"))
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = transport.ParseRate(core.Lookup(s, ProviderID, "rate_limit"))
	}
}

// ID returns the provider identifier.
func (p *OpenAI) ID() string {
	return ProviderID
}

// Completions returns the raw chat completions endpoint. Payloads are sent
// as the JSON body unchanged.
func (p *OpenAI) Completions() core.Caller {
	return p.completions
}

// Images returns the raw image generations endpoint.
func (p *OpenAI) Images() core.Caller {
	return p.images
}

// usageFromBody reads both the chat ("prompt_tokens") and the image
// ("input_tokens") usage shapes.
func usageFromBody(body map[string]any) core.TokenUsage {
	u := core.TokenUsage{
		PromptTokens:     transport.Int(body, "usage", "prompt_tokens"),
		CompletionTokens: transport.Int(body, "usage", "completion_tokens"),
		TotalTokens:      transport.Int(body, "usage", "total_tokens"),
	}
	if u.IsZero() {
		u.PromptTokens = transport.Int(body, "usage", "input_tokens")
		u.CompletionTokens = transport.Int(body, "usage", "output_tokens")
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}

func classify(status int, body []byte, requestID string) error {
	return normalize.OpenAIStyleProviderError(ProviderID, status, body, requestID)
}

var (
	_ core.ChatProvider   = (*OpenAI)(nil)
	_ core.ImageGenerator = (*OpenAI)(nil)
)
