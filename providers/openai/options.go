package openai

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/petal-labs/scribe/core"
)

// Config holds configuration for the OpenAI provider.
type Config struct {
	// BaseURL is the API base URL. Defaults to https://api.openai.com/v1
	BaseURL string

	// HTTPClient is the HTTP client to use. Defaults to the shared provider client.
	HTTPClient *http.Client

	// OrgID is the optional OpenAI organization ID.
	OrgID string

	// Headers contains optional extra headers to include in requests.
	Headers http.Header

	// Timeout bounds each request. Defaults to 600s.
	Timeout time.Duration

	// Model is the chat model used when a request names none.
	Model core.ModelID

	// ImageModel is the image model used when a request names none.
	ImageModel core.ModelID

	// RateLimit is the allowed requests per second; zero disables limiting.
	RateLimit float64
	Burst     int

	Settings  core.Settings
	Telemetry core.TelemetryHook
	Logger    *slog.Logger
	Recorder  core.UsageRecorder
}

// DefaultBaseURL is the default OpenAI API base URL.
const DefaultBaseURL = "https://api.openai.com/v1"

// Default models.
const (
	DefaultModel      core.ModelID = "gpt-4o-mini"
	DefaultImageModel core.ModelID = "dall-e-3"
)

// Option configures the OpenAI provider.
type Option func(*Config)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithOrgID sets the OpenAI organization ID header.
func WithOrgID(org string) Option {
	return func(c *Config) {
		c.OrgID = org
	}
}

// WithHeader adds an extra header to include in requests.
func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Set(key, value)
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithModel sets the default chat model.
func WithModel(model core.ModelID) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithImageModel sets the default image model.
func WithImageModel(model core.ModelID) Option {
	return func(c *Config) {
		c.ImageModel = model
	}
}

// WithRateLimit throttles requests to rps per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Config) {
		c.RateLimit = rps
		c.Burst = burst
	}
}

// WithSettings sets the lookup consulted for the API key, base URL, models
// and rate limit when they are not given explicitly.
func WithSettings(s core.Settings) Option {
	return func(c *Config) {
		c.Settings = s
	}
}

// WithTelemetry sets the request lifecycle hook.
func WithTelemetry(h core.TelemetryHook) Option {
	return func(c *Config) {
		c.Telemetry = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithUsageRecorder sets the sink for usage records.
func WithUsageRecorder(r core.UsageRecorder) Option {
	return func(c *Config) {
		c.Recorder = r
	}
}
