package pexels

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/petal-labs/scribe/core"
	"github.com/petal-labs/scribe/providers/internal/transport"
)

// Config holds configuration for the Pexels provider.
type Config struct {
	// BaseURL is the API base URL. Defaults to https://api.pexels.com
	BaseURL string

	// HTTPClient is the HTTP client to use. Defaults to the shared provider client.
	HTTPClient *http.Client

	// Timeout bounds each request. Defaults to 600s.
	Timeout time.Duration

	// RateLimit is the allowed requests per second; zero disables limiting.
	RateLimit float64
	Burst     int

	Settings  core.Settings
	Telemetry core.TelemetryHook
	Logger    *slog.Logger
}

// DefaultBaseURL is the default Pexels API base URL.
const DefaultBaseURL = "https://api.pexels.com"

// Option configures the Pexels provider.
type Option func(*Config)

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) { c.HTTPClient = client }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithRateLimit throttles requests to rps per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Config) {
		c.RateLimit = rps
		c.Burst = burst
	}
}

// WithSettings sets the lookup consulted for the API key, base URL and rate limit.
func WithSettings(s core.Settings) Option {
	return func(c *Config) { c.Settings = s }
}

// WithTelemetry sets the request lifecycle hook.
func WithTelemetry(h core.TelemetryHook) Option {
	return func(c *Config) { c.Telemetry = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

func (c *Config) applySettings(provider string) {
	if v := core.Lookup(c.Settings, provider, "base_url"); v != "" && c.BaseURL == DefaultBaseURL {
		c.BaseURL = v
	}
	if c.RateLimit == 0 {
		c.RateLimit = transport.ParseRate(core.Lookup(c.Settings, provider, "rate_limit"))
	}
}
