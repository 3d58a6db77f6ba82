// Package transport is the HTTP boundary shared by every provider client.
//
// A Client owns one provider's credentials, base URL and hooks. Endpoints are
// exposed as core.Caller values; each call is authenticated, bounded by a
// per-request timeout, optionally rate limited, classified on failure and
// accounted for usage before it returns.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/petal-labs/scribe/core"
	"github.com/petal-labs/scribe/providers/internal/normalize"
)

// DefaultTimeout bounds a single provider request. Image generation and long
// completions routinely take minutes.
const DefaultTimeout = 600 * time.Second

// maxErrorBody caps how much of a failed response is read for classification.
const maxErrorBody = 64 << 10

var sharedClient = newSharedClient()

func newSharedClient() *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 32
	return &http.Client{Transport: t}
}

// AuthStyle selects where the credential is placed on the request.
type AuthStyle int

const (
	// AuthBearer sends "Authorization: Bearer <key>".
	AuthBearer AuthStyle = iota
	// AuthHeader sends the raw key in the header named by Auth.Name.
	AuthHeader
	// AuthQuery sends the key as the query parameter named by Auth.Name.
	AuthQuery
)

// Auth describes how a provider authenticates.
type Auth struct {
	Style AuthStyle
	Name  string
	Key   core.Secret
}

func (a Auth) apply(req *http.Request) {
	switch a.Style {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+a.Key.Expose())
	case AuthHeader:
		req.Header.Set(a.Name, a.Key.Expose())
	case AuthQuery:
		q := req.URL.Query()
		q.Set(a.Name, a.Key.Expose())
		req.URL.RawQuery = q.Encode()
	}
}

// UsageFunc extracts consumption from a decoded response body.
type UsageFunc func(body map[string]any) core.TokenUsage

// Config configures a Client.
type Config struct {
	Provider   string
	BaseURL    string
	Auth       Auth
	HTTPClient *http.Client
	Headers    http.Header
	Timeout    time.Duration

	// Limiter throttles outgoing requests when set.
	Limiter *rate.Limiter

	Telemetry core.TelemetryHook
	Logger    *slog.Logger
	Recorder  core.UsageRecorder

	// Classify maps failed responses; defaults to the status mapping.
	Classify normalize.Classifier

	// RequestIDHeader names the response header carrying the request id.
	RequestIDHeader string
}

// Client issues requests for one provider. It is safe for concurrent use.
type Client struct {
	cfg Config
}

// New returns a Client, filling unset fields with defaults.
func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = sharedClient
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Telemetry == nil {
		cfg.Telemetry = core.NoopTelemetryHook{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = core.NoopUsageRecorder{}
	}
	if cfg.Classify == nil {
		provider := cfg.Provider
		cfg.Classify = func(status int, body []byte, requestID string) error {
			return normalize.TextProviderError(provider, status, body, requestID, nil)
		}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg}
}

// Provider returns the provider id.
func (c *Client) Provider() string { return c.cfg.Provider }

// Endpoint describes one provider operation.
type Endpoint struct {
	// Operation is the name reported to telemetry (e.g., "chat.completions").
	Operation string
	Method    string
	Path      string
	// Usage extracts consumption; nil means the endpoint is not metered.
	Usage UsageFunc
}

// Caller returns a core.Caller bound to ep.
func (c *Client) Caller(ep Endpoint) core.Caller {
	return &endpointCaller{client: c, ep: ep}
}

type endpointCaller struct {
	client *Client
	ep     Endpoint
}

func (e *endpointCaller) ID() string { return e.client.cfg.Provider }

func (e *endpointCaller) Call(ctx context.Context, payload core.Payload) (*core.Response, error) {
	return e.client.Do(ctx, e.ep, payload)
}

// Do performs ep with payload. GET payload entries are sent as query
// parameters; other methods send payload as a JSON body.
func (c *Client) Do(ctx context.Context, ep Endpoint, payload core.Payload) (*core.Response, error) {
	provider := c.cfg.Provider
	model := payload.Model()

	if c.cfg.Limiter != nil {
		if err := c.cfg.Limiter.Wait(ctx); err != nil {
			return nil, normalize.NetworkError(provider, fmt.Errorf("rate limit wait: %w", err))
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	httpReq, err := c.newRequest(reqCtx, ep, payload)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	c.cfg.Telemetry.OnRequestStart(core.RequestStartEvent{
		Provider:  provider,
		Operation: ep.Operation,
		Model:     core.ModelID(model),
		Start:     start,
	})

	resp, usage, err := c.roundTrip(httpReq, ep, model)

	end := core.RequestEndEvent{
		Provider:  provider,
		Operation: ep.Operation,
		Model:     core.ModelID(model),
		Start:     start,
		End:       time.Now(),
		Usage:     usage,
		Err:       err,
	}
	if resp != nil {
		end.Status = resp.Status
		end.Model = core.ModelID(resp.Model)
	} else {
		var pe *core.ProviderError
		if errors.As(err, &pe) {
			end.Status = pe.Status
		}
	}
	c.cfg.Telemetry.OnRequestEnd(end)

	if err != nil {
		c.cfg.Logger.Debug("provider request failed",
			"provider", provider,
			"operation", ep.Operation,
			"status", end.Status,
			"elapsed", end.Duration(),
			"error", err,
		)
		return nil, err
	}

	c.record(ctx, resp)
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, ep Endpoint, payload core.Payload) (*http.Request, error) {
	provider := c.cfg.Provider
	method := ep.Method
	if method == "" {
		method = http.MethodPost
	}

	u, err := url.Parse(c.cfg.BaseURL + ep.Path)
	if err != nil {
		return nil, normalize.NetworkError(provider, fmt.Errorf("build url: %w", err))
	}

	var body io.Reader
	if method == http.MethodGet {
		q := u.Query()
		for k, v := range payload {
			if v == nil {
				continue
			}
			q.Set(k, fmt.Sprint(v))
		}
		u.RawQuery = q.Encode()
	} else {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &core.ProviderError{
				Provider: provider,
				Code:     "encode_error",
				Message:  err.Error(),
				Err:      core.ErrBadRequest,
			}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, normalize.NetworkError(provider, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range c.cfg.Headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	c.cfg.Auth.apply(req)
	return req, nil
}

func (c *Client) roundTrip(req *http.Request, ep Endpoint, model string) (*core.Response, core.TokenUsage, error) {
	provider := c.cfg.Provider

	httpResp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, core.TokenUsage{}, normalize.NetworkError(provider, scrub(err))
	}
	defer httpResp.Body.Close()

	var requestID string
	if c.cfg.RequestIDHeader != "" {
		requestID = httpResp.Header.Get(c.cfg.RequestIDHeader)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return nil, core.TokenUsage{}, c.cfg.Classify(httpResp.StatusCode, data, requestID)
	}

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, core.TokenUsage{}, normalize.NetworkError(provider, scrub(err))
	}

	body := map[string]any{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, core.TokenUsage{}, normalize.DecodeError(provider, httpResp.StatusCode, requestID, err)
		}
	}

	if m, ok := body["model"].(string); ok && m != "" {
		model = m
	}

	var usage core.TokenUsage
	if ep.Usage != nil {
		usage = ep.Usage(body)
	}

	return &core.Response{
		Provider:  provider,
		Status:    httpResp.StatusCode,
		RequestID: requestID,
		Model:     model,
		Body:      body,
		Raw:       json.RawMessage(data),
		Usage:     usage,
	}, usage, nil
}

// record appends the usage record for resp, if any. A recorder failure is
// logged and attached to the response as a warning.
func (c *Client) record(ctx context.Context, resp *core.Response) {
	rec := core.NewUsageRecord(resp.Provider, resp.Model, resp.Usage)
	if rec == nil {
		return
	}
	resp.Record = rec
	if err := c.cfg.Recorder.Append(ctx, *rec); err != nil {
		c.cfg.Logger.Warn("usage record not persisted",
			"provider", rec.Provider,
			"model", rec.Model,
			"error", err,
		)
		resp.Warnings = append(resp.Warnings, &core.UsageWarning{Record: *rec, Err: err})
	}
}

// scrub strips the request URL from url.Error values so query-string
// credentials never reach logs or error messages.
func scrub(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", strings.ToLower(ue.Op), ue.Err)
	}
	return err
}

// Int reads a numeric field from a decoded JSON object path.
func Int(body map[string]any, path ...string) int {
	var cur any = body
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return 0
		}
		cur = m[p]
	}
	switch v := cur.(type) {
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}
