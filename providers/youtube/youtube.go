// Package youtube implements video search against the YouTube Data API.
package youtube

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/petal-labs/scribe/core"
	"github.com/petal-labs/scribe/providers/internal/normalize"
	"github.com/petal-labs/scribe/providers/internal/transport"
)

// ProviderID identifies this provider in settings and errors.
const ProviderID = "youtube"

// DefaultAPIKeyEnvVar is the environment variable name for the YouTube API key.
const DefaultAPIKeyEnvVar = "YOUTUBE_API_KEY"

const (
	searchPath        = "/search"
	defaultMaxResults = 5
	maxMaxResults     = 50
)

// reasons overrides the status mapping for Google error reasons.
var reasons = map[string]error{
	"quotaExceeded":           core.ErrPermissionDenied,
	"dailyLimitExceeded":      core.ErrPermissionDenied,
	"rateLimitExceeded":       core.ErrPermissionDenied,
	"keyInvalid":              core.ErrUnauthorized,
	"keyExpired":              core.ErrUnauthorized,
	"accessNotConfigured":     core.ErrPermissionDenied,
	"ipRefererBlocked":        core.ErrPermissionDenied,
	"forbidden":               core.ErrPermissionDenied,
	"authError":               core.ErrUnauthorized,
	"unregisteredCallers":     core.ErrUnauthorized,
	"API_KEY_INVALID":         core.ErrUnauthorized,
	"API_KEY_SERVICE_BLOCKED": core.ErrPermissionDenied,
}

// YouTube is a video search client. It is safe for concurrent use.
type YouTube struct {
	search core.Caller
}

// NewFromEnv creates a client using the YOUTUBE_API_KEY environment variable.
func NewFromEnv(opts ...Option) (*YouTube, error) {
	key := os.Getenv(DefaultAPIKeyEnvVar)
	if key == "" {
		return nil, &core.MissingCredentialError{Provider: ProviderID, Key: DefaultAPIKeyEnvVar}
	}
	return New(key, opts...)
}

// New creates a client. An empty apiKey is resolved from settings; a
// *core.MissingCredentialError is returned when neither yields one.
func New(apiKey string, opts ...Option) (*YouTube, error) {
	cfg := Config{BaseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(&cfg)
	}

	key, err := core.ResolveCredential(ProviderID, apiKey, cfg.Settings)
	if err != nil {
		return nil, err
	}
	cfg.applySettings(ProviderID)

	client := transport.New(transport.Config{
		Provider:   ProviderID,
		BaseURL:    cfg.BaseURL,
		Auth:       transport.Auth{Style: transport.AuthQuery, Name: "key", Key: key},
		HTTPClient: cfg.HTTPClient,
		Timeout:    cfg.Timeout,
		Limiter:    transport.NewLimiter(cfg.RateLimit, cfg.Burst),
		Telemetry:  cfg.Telemetry,
		Logger:     cfg.Logger,
		Classify:   classify,
	})

	return &YouTube{
		search: client.Caller(transport.Endpoint{
			Operation: "search",
			Method:    http.MethodGet,
			Path:      searchPath,
		}),
	}, nil
}

// ID returns the provider identifier.
func (y *YouTube) ID() string { return ProviderID }

// Search returns the raw search endpoint.
func (y *YouTube) Search() core.Caller { return y.search }

type searchResponse struct {
	Items []struct {
		ID struct {
			Kind    string `json:"kind"`
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

// SearchPayload converts a core request to YouTube query parameters.
func SearchPayload(req *core.VideoSearchRequest) core.Payload {
	n := req.MaxResults
	if n <= 0 {
		n = defaultMaxResults
	}
	if n > maxMaxResults {
		n = maxMaxResults
	}
	return core.Payload{
		"part":            "snippet",
		"type":            "video",
		"videoEmbeddable": "true",
		"q":               req.Query,
		"maxResults":      n,
	}
}

// SearchVideos searches for embeddable videos matching req.Query.
func (y *YouTube) SearchVideos(ctx context.Context, req *core.VideoSearchRequest) (*core.VideoSearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, &core.ProviderError{
			Provider: ProviderID,
			Message:  "query required",
			Fields:   map[string]string{"q": "must not be empty"},
			Err:      core.ErrValidation,
		}
	}

	resp, err := y.search.Call(ctx, SearchPayload(req))
	if err != nil {
		return nil, err
	}
	return SearchResult(resp)
}

// SearchResult maps a raw search response to a VideoSearchResponse. Items
// that are not videos (channels, playlists) are skipped.
func SearchResult(resp *core.Response) (*core.VideoSearchResponse, error) {
	var sr searchResponse
	if err := resp.Decode(&sr); err != nil {
		return nil, err
	}

	out := &core.VideoSearchResponse{Provider: ProviderID}
	for _, item := range sr.Items {
		if item.ID.VideoID == "" {
			continue
		}
		out.Videos = append(out.Videos, core.Video{
			ID:          item.ID.VideoID,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			Channel:     item.Snippet.ChannelTitle,
		})
	}
	return out, nil
}

// classify maps Google error envelopes. An invalid key arrives as a 400
// "badRequest" whose only distinguishing mark is the API_KEY_INVALID detail.
func classify(status int, body []byte, requestID string) error {
	err := normalize.GoogleStyleProviderError(ProviderID, status, body, requestID, reasons)
	if status == http.StatusBadRequest && bytes.Contains(body, []byte("API_KEY_INVALID")) {
		var pe *core.ProviderError
		if errors.As(err, &pe) {
			pe.Code = "API_KEY_INVALID"
			pe.Fields = nil
			pe.Err = core.ErrUnauthorized
		}
	}
	return err
}

var _ core.VideoSearcher = (*YouTube)(nil)
