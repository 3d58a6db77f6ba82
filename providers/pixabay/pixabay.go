// Package pixabay implements stock photo search against the Pixabay API.
package pixabay

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/petal-labs/scribe/core"
	"github.com/petal-labs/scribe/providers/internal/normalize"
	"github.com/petal-labs/scribe/providers/internal/transport"
)

// ProviderID identifies this provider in settings and errors.
const ProviderID = "pixabay"

// DefaultAPIKeyEnvVar is the environment variable name for the Pixabay API key.
const DefaultAPIKeyEnvVar = "PIXABAY_API_KEY"

const (
	searchPath = "/api/"
	// Pixabay rejects per_page outside [3, 200].
	minPerPage     = 3
	maxPerPage     = 200
	defaultPerPage = 20
)

// Pixabay is a stock photo search client. It is safe for concurrent use.
type Pixabay struct {
	search core.Caller
}

// NewFromEnv creates a client using the PIXABAY_API_KEY environment variable.
func NewFromEnv(opts ...Option) (*Pixabay, error) {
	key := os.Getenv(DefaultAPIKeyEnvVar)
	if key == "" {
		return nil, &core.MissingCredentialError{Provider: ProviderID, Key: DefaultAPIKeyEnvVar}
	}
	return New(key, opts...)
}

// New creates a client. An empty apiKey is resolved from settings; a
// *core.MissingCredentialError is returned when neither yields one.
func New(apiKey string, opts ...Option) (*Pixabay, error) {
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

	return &Pixabay{
		search: client.Caller(transport.Endpoint{
			Operation: "search",
			Method:    http.MethodGet,
			Path:      searchPath,
		}),
	}, nil
}

// ID returns the provider identifier.
func (p *Pixabay) ID() string { return ProviderID }

// Search returns the raw search endpoint.
func (p *Pixabay) Search() core.Caller { return p.search }

type searchResponse struct {
	Total     int `json:"total"`
	TotalHits int `json:"totalHits"`
	Hits      []struct {
		ID            int64  `json:"id"`
		PageURL       string `json:"pageURL"`
		Tags          string `json:"tags"`
		WebformatURL  string `json:"webformatURL"`
		LargeImageURL string `json:"largeImageURL"`
		ImageWidth    int    `json:"imageWidth"`
		ImageHeight   int    `json:"imageHeight"`
		User          string `json:"user"`
		UserID        int64  `json:"user_id"`
	} `json:"hits"`
}

// SearchPayload converts a core request to Pixabay query parameters.
func SearchPayload(req *core.ImageSearchRequest) core.Payload {
	perPage := req.PerPage
	switch {
	case perPage <= 0:
		perPage = defaultPerPage
	case perPage < minPerPage:
		perPage = minPerPage
	case perPage > maxPerPage:
		perPage = maxPerPage
	}

	payload := core.Payload{
		"q":          req.Query,
		"image_type": "photo",
		"safesearch": "true",
		"per_page":   perPage,
	}
	if req.Page > 0 {
		payload["page"] = req.Page
	}
	switch req.Orientation {
	case core.OrientationLandscape:
		payload["orientation"] = "horizontal"
	case core.OrientationPortrait:
		payload["orientation"] = "vertical"
	}
	return payload
}

// SearchImages searches Pixabay for photos matching req.Query.
func (p *Pixabay) SearchImages(ctx context.Context, req *core.ImageSearchRequest) (*core.ImageSearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, &core.ProviderError{
			Provider: ProviderID,
			Message:  "query required",
			Fields:   map[string]string{"q": "must not be empty"},
			Err:      core.ErrValidation,
		}
	}

	resp, err := p.search.Call(ctx, SearchPayload(req))
	if err != nil {
		return nil, err
	}
	return SearchResult(resp)
}

// SearchResult maps a raw search response to an ImageSearchResponse. Total
// is the number of hits reachable through the API, not the library size.
func SearchResult(resp *core.Response) (*core.ImageSearchResponse, error) {
	var sr searchResponse
	if err := resp.Decode(&sr); err != nil {
		return nil, err
	}

	out := &core.ImageSearchResponse{
		Provider: ProviderID,
		Total:    sr.TotalHits,
		Photos:   make([]core.StockPhoto, 0, len(sr.Hits)),
	}
	for _, h := range sr.Hits {
		img := h.LargeImageURL
		if img == "" {
			img = h.WebformatURL
		}
		var userURL string
		if h.User != "" {
			userURL = "https://pixabay.com/users/" + h.User + "-" + strconv.FormatInt(h.UserID, 10) + "/"
		}
		out.Photos = append(out.Photos, core.StockPhoto{
			ID:              strconv.FormatInt(h.ID, 10),
			PageURL:         h.PageURL,
			ImageURL:        img,
			Width:           h.ImageWidth,
			Height:          h.ImageHeight,
			Alt:             h.Tags,
			Photographer:    h.User,
			PhotographerURL: userURL,
		})
	}
	return out, nil
}

// classify maps Pixabay's plain-text errors. An invalid key is reported as
// a 400 whose message mentions the API key.
func classify(status int, body []byte, requestID string) error {
	return normalize.TextProviderError(ProviderID, status, body, requestID, func(status int, message string) error {
		if status == http.StatusBadRequest && strings.Contains(strings.ToLower(message), "api key") {
			return core.ErrUnauthorized
		}
		return nil
	})
}

var _ core.ImageSearcher = (*Pixabay)(nil)
