// Package pexels implements stock photo search against the Pexels API.
package pexels

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
const ProviderID = "pexels"

// DefaultAPIKeyEnvVar is the environment variable name for the Pexels API key.
const DefaultAPIKeyEnvVar = "PEXELS_API_KEY"

const (
	searchPath     = "/v1/search"
	maxPerPage     = 80
	defaultPerPage = 15
)

// Pexels is a stock photo search client. It is safe for concurrent use.
type Pexels struct {
	search core.Caller
}

// NewFromEnv creates a client using the PEXELS_API_KEY environment variable.
func NewFromEnv(opts ...Option) (*Pexels, error) {
	key := os.Getenv(DefaultAPIKeyEnvVar)
	if key == "" {
		return nil, &core.MissingCredentialError{Provider: ProviderID, Key: DefaultAPIKeyEnvVar}
	}
	return New(key, opts...)
}

// New creates a client. An empty apiKey is resolved from settings; a
// *core.MissingCredentialError is returned when neither yields one.
func New(apiKey string, opts ...Option) (*Pexels, error) {
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
		Auth:       transport.Auth{Style: transport.AuthHeader, Name: "Authorization", Key: key},
		HTTPClient: cfg.HTTPClient,
		Timeout:    cfg.Timeout,
		Limiter:    transport.NewLimiter(cfg.RateLimit, cfg.Burst),
		Telemetry:  cfg.Telemetry,
		Logger:     cfg.Logger,
		Classify:   classify,
	})

	return &Pexels{
		search: client.Caller(transport.Endpoint{
			Operation: "search",
			Method:    http.MethodGet,
			Path:      searchPath,
		}),
	}, nil
}

// ID returns the provider identifier.
func (p *Pexels) ID() string { return ProviderID }

// Search returns the raw search endpoint. Payload entries are sent as query
// parameters.
func (p *Pexels) Search() core.Caller { return p.search }

type searchResponse struct {
	TotalResults int `json:"total_results"`
	Photos       []struct {
		ID              int64  `json:"id"`
		Width           int    `json:"width"`
		Height          int    `json:"height"`
		URL             string `json:"url"`
		Alt             string `json:"alt"`
		Photographer    string `json:"photographer"`
		PhotographerURL string `json:"photographer_url"`
		Src             struct {
			Original string `json:"original"`
			Large2x  string `json:"large2x"`
			Large    string `json:"large"`
		} `json:"src"`
	} `json:"photos"`
}

// SearchPayload converts a core request to Pexels query parameters.
func SearchPayload(req *core.ImageSearchRequest) core.Payload {
	perPage := req.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	payload := core.Payload{
		"query":    req.Query,
		"per_page": perPage,
	}
	if req.Page > 0 {
		payload["page"] = req.Page
	}
	if req.Orientation != core.OrientationAny {
		payload["orientation"] = string(req.Orientation)
	}
	return payload
}

// SearchImages searches Pexels for photos matching req.Query.
func (p *Pexels) SearchImages(ctx context.Context, req *core.ImageSearchRequest) (*core.ImageSearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, errQueryRequired
	}

	resp, err := p.search.Call(ctx, SearchPayload(req))
	if err != nil {
		return nil, err
	}
	return SearchResult(resp)
}

// SearchResult maps a raw search response to an ImageSearchResponse.
func SearchResult(resp *core.Response) (*core.ImageSearchResponse, error) {
	var sr searchResponse
	if err := resp.Decode(&sr); err != nil {
		return nil, err
	}

	out := &core.ImageSearchResponse{
		Provider: ProviderID,
		Total:    sr.TotalResults,
		Photos:   make([]core.StockPhoto, 0, len(sr.Photos)),
	}
	for _, ph := range sr.Photos {
		img := ph.Src.Large2x
		if img == "" {
			img = ph.Src.Original
		}
		out.Photos = append(out.Photos, core.StockPhoto{
			ID:              strconv.FormatInt(ph.ID, 10),
			PageURL:         ph.URL,
			ImageURL:        img,
			Width:           ph.Width,
			Height:          ph.Height,
			Alt:             ph.Alt,
			Photographer:    ph.Photographer,
			PhotographerURL: ph.PhotographerURL,
		})
	}
	return out, nil
}

var errQueryRequired = &core.ProviderError{
	Provider: ProviderID,
	Message:  "query required",
	Fields:   map[string]string{"query": "must not be empty"},
	Err:      core.ErrValidation,
}

func classify(status int, body []byte, requestID string) error {
	return normalize.TextProviderError(ProviderID, status, body, requestID, nil)
}

var _ core.ImageSearcher = (*Pexels)(nil)
