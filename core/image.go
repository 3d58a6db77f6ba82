package core

import (
	"encoding/base64"
	"fmt"
)

// ImageSize represents supported image dimensions.
type ImageSize string

const (
	ImageSize256x256   ImageSize = "256x256"
	ImageSize512x512   ImageSize = "512x512"
	ImageSize1024x1024 ImageSize = "1024x1024"
	ImageSize1792x1024 ImageSize = "1792x1024"
	ImageSize1024x1792 ImageSize = "1024x1792"
)

// IsValid reports whether the image size is a recognized value.
func (s ImageSize) IsValid() bool {
	switch s {
	case ImageSize256x256, ImageSize512x512, ImageSize1024x1024, ImageSize1792x1024, ImageSize1024x1792:
		return true
	default:
		return false
	}
}

// ImageQuality represents the rendering quality level.
type ImageQuality string

const (
	ImageQualityStandard ImageQuality = "standard"
	ImageQualityHD       ImageQuality = "hd"
)

// IsValid reports whether the image quality is a recognized value.
func (q ImageQuality) IsValid() bool {
	return q == ImageQualityStandard || q == ImageQualityHD
}

// ImageStyle selects between photographic and stylized renderings.
type ImageStyle string

const (
	ImageStyleVivid   ImageStyle = "vivid"
	ImageStyleNatural ImageStyle = "natural"
)

// ImageGenerateRequest represents a request to generate images.
type ImageGenerateRequest struct {
	Model  ModelID `json:"model"`
	Prompt string  `json:"prompt"`

	N       int          `json:"n,omitempty"`
	Size    ImageSize    `json:"size,omitempty"`
	Quality ImageQuality `json:"quality,omitempty"`
	Style   ImageStyle   `json:"style,omitempty"`
}

// ErrPromptRequired is returned when an image request has no prompt.
var ErrPromptRequired = fmt.Errorf("%w: prompt required", ErrBadRequest)

// ImageResponse represents a response containing generated images.
type ImageResponse struct {
	Created int64       `json:"created"`
	Data    []ImageData `json:"data"`
	Usage   TokenUsage  `json:"usage"`
}

// ImageData represents a single generated image.
type ImageData struct {
	B64JSON       string `json:"b64_json,omitempty"`
	URL           string `json:"url,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// GetBytes decodes and returns the image data. It returns nil for URL-only
// results, which must be fetched separately.
func (d ImageData) GetBytes() ([]byte, error) {
	if d.B64JSON != "" {
		return base64.StdEncoding.DecodeString(d.B64JSON)
	}
	return nil, nil
}

// ImageOrientation filters stock photo results by aspect.
type ImageOrientation string

const (
	OrientationAny       ImageOrientation = ""
	OrientationLandscape ImageOrientation = "landscape"
	OrientationPortrait  ImageOrientation = "portrait"
	OrientationSquare    ImageOrientation = "square"
)

// ImageSearchRequest is a stock photo search query.
type ImageSearchRequest struct {
	Query       string
	Page        int
	PerPage     int
	Orientation ImageOrientation
}

// StockPhoto is one stock photo search hit.
type StockPhoto struct {
	ID              string `json:"id"`
	PageURL         string `json:"page_url"`
	ImageURL        string `json:"image_url"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	Alt             string `json:"alt"`
	Photographer    string `json:"photographer"`
	PhotographerURL string `json:"photographer_url"`
}

// ImageSearchResponse is the normalized result of a stock photo search.
type ImageSearchResponse struct {
	Provider string       `json:"provider"`
	Total    int          `json:"total"`
	Photos   []StockPhoto `json:"photos"`
}

// VideoSearchRequest is a video search query.
type VideoSearchRequest struct {
	Query      string
	MaxResults int
}

// Video is one video search hit.
type Video struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Channel     string `json:"channel"`
}

// VideoSearchResponse is the normalized result of a video search.
type VideoSearchResponse struct {
	Provider string  `json:"provider"`
	Videos   []Video `json:"videos"`
}
