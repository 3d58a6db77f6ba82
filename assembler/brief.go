package assembler

import (
	"fmt"
	"strings"

	"github.com/petal-labs/scribe/core"
)

// ImageMode selects where section images come from.
type ImageMode string

const (
	ImagesNone     ImageMode = "none"
	ImagesGenerate ImageMode = "generate"
	ImagesStock    ImageMode = "stock"
)

// Section count bounds.
const (
	DefaultSections = 4
	MaxSections     = 12
)

// ErrTopicRequired is returned for a brief without a topic.
var ErrTopicRequired = fmt.Errorf("%w: topic required", core.ErrBadRequest)

// Brief describes the article to write.
type Brief struct {
	Topic    string
	Audience string
	Tone     string
	Keywords []string
	// Sections is the number of sections to request. Zero means
	// DefaultSections.
	Sections int
	Images   ImageMode
	// Video embeds one related video when a video searcher is configured.
	Video bool
}

func (b Brief) normalize() (Brief, error) {
	b.Topic = strings.TrimSpace(b.Topic)
	if b.Topic == "" {
		return b, ErrTopicRequired
	}
	switch {
	case b.Sections <= 0:
		b.Sections = DefaultSections
	case b.Sections > MaxSections:
		b.Sections = MaxSections
	}
	if b.Images == "" {
		b.Images = ImagesNone
	}
	switch b.Images {
	case ImagesNone, ImagesGenerate, ImagesStock:
	default:
		return b, fmt.Errorf("%w: unknown image mode %q", core.ErrBadRequest, b.Images)
	}
	return b, nil
}

// ParseImageMode parses "none", "generate" or "stock".
func ParseImageMode(s string) (ImageMode, error) {
	switch m := ImageMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ImagesNone, nil
	case ImagesNone, ImagesGenerate, ImagesStock:
		return m, nil
	default:
		return "", fmt.Errorf("unknown image mode %q: want none, generate or stock", s)
	}
}
