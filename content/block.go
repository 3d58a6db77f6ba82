package content

import (
	"context"
	"fmt"

	"github.com/petal-labs/scribe/core"
)

// Block keys.
const (
	KeyGeneratedImage = "image-dall-e"
	KeyPexels         = "image-pexels"
	KeyPixabay        = "image-pixabay"
	KeyUnsplash       = "image-unsplash"
	KeyYouTube        = "youtube"
	KeyEmbed          = "embed"
)

// Keys returns every recognized block key.
func Keys() []string {
	return []string{KeyGeneratedImage, KeyPexels, KeyPixabay, KeyUnsplash, KeyYouTube, KeyEmbed}
}

// Block is one embeddable unit of article content.
type Block interface {
	// Key returns the variant discriminant.
	Key() string
	// ToMap returns the plain-data form accepted by FromMap.
	ToMap() map[string]any
	// Render returns the block's markup, or "" if it cannot be rendered.
	Render(ctx context.Context, store MediaStore) string
	// RenderText returns the block's plain-text contribution.
	RenderText() string
}

var (
	// ErrUnknownVariant matches any *UnknownVariantError. It classifies as
	// core.KindUnknownVariant.
	ErrUnknownVariant = core.ErrUnknownVariant
	// ErrInvalidBlock is returned when a required field is missing or a
	// field has the wrong type. It classifies as core.KindBadRequest.
	ErrInvalidBlock = fmt.Errorf("%w: invalid content block", core.ErrBadRequest)
)

// UnknownVariantError is returned by FromMap for an unrecognized key.
type UnknownVariantError struct {
	Key string
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("unknown content block variant %q", e.Key)
}

// Is reports whether target is ErrUnknownVariant.
func (e *UnknownVariantError) Is(target error) bool { return target == ErrUnknownVariant }

// FromMap reconstructs a block from its plain-data form. Absent optional
// fields become "". An unrecognized or missing key yields a
// *UnknownVariantError.
func FromMap(m map[string]any) (Block, error) {
	key, _ := m["key"].(string)

	var (
		b   Block
		err error
	)
	switch key {
	case KeyGeneratedImage:
		b, err = generatedImageFromMap(m)
	case KeyPexels, KeyPixabay, KeyUnsplash:
		b, err = stockImageFromMap(key, m)
	case KeyYouTube:
		b, err = videoEmbedFromMap(m)
	case KeyEmbed:
		b, err = socialEmbedFromMap(m)
	default:
		return nil, &UnknownVariantError{Key: key}
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// fields reads string fields from a block map.
type fields struct {
	m   map[string]any
	key string
	err error
}

func (f *fields) optional(name string) string {
	switch v := f.m[name].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		if f.err == nil {
			f.err = fmt.Errorf("%w: %s: field %q is %T, want string", ErrInvalidBlock, f.key, name, v)
		}
		return ""
	}
}

func (f *fields) required(name string) string {
	v := f.optional(name)
	if v == "" && f.err == nil {
		f.err = fmt.Errorf("%w: %s: field %q is required", ErrInvalidBlock, f.key, name)
	}
	return v
}

// nullable maps "" to nil so absent optional fields serialize as null.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
