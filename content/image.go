package content

import (
	"context"
	"encoding/base64"
	"log/slog"
)

// GeneratedImage is an image produced by an image-generation provider,
// carried inline as base64.
type GeneratedImage struct {
	Base64      string
	Title       string
	Description string
	Caption     string
}

// NewGeneratedImage returns a GeneratedImage block.
func NewGeneratedImage(b64, title, description, caption string) *GeneratedImage {
	return &GeneratedImage{Base64: b64, Title: title, Description: description, Caption: caption}
}

func generatedImageFromMap(m map[string]any) (*GeneratedImage, error) {
	f := fields{m: m, key: KeyGeneratedImage}
	img := &GeneratedImage{
		Base64:      f.required("base64"),
		Title:       f.optional("title"),
		Description: f.optional("description"),
		Caption:     f.optional("caption"),
	}
	if f.err != nil {
		return nil, f.err
	}
	return img, nil
}

// Key returns KeyGeneratedImage.
func (g *GeneratedImage) Key() string { return KeyGeneratedImage }

// ToMap returns the plain-data form.
func (g *GeneratedImage) ToMap() map[string]any {
	return map[string]any{
		"key":         KeyGeneratedImage,
		"base64":      g.Base64,
		"title":       nullable(g.Title),
		"description": nullable(g.Description),
		"caption":     nullable(g.Caption),
	}
}

func (g *GeneratedImage) meta() MediaMeta {
	return MediaMeta{Title: g.Title, Description: g.Description, Caption: g.Caption}
}

// Render decodes the image, saves it to store and returns a wp:image block.
// It returns "" if the payload does not decode or the store yields no
// reference.
func (g *GeneratedImage) Render(ctx context.Context, store MediaStore) string {
	data, err := base64.StdEncoding.DecodeString(g.Base64)
	if err != nil {
		slog.WarnContext(ctx, "generated image payload does not decode", "key", KeyGeneratedImage, "error", err)
		return ""
	}
	return renderImage(ctx, store, KeyGeneratedImage, MediaSource{Data: data}, g.meta())
}

// RenderText returns "".
func (g *GeneratedImage) RenderText() string { return "" }

// StockImage is a photo found through a stock photo provider. Source is the
// block key of that provider: KeyPexels, KeyPixabay or KeyUnsplash. A
// StockImage with any other Source does not decode from its own map.
type StockImage struct {
	Source      string
	URL         string
	Title       string
	Description string
	Caption     string
}

// NewStockImage returns a StockImage for one of KeyPexels, KeyPixabay or
// KeyUnsplash. Any other key yields a *UnknownVariantError.
func NewStockImage(key, url, title, description, caption string) (*StockImage, error) {
	switch key {
	case KeyPexels, KeyPixabay, KeyUnsplash:
	default:
		return nil, &UnknownVariantError{Key: key}
	}
	return &StockImage{Source: key, URL: url, Title: title, Description: description, Caption: caption}, nil
}

// StockKeyFor maps a search provider id ("pexels") to its block key.
func StockKeyFor(provider string) (string, bool) {
	switch provider {
	case "pexels":
		return KeyPexels, true
	case "pixabay":
		return KeyPixabay, true
	case "unsplash":
		return KeyUnsplash, true
	default:
		return "", false
	}
}

func stockImageFromMap(key string, m map[string]any) (*StockImage, error) {
	f := fields{m: m, key: key}
	img := &StockImage{
		Source:      key,
		URL:         f.required("url"),
		Title:       f.optional("title"),
		Description: f.optional("description"),
		Caption:     f.optional("caption"),
	}
	if f.err != nil {
		return nil, f.err
	}
	return img, nil
}

// Key returns Source.
func (s *StockImage) Key() string { return s.Source }

// ToMap returns the plain-data form.
func (s *StockImage) ToMap() map[string]any {
	return map[string]any{
		"key":         s.Source,
		"url":         s.URL,
		"title":       nullable(s.Title),
		"description": nullable(s.Description),
		"caption":     nullable(s.Caption),
	}
}

// Render saves the remote image to store and returns a wp:image block, or
// "" if the store yields no reference.
func (s *StockImage) Render(ctx context.Context, store MediaStore) string {
	meta := MediaMeta{Title: s.Title, Description: s.Description, Caption: s.Caption}
	return renderImage(ctx, store, s.Source, MediaSource{URL: s.URL}, meta)
}

// RenderText returns "".
func (s *StockImage) RenderText() string { return "" }

func renderImage(ctx context.Context, store MediaStore, key string, src MediaSource, meta MediaMeta) string {
	if store == nil {
		return ""
	}
	ref, err := store.Save(ctx, src, meta)
	if err != nil {
		slog.WarnContext(ctx, "media not persisted", "key", key, "error", err)
		return ""
	}
	if ref == nil || ref.URL == "" {
		return ""
	}
	return imageMarkup(ref, meta)
}

var (
	_ Block = (*GeneratedImage)(nil)
	_ Block = (*StockImage)(nil)
)
