package content

import (
	"context"
	"html"
	"net/url"
	"strings"
)

// YouTubeWatchURL returns the canonical watch URL for a video id.
func YouTubeWatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}

// VideoEmbed is an embedded YouTube video.
type VideoEmbed struct {
	ID          string
	Title       string
	Description string
}

// NewVideoEmbed returns a VideoEmbed block.
func NewVideoEmbed(id, title, description string) *VideoEmbed {
	return &VideoEmbed{ID: id, Title: title, Description: description}
}

func videoEmbedFromMap(m map[string]any) (*VideoEmbed, error) {
	f := fields{m: m, key: KeyYouTube}
	v := &VideoEmbed{
		ID:          f.required("id"),
		Title:       f.optional("title"),
		Description: f.optional("description"),
	}
	if f.err != nil {
		return nil, f.err
	}
	return v, nil
}

// Key returns KeyYouTube.
func (v *VideoEmbed) Key() string { return KeyYouTube }

// ToMap returns the plain-data form.
func (v *VideoEmbed) ToMap() map[string]any {
	return map[string]any{
		"key":         KeyYouTube,
		"id":          v.ID,
		"title":       nullable(v.Title),
		"description": nullable(v.Description),
	}
}

type embedAttrs struct {
	URL              string `json:"url,omitempty"`
	Type             string `json:"type"`
	ProviderNameSlug string `json:"providerNameSlug"`
	Responsive       bool   `json:"responsive"`
	ClassName        string `json:"className,omitempty"`
}

// Render returns a wp:embed block. The watch URL appears once, as the
// embed body; the editor resolves the URL from there.
func (v *VideoEmbed) Render(_ context.Context, _ MediaStore) string {
	if strings.TrimSpace(v.ID) == "" {
		return ""
	}

	var fig strings.Builder
	fig.WriteString(`<figure class="wp-block-embed is-type-video is-provider-youtube wp-block-embed-youtube wp-embed-aspect-16-9 wp-has-aspect-ratio"><div class="wp-block-embed__wrapper">`)
	fig.WriteString("\n")
	fig.WriteString(html.EscapeString(YouTubeWatchURL(v.ID)))
	fig.WriteString("\n</div>")
	if v.Title != "" {
		fig.WriteString(`<figcaption class="wp-element-caption">`)
		fig.WriteString(html.EscapeString(v.Title))
		fig.WriteString("</figcaption>")
	}
	fig.WriteString("</figure>")

	return wpBlock("embed", embedAttrs{
		Type:             "video",
		ProviderNameSlug: "youtube",
		Responsive:       true,
		ClassName:        "wp-embed-aspect-16-9 wp-has-aspect-ratio",
	}, fig.String())
}

// RenderText returns "".
func (v *VideoEmbed) RenderText() string { return "" }

var _ Block = (*VideoEmbed)(nil)
