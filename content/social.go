package content

import (
	"context"
	"fmt"
	"html"
	"path"
	"strings"
)

// Social platforms with script-based embeds.
const (
	PlatformTwitter   = "twitter"
	PlatformX         = "x"
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
)

// SocialEmbed embeds a post from a social platform by permalink.
type SocialEmbed struct {
	Platform string
	Href     string
}

// NewSocialEmbed returns a SocialEmbed block. The platform is kept as given
// and matched case-insensitively when rendering.
func NewSocialEmbed(platform, href string) *SocialEmbed {
	return &SocialEmbed{Platform: platform, Href: href}
}

func socialEmbedFromMap(m map[string]any) (*SocialEmbed, error) {
	f := fields{m: m, key: KeyEmbed}
	platform := f.optional("platform")
	href := f.required("href")
	if f.err != nil {
		return nil, f.err
	}
	return NewSocialEmbed(platform, href), nil
}

// Key returns KeyEmbed.
func (s *SocialEmbed) Key() string { return KeyEmbed }

// ToMap returns the plain-data form.
func (s *SocialEmbed) ToMap() map[string]any {
	return map[string]any{
		"key":      KeyEmbed,
		"platform": nullable(s.Platform),
		"href":     s.Href,
	}
}

// Render returns a raw HTML script embed for Twitter/X, Instagram and
// TikTok, and a generic wp:embed block for any other platform.
func (s *SocialEmbed) Render(_ context.Context, _ MediaStore) string {
	if strings.TrimSpace(s.Href) == "" {
		return ""
	}
	href := html.EscapeString(s.Href)
	platform := strings.ToLower(strings.TrimSpace(s.Platform))

	switch platform {
	case PlatformTwitter, PlatformX:
		return wpBlock("html", nil, fmt.Sprintf(
			`<blockquote class="twitter-tweet"><a href="%s"></a></blockquote><script async src="https://platform.twitter.com/widgets.js" charset="utf-8"></script>`,
			href))
	case PlatformInstagram:
		return wpBlock("html", nil, fmt.Sprintf(
			`<blockquote class="instagram-media" data-instgrm-permalink="%s" data-instgrm-version="14"><a href="%s"></a></blockquote><script async src="https://www.instagram.com/embed.js"></script>`,
			href, href))
	case PlatformTikTok:
		return wpBlock("html", nil, fmt.Sprintf(
			`<blockquote class="tiktok-embed" cite="%s" data-video-id="%s"><a href="%s"></a></blockquote><script async src="https://www.tiktok.com/embed.js"></script>`,
			href, html.EscapeString(path.Base(strings.TrimRight(s.Href, "/"))), href))
	}

	slug := platform
	if slug == "" {
		slug = "embed"
	}
	fig := fmt.Sprintf(
		`<figure class="wp-block-embed is-type-rich is-provider-%[1]s wp-block-embed-%[1]s"><div class="wp-block-embed__wrapper">`+"\n%[2]s\n</div></figure>",
		html.EscapeString(slug), href)
	return wpBlock("embed", embedAttrs{URL: s.Href, Type: "rich", ProviderNameSlug: slug, Responsive: true}, fig)
}

// RenderText returns "".
func (s *SocialEmbed) RenderText() string { return "" }

var _ Block = (*SocialEmbed)(nil)
