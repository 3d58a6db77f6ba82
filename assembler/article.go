package assembler

import (
	"context"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/petal-labs/scribe/content"
)

// Blocks returns the article's media blocks in document order.
func (a *Article) Blocks() []content.Block {
	var blocks []content.Block
	for i, s := range a.Sections {
		if s.Image != nil {
			blocks = append(blocks, s.Image)
		}
		if i == 0 && a.Video != nil {
			blocks = append(blocks, a.Video)
		}
	}
	if len(a.Sections) == 0 && a.Video != nil {
		blocks = append(blocks, a.Video)
	}
	return blocks
}

// Markup renders the article body as block-editor markup. Images are
// persisted through store; an image that cannot be persisted is left out.
// The title is not part of the body.
func (a *Article) Markup(ctx context.Context, store content.MediaStore) string {
	var parts []string
	add := func(s string) {
		if s != "" {
			parts = append(parts, s)
		}
	}

	for i, s := range a.Sections {
		add(content.Heading(s.Heading))
		if s.Image != nil {
			add(s.Image.Render(ctx, store))
		}
		add(content.Paragraphs(s.Body))
		if i == 0 && a.Video != nil {
			add(a.Video.Render(ctx, store))
		}
	}
	if len(a.Sections) == 0 && a.Video != nil {
		add(a.Video.Render(ctx, store))
	}
	return strings.Join(parts, "\n\n")
}

var blockDelimiter = regexp.MustCompile(`<!-- /?wp:[^>]*-->\n?`)

// Markdown renders the article as Markdown, headed by the title.
func (a *Article) Markdown(ctx context.Context, store content.MediaStore) (string, error) {
	markup := blockDelimiter.ReplaceAllString(a.Markup(ctx, store), "")
	body, err := htmltomarkdown.ConvertString(markup)
	if err != nil {
		return "", err
	}
	if a.Title == "" {
		return body, nil
	}
	return "# " + a.Title + "\n\n" + strings.TrimSpace(body) + "\n", nil
}
