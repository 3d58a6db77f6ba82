package content

import (
	"encoding/json"
	"html"
	"strconv"
	"strings"
)

// wpBlock wraps inner in a comment-delimited block. attrs, if non-nil, is
// serialized as the block's JSON attributes.
func wpBlock(name string, attrs any, inner string) string {
	var b strings.Builder
	b.WriteString("<!-- wp:")
	b.WriteString(name)
	if attrs != nil {
		if data, err := json.Marshal(attrs); err == nil && string(data) != "{}" {
			b.WriteByte(' ')
			b.Write(data)
		}
	}
	b.WriteString(" -->\n")
	b.WriteString(inner)
	b.WriteString("\n<!-- /wp:")
	b.WriteString(name)
	b.WriteString(" -->")
	return b.String()
}

type imageAttrs struct {
	ID              int64  `json:"id,omitempty"`
	SizeSlug        string `json:"sizeSlug"`
	LinkDestination string `json:"linkDestination"`
}

// imageMarkup renders a persisted image as a wp:image block.
func imageMarkup(ref *MediaRef, meta MediaMeta) string {
	alt := meta.Description
	if alt == "" {
		alt = meta.Title
	}

	var fig strings.Builder
	fig.WriteString(`<figure class="wp-block-image size-large"><img src="`)
	fig.WriteString(html.EscapeString(ref.URL))
	fig.WriteString(`" alt="`)
	fig.WriteString(html.EscapeString(alt))
	fig.WriteByte('"')
	if ref.ID > 0 {
		fig.WriteString(` class="wp-image-`)
		fig.WriteString(strconv.FormatInt(ref.ID, 10))
		fig.WriteByte('"')
	}
	fig.WriteString("/>")
	if meta.Caption != "" {
		fig.WriteString(`<figcaption class="wp-element-caption">`)
		fig.WriteString(html.EscapeString(meta.Caption))
		fig.WriteString("</figcaption>")
	}
	fig.WriteString("</figure>")

	return wpBlock("image", imageAttrs{ID: ref.ID, SizeSlug: "large", LinkDestination: "none"}, fig.String())
}

// Heading returns an h2 heading block for text.
func Heading(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return wpBlock("heading", nil, `<h2 class="wp-block-heading">`+html.EscapeString(text)+"</h2>")
}

// Paragraphs splits text on blank lines and returns one paragraph block per
// non-empty chunk, separated by blank lines. Single newlines inside a chunk
// become line breaks.
func Paragraphs(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var blocks []string
	for _, chunk := range strings.Split(text, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		lines := strings.Split(chunk, "\n")
		for i, l := range lines {
			lines[i] = html.EscapeString(strings.TrimSpace(l))
		}
		blocks = append(blocks, wpBlock("paragraph", nil, "<p>"+strings.Join(lines, "<br>")+"</p>"))
	}
	return strings.Join(blocks, "\n\n")
}
