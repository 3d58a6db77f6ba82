package assembler

import (
	"context"
	"strings"
	"testing"

	"github.com/petal-labs/scribe/content"
)

func sampleArticle() *Article {
	stock, _ := content.NewStockImage(content.KeyPixabay, "https://pixabay.example/a.jpg", "Harbour", "Boats at dawn", "")
	return &Article{
		Title: "Tides Explained",
		Sections: []Section{
			{Heading: "What tides are", Body: "Tides rise.\n\nTides fall.", Image: stock},
			{Heading: "Spring & neap", Body: "Twice a month."},
		},
		Video: content.NewVideoEmbed("abc123", "", ""),
	}
}

func fixedStore() content.MediaStore {
	return content.MediaStoreFunc(func(context.Context, content.MediaSource, content.MediaMeta) (*content.MediaRef, error) {
		return &content.MediaRef{ID: 9, URL: "https://blog.example/a.jpg"}, nil
	})
}

func TestMarkupOrder(t *testing.T) {
	got := sampleArticle().Markup(context.Background(), fixedStore())

	order := []string{
		`<h2 class="wp-block-heading">What tides are</h2>`,
		`<!-- wp:image {"id":9`,
		"<p>Tides rise.</p>",
		"<p>Tides fall.</p>",
		"https://www.youtube.com/watch?v=abc123",
		`<h2 class="wp-block-heading">Spring &amp; neap</h2>`,
		"<p>Twice a month.</p>",
	}
	pos := 0
	for _, want := range order {
		i := strings.Index(got[pos:], want)
		if i < 0 {
			t.Fatalf("markup missing %q after offset %d:\n%s", want, pos, got)
		}
		pos += i + len(want)
	}
	if strings.Contains(got, "Tides Explained") {
		t.Error("title belongs outside the body")
	}
}

func TestMarkupSkipsUnpersistedImages(t *testing.T) {
	got := sampleArticle().Markup(context.Background(), nil)
	if strings.Contains(got, "wp:image") {
		t.Errorf("image rendered without a store:\n%s", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Error("skipped blocks must not leave gaps")
	}
}

func TestMarkdown(t *testing.T) {
	got, err := sampleArticle().Markdown(context.Background(), fixedStore())
	if err != nil {
		t.Fatalf("Markdown() error = %v", err)
	}
	for _, want := range []string{"# Tides Explained", "## What tides are", "Tides rise.", "Twice a month.", "https://blog.example/a.jpg"} {
		if !strings.Contains(got, want) {
			t.Errorf("Markdown() missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "wp:") {
		t.Errorf("block delimiters leaked:\n%s", got)
	}
}
