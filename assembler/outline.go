package assembler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/petal-labs/scribe/core"
)

// Outline is the article plan returned by the chat provider.
type Outline struct {
	Title    string           `json:"title"`
	Sections []OutlineSection `json:"sections"`
}

// OutlineSection is one planned section.
type OutlineSection struct {
	Heading string `json:"heading"`
	Summary string `json:"summary"`
}

const outlineSystemPrompt = `You plan blog articles. Reply with a single JSON object and nothing else:
{"title": string, "sections": [{"heading": string, "summary": string}]}
Headings are short. Each summary is one sentence describing what the section covers.`

func outlineRequest(model core.ModelID, b Brief) *core.ChatRequest {
	var user strings.Builder
	fmt.Fprintf(&user, "Topic: %s\nSections: %d\n", b.Topic, b.Sections)
	if b.Audience != "" {
		fmt.Fprintf(&user, "Audience: %s\n", b.Audience)
	}
	if b.Tone != "" {
		fmt.Fprintf(&user, "Tone: %s\n", b.Tone)
	}
	if len(b.Keywords) > 0 {
		fmt.Fprintf(&user, "Keywords: %s\n", strings.Join(b.Keywords, ", "))
	}
	return &core.ChatRequest{
		Model: model,
		Messages: []core.Message{
			{Role: core.RoleSystem, Content: outlineSystemPrompt},
			{Role: core.RoleUser, Content: user.String()},
		},
		JSONOutput: true,
	}
}

// ParseOutline decodes the outline JSON a model produced. Code fences are
// stripped and malformed JSON is repaired before giving up. Sections
// without a heading are dropped.
func ParseOutline(output string) (*Outline, error) {
	text := stripFences(output)

	var o Outline
	if err := json.Unmarshal([]byte(text), &o); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(text)
		if repairErr != nil {
			return nil, fmt.Errorf("outline is not JSON: %w (repair: %v)", err, repairErr)
		}
		o = Outline{}
		if err := json.Unmarshal([]byte(repaired), &o); err != nil {
			return nil, fmt.Errorf("outline is not JSON after repair: %w", err)
		}
	}

	kept := o.Sections[:0]
	for _, s := range o.Sections {
		s.Heading = strings.TrimSpace(s.Heading)
		s.Summary = strings.TrimSpace(s.Summary)
		if s.Heading != "" {
			kept = append(kept, s)
		}
	}
	o.Sections = kept
	o.Title = strings.TrimSpace(o.Title)

	if len(o.Sections) == 0 {
		return nil, fmt.Errorf("outline has no sections")
	}
	return &o, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
