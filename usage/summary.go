package usage

import (
	"sort"
	"time"

	"github.com/petal-labs/scribe/core"
)

// Summary totals the records of one provider and model.
type Summary struct {
	Provider        string    `json:"provider"`
	Model           string    `json:"model"`
	Requests        int       `json:"requests"`
	PromptUnits     int       `json:"prompt_units"`
	CompletionUnits int       `json:"completion_units"`
	First           time.Time `json:"first"`
	Last            time.Time `json:"last"`
}

// TotalUnits returns prompt plus completion units.
func (s Summary) TotalUnits() int { return s.PromptUnits + s.CompletionUnits }

// Filter narrows Summarize to a provider and a time window. Zero fields
// match everything.
type Filter struct {
	Provider string
	Since    time.Time
}

func (f Filter) match(rec core.UsageRecord) bool {
	if f.Provider != "" && rec.Provider != f.Provider {
		return false
	}
	if !f.Since.IsZero() && rec.RecordedAt.Before(f.Since) {
		return false
	}
	return true
}

// Summarize groups records by provider and model, sorted by provider then
// model.
func Summarize(records []core.UsageRecord, filter Filter) []Summary {
	type key struct{ provider, model string }
	byKey := make(map[key]*Summary)

	for _, rec := range records {
		if !filter.match(rec) {
			continue
		}
		k := key{rec.Provider, rec.Model}
		s, ok := byKey[k]
		if !ok {
			s = &Summary{Provider: rec.Provider, Model: rec.Model, First: rec.RecordedAt, Last: rec.RecordedAt}
			byKey[k] = s
		}
		s.Requests++
		s.PromptUnits += rec.PromptUnits
		s.CompletionUnits += rec.CompletionUnits
		if rec.RecordedAt.Before(s.First) {
			s.First = rec.RecordedAt
		}
		if rec.RecordedAt.After(s.Last) {
			s.Last = rec.RecordedAt
		}
	}

	out := make([]Summary, 0, len(byKey))
	for _, s := range byKey {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Model < out[j].Model
	})
	return out
}
