package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/petal-labs/scribe/usage"
	"github.com/petal-labs/scribe/usage/pgusage"
)

func (a *App) newUsageCommand() *cobra.Command {
	var provider, since string

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Report provider usage",
		Long: `Summarize recorded provider usage by provider and model.

Records are read from the Postgres database when usage.postgres is
configured, and from the usage log file otherwise.

Examples:
  scribe usage
  scribe usage --provider openai --since 168h
  scribe usage --since 2026-01-01 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := usage.Filter{Provider: strings.TrimSpace(provider)}
			if since != "" {
				t, err := parseSince(since, time.Now())
				if err != nil {
					return a.invalid(err)
				}
				filter.Since = t
			}

			summaries, err := a.loadUsage(cmd.Context(), filter)
			if err != nil {
				return a.invalid(err)
			}

			if a.jsonOutput {
				return writeJSON(a.stdout, summaries)
			}
			writeUsageTable(a.stdout, summaries)
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "only report this provider")
	cmd.Flags().StringVar(&since, "since", "", "only report records since a duration ago (24h) or a date (2006-01-02)")

	return cmd
}

func (a *App) loadUsage(ctx context.Context, filter usage.Filter) ([]usage.Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if dsn := a.cfg.Usage.Postgres; dsn != "" {
		db, release, err := a.connectDB(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("usage database: %w", err)
		}
		defer release()
		return pgusage.New(db).Summary(ctx, filter)
	}

	records, err := usage.ReadFile(a.cfg.Usage.Path)
	if err != nil {
		return nil, err
	}
	return usage.Summarize(records, filter), nil
}

// parseSince accepts a Go duration, counted back from now, or a date.
func parseSince(s string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			d = -d
		}
		return now.Add(-d), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --since %q: want a duration like 24h or a date like 2006-01-02", s)
}

func writeUsageTable(w io.Writer, items []usage.Summary) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true
	if colorEnabled(w) {
		tw.Style().Color.Header = text.Colors{text.Bold}
		tw.Style().Color.Footer = text.Colors{text.Bold}
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignCenter},
		{Number: 7, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
	})

	tw.AppendHeader(table.Row{"Provider", "Model", "Requests", "Prompt", "Completion", "Total", "Last"})

	var requests, prompt, completion int
	for _, s := range items {
		tw.AppendRow(table.Row{
			s.Provider,
			s.Model,
			s.Requests,
			s.PromptUnits,
			s.CompletionUnits,
			s.TotalUnits(),
			s.Last.Local().Format(time.RFC3339),
		})
		requests += s.Requests
		prompt += s.PromptUnits
		completion += s.CompletionUnits
	}

	if len(items) == 0 {
		tw.AppendRow(table.Row{"-", "(no usage recorded)", 0, 0, 0, 0, "-"})
	} else {
		tw.AppendFooter(table.Row{"Total", "", requests, prompt, completion, prompt + completion, ""})
	}

	_ = tw.Render()
}
