// Package pgusage records provider usage in a PostgreSQL table. Rows are
// only ever inserted; the reporting queries aggregate them.
package pgusage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/petal-labs/scribe/core"
	"github.com/petal-labs/scribe/usage"
)

const defaultTableName = "scribe_usage"

// Querier is the subset of pgx used by Recorder. *pgxpool.Pool, *pgx.Conn
// and pgx.Tx all satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Recorder implements core.UsageRecorder on PostgreSQL.
type Recorder struct {
	db        Querier
	tableName string
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithTableName overrides the default table name. The name is quoted with
// pgx.Identifier before it is interpolated into queries.
func WithTableName(name string) Option {
	return func(r *Recorder) {
		r.tableName = pgx.Identifier{name}.Sanitize()
	}
}

// New returns a Recorder using db.
func New(db Querier, opts ...Option) *Recorder {
	r := &Recorder{db: db, tableName: defaultTableName}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Append inserts rec.
func (r *Recorder) Append(ctx context.Context, rec core.UsageRecord) error {
	at := rec.RecordedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	query := fmt.Sprintf(`INSERT INTO %s (provider, model, prompt_units, completion_units, recorded_at)
		VALUES ($1, $2, $3, $4, $5)`, r.tableName)

	if _, err := r.db.Exec(ctx, query, rec.Provider, rec.Model, rec.PromptUnits, rec.CompletionUnits, at); err != nil {
		return fmt.Errorf("pgusage: append: %w", err)
	}
	return nil
}

// List returns records matching filter, oldest first.
func (r *Recorder) List(ctx context.Context, filter usage.Filter) ([]core.UsageRecord, error) {
	query := fmt.Sprintf(`SELECT provider, model, prompt_units, completion_units, recorded_at
		FROM %s WHERE ($1 = '' OR provider = $1) AND recorded_at >= $2
		ORDER BY recorded_at ASC, id ASC`, r.tableName)

	rows, err := r.db.Query(ctx, query, filter.Provider, filter.Since)
	if err != nil {
		return nil, fmt.Errorf("pgusage: list: %w", err)
	}
	defer rows.Close()

	var records []core.UsageRecord
	for rows.Next() {
		var rec core.UsageRecord
		if err := rows.Scan(&rec.Provider, &rec.Model, &rec.PromptUnits, &rec.CompletionUnits, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("pgusage: scan row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgusage: iterate rows: %w", err)
	}
	if records == nil {
		return []core.UsageRecord{}, nil
	}
	return records, nil
}

// Summary aggregates records per provider and model in the database.
func (r *Recorder) Summary(ctx context.Context, filter usage.Filter) ([]usage.Summary, error) {
	query := fmt.Sprintf(`SELECT provider, model, COUNT(*), COALESCE(SUM(prompt_units), 0), COALESCE(SUM(completion_units), 0),
		MIN(recorded_at), MAX(recorded_at)
		FROM %s WHERE ($1 = '' OR provider = $1) AND recorded_at >= $2
		GROUP BY provider, model
		ORDER BY provider, model`, r.tableName)

	rows, err := r.db.Query(ctx, query, filter.Provider, filter.Since)
	if err != nil {
		return nil, fmt.Errorf("pgusage: summary: %w", err)
	}
	defer rows.Close()

	out := []usage.Summary{}
	for rows.Next() {
		var s usage.Summary
		if err := rows.Scan(&s.Provider, &s.Model, &s.Requests, &s.PromptUnits, &s.CompletionUnits, &s.First, &s.Last); err != nil {
			return nil, fmt.Errorf("pgusage: scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgusage: iterate rows: %w", err)
	}
	return out, nil
}

var _ core.UsageRecorder = (*Recorder)(nil)
