package pgusage

import (
	"context"
	"fmt"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS %s (
    id               BIGSERIAL PRIMARY KEY,
    provider         TEXT NOT NULL,
    model            TEXT NOT NULL DEFAULT '',
    prompt_units     INTEGER NOT NULL DEFAULT 0,
    completion_units INTEGER NOT NULL DEFAULT 0,
    recorded_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const createProviderIndexSQL = `CREATE INDEX IF NOT EXISTS idx_%s_provider_recorded
    ON %s (provider, recorded_at)`

// EnsureSchema creates the usage table and its index if they do not exist.
// Deployments with migration tooling can skip it.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, fmt.Sprintf(createTableSQL, r.tableName)); err != nil {
		return fmt.Errorf("pgusage: create table: %w", err)
	}
	if _, err := r.db.Exec(ctx, fmt.Sprintf(createProviderIndexSQL, indexName(r.tableName), r.tableName)); err != nil {
		return fmt.Errorf("pgusage: create index: %w", err)
	}
	return nil
}

// indexName strips identifier quoting so the table name can be embedded in
// an index name.
func indexName(table string) string {
	out := make([]byte, 0, len(table))
	for i := 0; i < len(table); i++ {
		if table[i] != '"' {
			out = append(out, table[i])
		}
	}
	return string(out)
}
