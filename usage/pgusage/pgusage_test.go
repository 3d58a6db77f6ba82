package pgusage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/petal-labs/scribe/core"
	"github.com/petal-labs/scribe/usage"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgxmock pool: %v", err)
	}
	t.Cleanup(func() { mock.Close() })
	return mock
}

func TestNewDefaults(t *testing.T) {
	mock := newMock(t)
	r := New(mock)
	if r.tableName != defaultTableName {
		t.Errorf("tableName = %q, want %q", r.tableName, defaultTableName)
	}

	r = New(mock, WithTableName("usage log"))
	if r.tableName != `"usage log"` {
		t.Errorf("tableName = %q", r.tableName)
	}
}

func TestAppend(t *testing.T) {
	mock := newMock(t)
	r := New(mock)
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO scribe_usage").
		WithArgs("openai", "gpt-4o-mini", 10, 20, at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := r.Append(context.Background(), core.UsageRecord{
		Provider: "openai", Model: "gpt-4o-mini", PromptUnits: 10, CompletionUnits: 20, RecordedAt: at,
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAppendError(t *testing.T) {
	mock := newMock(t)
	r := New(mock)
	down := errors.New("connection refused")

	mock.ExpectExec("INSERT INTO scribe_usage").
		WithArgs("openai", "m", 1, 1, pgxmock.AnyArg()).
		WillReturnError(down)

	err := r.Append(context.Background(), core.UsageRecord{Provider: "openai", Model: "m", PromptUnits: 1, CompletionUnits: 1})
	if !errors.Is(err, down) || !strings.HasPrefix(err.Error(), "pgusage: append") {
		t.Errorf("Append() error = %v", err)
	}
}

func TestList(t *testing.T) {
	mock := newMock(t)
	r := New(mock)
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	since := at.Add(-time.Hour)

	mock.ExpectQuery("SELECT provider, model, prompt_units").
		WithArgs("openai", since).
		WillReturnRows(pgxmock.NewRows([]string{"provider", "model", "prompt_units", "completion_units", "recorded_at"}).
			AddRow("openai", "gpt-4o-mini", 10, 20, at).
			AddRow("openai", "dall-e-3", 0, 1, at.Add(time.Minute)))

	got, err := r.List(context.Background(), usage.Filter{Provider: "openai", Since: since})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[0].CompletionUnits != 20 || got[1].Model != "dall-e-3" {
		t.Errorf("List() = %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListEmpty(t *testing.T) {
	mock := newMock(t)
	r := New(mock)

	mock.ExpectQuery("SELECT provider, model, prompt_units").
		WithArgs("", time.Time{}).
		WillReturnRows(pgxmock.NewRows([]string{"provider", "model", "prompt_units", "completion_units", "recorded_at"}))

	got, err := r.List(context.Background(), usage.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("List() = %#v, want empty non-nil slice", got)
	}
}

func TestSummary(t *testing.T) {
	mock := newMock(t)
	r := New(mock)
	t0 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT provider, model, COUNT").
		WithArgs("", time.Time{}).
		WillReturnRows(pgxmock.NewRows([]string{"provider", "model", "count", "prompt", "completion", "first", "last"}).
			AddRow("openai", "gpt-4o-mini", 3, 30, 60, t0, t0.Add(time.Hour)))

	got, err := r.Summary(context.Background(), usage.Filter{})
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if len(got) != 1 || got[0].Requests != 3 || got[0].TotalUnits() != 90 || !got[0].Last.Equal(t0.Add(time.Hour)) {
		t.Errorf("Summary() = %+v", got)
	}
}

func TestEnsureSchema(t *testing.T) {
	mock := newMock(t)
	r := New(mock, WithTableName("usage"))

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "usage"`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_usage_provider_recorded`).WillReturnResult(pgxmock.NewResult("CREATE INDEX", 0))

	if err := r.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEnsureSchemaError(t *testing.T) {
	mock := newMock(t)
	r := New(mock)

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	if err := r.EnsureSchema(context.Background()); err == nil || !strings.Contains(err.Error(), "create table") {
		t.Errorf("EnsureSchema() error = %v", err)
	}
}
