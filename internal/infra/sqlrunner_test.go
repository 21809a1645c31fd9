package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

const markedSelect = "--sql 8a8e0d52-7f5d-4f21-8b7d-f7d4b821eed7\nselect 1;\n"

func TestExtractMarker(t *testing.T) {
	marker, body, err := ExtractMarker(markedSelect)
	if err != nil {
		t.Fatalf("ExtractMarker returned error: %v", err)
	}
	if marker != "8a8e0d52-7f5d-4f21-8b7d-f7d4b821eed7" {
		t.Fatalf("marker = %q", marker)
	}
	if body != "select 1;" {
		t.Fatalf("body = %q", body)
	}
}

func TestExtractMarkerRejectsUnmarkedQueries(t *testing.T) {
	for _, q := range []string{"", "select 1;", "--sql not-a-uuid\nselect 1;"} {
		if _, _, err := ExtractMarker(q); !errors.Is(err, ErrMissingMarker) {
			t.Fatalf("ExtractMarker(%q) err = %v", q, err)
		}
	}
}

type fakeDB struct {
	queries []string
	tag     pgconn.CommandTag
	err     error
	rowErr  error
	delay   time.Duration
}

func (f *fakeDB) Exec(_ context.Context, query string, _ ...any) (pgconn.CommandTag, error) {
	f.queries = append(f.queries, query)
	time.Sleep(f.delay)
	return f.tag, f.err
}

func (f *fakeDB) QueryRow(_ context.Context, query string, _ ...any) pgx.Row {
	f.queries = append(f.queries, query)
	return errorRow{err: f.rowErr}
}

func (f *fakeDB) Query(_ context.Context, query string, _ ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, query)
	return nil, f.err
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestSQLRunnerStripsMarkerAndLogs(t *testing.T) {
	var buf bytes.Buffer
	db := &fakeDB{tag: pgconn.NewCommandTag("UPDATE 2")}
	r := NewSQLRunner(db, zerolog.New(&buf).Level(zerolog.DebugLevel))

	tag, err := r.Exec(context.Background(), markedSelect)
	if err != nil || tag.RowsAffected() != 2 {
		t.Fatalf("Exec = %v, %v", tag, err)
	}
	if len(db.queries) != 1 || db.queries[0] != "select 1;" {
		t.Fatalf("queries = %q", db.queries)
	}
	lines := logLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("log lines = %v", lines)
	}
	l := lines[0]
	if l["level"] != "debug" || l["sql"] != "8a8e0d52-7f5d-4f21-8b7d-f7d4b821eed7" || l["op"] != "exec" || l["rows"] != float64(2) {
		t.Fatalf("log line = %v", l)
	}
	if _, ok := l["elapsed"]; !ok {
		t.Fatalf("elapsed missing: %v", l)
	}
}

func TestSQLRunnerLevels(t *testing.T) {
	var buf bytes.Buffer
	db := &fakeDB{err: errors.New("boom"), rowErr: pgx.ErrNoRows}
	r := NewSQLRunner(db, zerolog.New(&buf).Level(zerolog.DebugLevel))
	ctx := context.Background()

	if _, err := r.Query(ctx, markedSelect); err == nil {
		t.Fatal("expected query error")
	}
	if err := r.QueryRow(ctx, markedSelect).Scan(); !IsNoRows(err) {
		t.Fatalf("scan err = %v", err)
	}
	db.err = nil
	db.delay = 5 * time.Millisecond
	r.SlowAfter = time.Millisecond
	if _, err := r.Exec(ctx, markedSelect); err != nil {
		t.Fatal(err)
	}

	lines := logLines(t, &buf)
	want := []string{"error", "debug", "warn"}
	if len(lines) != len(want) {
		t.Fatalf("log lines = %v", lines)
	}
	for i, l := range lines {
		if l["level"] != want[i] {
			t.Fatalf("line %d level = %v, want %s", i, l["level"], want[i])
		}
	}
}

func TestSQLRunnerRejectsUnmarked(t *testing.T) {
	db := &fakeDB{}
	r := NewSQLRunner(db, zerolog.Nop())
	ctx := context.Background()
	if _, err := r.Exec(ctx, "select 1"); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("Exec err = %v", err)
	}
	if _, err := r.Query(ctx, "select 1"); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("Query err = %v", err)
	}
	if err := r.QueryRow(ctx, "select 1").Scan(); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("QueryRow err = %v", err)
	}
	if len(db.queries) != 0 {
		t.Fatalf("unmarked statements reached the database: %q", db.queries)
	}
}
