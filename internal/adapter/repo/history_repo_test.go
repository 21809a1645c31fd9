package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"brandkit/internal/domain"
	"brandkit/internal/sqlinline"
)

type execCall struct {
	query string
	args  []any
}

type stubExecutor struct {
	execs   []execCall
	execErr error
	results map[string][][]any
	queries []execCall
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.execs = append(s.execs, execCall{query: query, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), s.execErr
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return nil
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.queries = append(s.queries, execCall{query: query, args: args})
	key := query
	if query == sqlinline.QListRendersByRun {
		key = fmt.Sprintf("renders:%v", args[0])
	}
	return &stubRows{data: s.results[key]}, nil
}

// stubRows serves canned rows through pgx.Rows.
type stubRows struct {
	data   [][]any
	idx    int
	closed bool
}

func (r *stubRows) Close()                                       { r.closed = true }
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

func (r *stubRows) Next() bool {
	if r.closed || r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *stubRows) Values() ([]any, error) { return r.data[r.idx-1], nil }

func (r *stubRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	if len(row) != len(dest) {
		return fmt.Errorf("scan: %d columns into %d targets", len(row), len(dest))
	}
	for i, d := range dest {
		switch ptr := d.(type) {
		case *string:
			*ptr = row[i].(string)
		case *bool:
			*ptr = row[i].(bool)
		case *int64:
			*ptr = row[i].(int64)
		case *time.Time:
			*ptr = row[i].(time.Time)
		case **time.Time:
			if row[i] == nil {
				*ptr = nil
			} else {
				ts := row[i].(time.Time)
				*ptr = &ts
			}
		default:
			return fmt.Errorf("scan: unsupported target %T", d)
		}
	}
	return nil
}

func TestStartRecordAndFinishRun(t *testing.T) {
	exec := &stubExecutor{}
	repo := NewHistoryRepository(exec)
	ctx := context.Background()

	if err := repo.StartRun(ctx, domain.Run{ID: "run-1", Context: "launch", HasReference: true, Locale: "id", Backend: "gemini"}); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := repo.RecordRender(ctx, domain.RenderOutcome{RunID: "run-1", Platform: domain.PlatformBlog, Status: domain.StatusSuccess, Prompt: "p", MimeType: "image/png", Bytes: 42, DurationMS: 900}); err != nil {
		t.Fatalf("RecordRender: %v", err)
	}
	if err := repo.FinishRun(ctx, "run-1", domain.RunCompleted, "seed"); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	if len(exec.execs) != 3 {
		t.Fatalf("exec calls = %d, want 3", len(exec.execs))
	}
	if exec.execs[0].query != sqlinline.QInsertRun || exec.execs[0].args[2] != true {
		t.Fatalf("insert run call = %+v", exec.execs[0])
	}
	render := exec.execs[1]
	if render.query != sqlinline.QInsertRender || render.args[1] != "blog" || render.args[5] != int64(42) || render.args[6] != int64(900) {
		t.Fatalf("insert render call = %+v", render)
	}
	if finish := exec.execs[2]; finish.args[1] != "completed" || finish.args[2] != "seed" {
		t.Fatalf("finish call = %+v", finish)
	}
}

func TestExecErrorsAreWrapped(t *testing.T) {
	boom := errors.New("relation does not exist")
	repo := NewHistoryRepository(&stubExecutor{execErr: boom})
	err := repo.StartRun(context.Background(), domain.Run{ID: "run-1"})
	if !errors.Is(err, boom) || !strings.HasPrefix(err.Error(), "insert run:") {
		t.Fatalf("err = %v", err)
	}
	if err := repo.EnsureSchema(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("EnsureSchema err = %v", err)
	}
}

func TestListRunsWithRenders(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	finished := created.Add(12 * time.Second)
	exec := &stubExecutor{results: map[string][][]any{
		sqlinline.QListRuns: {
			{"run-2", "second", false, "en", "synthetic", "running", "", created.Add(time.Minute), nil},
			{"run-1", "first", true, "id", "gemini", "completed", "sage", created, finished},
		},
		"renders:run-1": {
			{"linkedin", "success", "L", "image/png", int64(1200), int64(800), created},
			{"twitter", "error", "T", "", int64(0), int64(300), created},
		},
	}}
	repo := NewHistoryRepository(exec)

	runs, err := repo.ListRuns(context.Background(), 500)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if exec.queries[0].args[0] != maxRunLimit {
		t.Fatalf("limit = %v, want clamped to %d", exec.queries[0].args[0], maxRunLimit)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].FinishedAt != nil || len(runs[0].Renders) != 0 {
		t.Fatalf("running run = %+v", runs[0])
	}
	first := runs[1]
	if first.FinishedAt == nil || !first.FinishedAt.Equal(finished) || !first.HasReference || first.StyleSeed != "sage" {
		t.Fatalf("completed run = %+v", first)
	}
	if len(first.Renders) != 2 || first.Renders[0].Bytes != 1200 || first.Renders[1].Status != domain.StatusError {
		t.Fatalf("renders = %+v", first.Renders)
	}
}

func TestListRunsDefaultLimit(t *testing.T) {
	exec := &stubExecutor{}
	if _, err := NewHistoryRepository(exec).ListRuns(context.Background(), 0); err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if exec.queries[0].args[0] != defaultRunLimit {
		t.Fatalf("limit = %v, want %d", exec.queries[0].args[0], defaultRunLimit)
	}
}
