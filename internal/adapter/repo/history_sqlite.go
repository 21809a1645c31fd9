package repo

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"brandkit/internal/domain"
	"brandkit/internal/infra"
	"brandkit/internal/sqlinline"
)

// HistoryRepositorySQLite keeps run history in a local SQLite file. It backs
// the CLI and single-node deployments without PostgreSQL.
type HistoryRepositorySQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteHistory opens (creating when missing) the database at path and
// ensures the schema.
func OpenSQLiteHistory(ctx context.Context, path string) (*HistoryRepositorySQLite, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite path is required", domain.ErrInvalidInput)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	repo := &HistoryRepositorySQLite{db: db, now: time.Now}
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close releases the database handle.
func (r *HistoryRepositorySQLite) Close() error {
	return r.db.Close()
}

func (r *HistoryRepositorySQLite) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, stripMarker(sqlinline.QSQLiteEnsureSchema)); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *HistoryRepositorySQLite) StartRun(ctx context.Context, run domain.Run) error {
	created := run.CreatedAt
	if created.IsZero() {
		created = r.now()
	}
	_, err := r.db.ExecContext(ctx, stripMarker(sqlinline.QSQLiteInsertRun),
		run.ID, run.Context, run.HasReference, run.Locale, run.Backend, formatTime(created))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *HistoryRepositorySQLite) RecordRender(ctx context.Context, o domain.RenderOutcome) error {
	created := o.CreatedAt
	if created.IsZero() {
		created = r.now()
	}
	_, err := r.db.ExecContext(ctx, stripMarker(sqlinline.QSQLiteInsertRender),
		uuid.NewString(), o.RunID, string(o.Platform), string(o.Status), o.Prompt, o.MimeType,
		int64(o.Bytes), o.DurationMS, formatTime(created))
	if err != nil {
		return fmt.Errorf("insert render: %w", err)
	}
	return nil
}

func (r *HistoryRepositorySQLite) FinishRun(ctx context.Context, runID, status, styleSeed string) error {
	_, err := r.db.ExecContext(ctx, stripMarker(sqlinline.QSQLiteFinishRun), status, styleSeed, formatTime(r.now()), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first, each with its renders.
func (r *HistoryRepositorySQLite) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	if limit > maxRunLimit {
		limit = maxRunLimit
	}
	rows, err := r.db.QueryContext(ctx, stripMarker(sqlinline.QSQLiteListRuns), limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var (
			run               domain.Run
			created, finished string
		)
		if err := rows.Scan(&run.ID, &run.Context, &run.HasReference, &run.Locale, &run.Backend, &run.Status, &run.StyleSeed, &created, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt = parseTime(created)
		if finished != "" {
			t := parseTime(finished)
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	_ = rows.Close()

	for i := range runs {
		renders, err := r.listRenders(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Renders = renders
	}
	return runs, nil
}

func (r *HistoryRepositorySQLite) listRenders(ctx context.Context, runID string) ([]domain.RenderOutcome, error) {
	rows, err := r.db.QueryContext(ctx, stripMarker(sqlinline.QSQLiteListRendersByRun), runID)
	if err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	defer rows.Close()

	var out []domain.RenderOutcome
	for rows.Next() {
		var (
			o                        domain.RenderOutcome
			platform, status, create string
			bytes                    int64
		)
		if err := rows.Scan(&platform, &status, &o.Prompt, &o.MimeType, &bytes, &o.DurationMS, &create); err != nil {
			return nil, fmt.Errorf("scan render: %w", err)
		}
		o.RunID = runID
		o.Platform = domain.PlatformKey(platform)
		o.Status = domain.AssetStatus(status)
		o.Bytes = int(bytes)
		o.CreatedAt = parseTime(create)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	return out, nil
}

// stripMarker drops the audit marker line; the sqlite driver gets the bare
// statement.
func stripMarker(query string) string {
	if _, body, err := infra.ExtractMarker(query); err == nil {
		return body
	}
	return query
}

// sqliteTimeLayout is fixed width so text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(sqliteTimeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
