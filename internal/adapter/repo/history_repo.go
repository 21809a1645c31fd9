package repo

import (
	"context"
	"fmt"
	"time"

	"brandkit/internal/domain"
	"brandkit/internal/infra"
	"brandkit/internal/sqlinline"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 100
)

// HistoryRepositoryPG records campaign runs and their platform renders in
// PostgreSQL.
type HistoryRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewHistoryRepository constructs a history repository on top of the SQL runner.
func NewHistoryRepository(sql infra.SQLExecutor) *HistoryRepositoryPG {
	return &HistoryRepositoryPG{sql: sql}
}

// EnsureSchema creates the history tables when they are missing.
func (r *HistoryRepositoryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QEnsureSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// StartRun inserts a run in the running state.
func (r *HistoryRepositoryPG) StartRun(ctx context.Context, run domain.Run) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QInsertRun, run.ID, run.Context, run.HasReference, run.Locale, run.Backend); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordRender appends one render outcome to its run.
func (r *HistoryRepositoryPG) RecordRender(ctx context.Context, o domain.RenderOutcome) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertRender,
		o.RunID, string(o.Platform), string(o.Status), o.Prompt, o.MimeType, int64(o.Bytes), o.DurationMS)
	if err != nil {
		return fmt.Errorf("insert render: %w", err)
	}
	return nil
}

// FinishRun stamps the final status and style seed.
func (r *HistoryRepositoryPG) FinishRun(ctx context.Context, runID, status, styleSeed string) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QFinishRun, runID, status, styleSeed); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first, each with its renders.
func (r *HistoryRepositoryPG) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = defaultRunLimit
	}
	if limit > maxRunLimit {
		limit = maxRunLimit
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListRuns, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var (
			run      domain.Run
			finished *time.Time
		)
		if err := rows.Scan(&run.ID, &run.Context, &run.HasReference, &run.Locale, &run.Backend, &run.Status, &run.StyleSeed, &run.CreatedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.FinishedAt = finished
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	rows.Close()

	for i := range runs {
		renders, err := r.listRenders(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Renders = renders
	}
	return runs, nil
}

func (r *HistoryRepositoryPG) listRenders(ctx context.Context, runID string) ([]domain.RenderOutcome, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListRendersByRun, runID)
	if err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	defer rows.Close()

	var out []domain.RenderOutcome
	for rows.Next() {
		var (
			o        domain.RenderOutcome
			platform string
			status   string
			bytes    int64
		)
		if err := rows.Scan(&platform, &status, &o.Prompt, &o.MimeType, &bytes, &o.DurationMS, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan render: %w", err)
		}
		o.RunID = runID
		o.Platform = domain.PlatformKey(platform)
		o.Status = domain.AssetStatus(status)
		o.Bytes = int(bytes)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	return out, nil
}
