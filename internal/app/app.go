// Package app assembles the generation pipeline from configuration. Both the
// API server and the CLI build their services here.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"brandkit/internal/adapter/repo"
	"brandkit/internal/domain"
	"brandkit/internal/infra"
	"brandkit/internal/infra/credentials"
	"brandkit/internal/pacing"
	"brandkit/internal/pipeline"
	"brandkit/internal/providers/genai"
	"brandkit/internal/retry"
	"brandkit/internal/state"
)

// NamedBackend is a pipeline backend that reports its name for run history.
type NamedBackend interface {
	pipeline.Backend
	Name() string
}

// HistoryStore records runs and lists them back.
type HistoryStore interface {
	pipeline.Recorder
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)
}

// Services holds everything built from one Config.
type Services struct {
	Config   *infra.Config
	Pool     *pgxpool.Pool
	History  HistoryStore
	sqlite   *repo.HistoryRepositorySQLite
	Backend  NamedBackend
	Store    *state.Store
	Pipeline *pipeline.Pipeline
}

// Build connects the optional database, resolves the Gemini key and wires the
// pipeline. Without DATABASE_URL history falls back to the SQLite file at
// HISTORY_DB_PATH, or is disabled, and the key must come from the environment.
func Build(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (*Services, error) {
	logger = infra.OrDiscard(logger)
	svc := &Services{Config: cfg}

	pool, err := infra.NewDBPool(ctx, cfg)
	switch {
	case errors.Is(err, infra.ErrDatabaseDisabled):
		if cfg.HistoryDBPath == "" {
			logger.Info().Msg("database disabled; run history off")
			break
		}
		local, err := repo.OpenSQLiteHistory(ctx, cfg.HistoryDBPath)
		if err != nil {
			return nil, err
		}
		svc.sqlite = local
		svc.History = local
		logger.Info().Str("path", cfg.HistoryDBPath).Msg("run history in sqlite")
	case err != nil:
		return nil, err
	default:
		svc.Pool = pool
		runner := infra.NewSQLRunner(pool, *logger)
		pg := repo.NewHistoryRepository(runner)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		svc.History = pg
		if cfg.GeminiAPIKey == "" {
			key, err := credentials.NewStore(runner).GeminiAPIKey(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("credentials: failed to read stored gemini key")
			} else if key != "" {
				cfg.GeminiAPIKey = key
				logger.Info().Msg("credentials: using stored gemini key")
			}
		}
	}

	backend, err := NewBackend(cfg, logger)
	if err != nil {
		svc.Close()
		return nil, err
	}
	svc.Backend = backend

	pacer, err := pacing.FromConfig(cfg)
	if err != nil {
		svc.Close()
		return nil, err
	}

	opts := pipeline.Options{
		Retry: retry.Policy{
			MaxAttempts:  cfg.RetryMaxAttempts,
			InitialDelay: cfg.RetryInitialDelay,
			Logger:       logger,
		},
		Pacer:       pacer,
		Logger:      logger,
		BackendName: backend.Name(),
	}
	if svc.History != nil {
		opts.Recorder = svc.History
	}
	svc.Store = state.New()
	svc.Pipeline = pipeline.New(backend, svc.Store, opts)
	return svc, nil
}

// NewBackend returns the Gemini client, or the synthetic backend when no key
// is configured.
func NewBackend(cfg *infra.Config, logger *infra.Logger) (NamedBackend, error) {
	if cfg.SyntheticBackend() {
		logger.Warn().Msg("GEMINI_API_KEY not set; using synthetic backend")
		return genai.NewSynthetic(logger), nil
	}
	return genai.NewClientFromConfig(cfg, logger)
}

// Close releases the database pool or the sqlite handle.
func (s *Services) Close() {
	if s == nil {
		return
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
	if s.sqlite != nil {
		_ = s.sqlite.Close()
	}
}
