package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"brandkit/internal/domain"
	"brandkit/internal/infra"
	"brandkit/internal/pipeline"
	"brandkit/internal/state"
	"brandkit/internal/storage"
)

// HistoryReader lists recorded runs.
type HistoryReader interface {
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)
}

// App carries the dependencies shared by every handler.
type App struct {
	Config   *infra.Config
	Pipeline *pipeline.Pipeline
	Store    *state.Store
	History  HistoryReader
	Files    *storage.FileStore
	Logger   *infra.Logger
	Backend  string

	// BaseCtx outlives single requests; background renders run under it.
	BaseCtx context.Context
	Now     func() time.Time
}

func NewApp(cfg *infra.Config, p *pipeline.Pipeline, logger *infra.Logger) *App {
	return &App{
		Config:   cfg,
		Pipeline: p,
		Store:    p.Store(),
		Logger:   infra.OrDiscard(logger),
		BaseCtx:  context.Background(),
		Now:      time.Now,
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, msg string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = msg
	a.json(w, status, body)
}

// log prefers the request scoped logger set by the access log middleware.
func (a *App) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return a.Logger
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
