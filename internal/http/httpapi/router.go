package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"brandkit/internal/http/handlers"
	"brandkit/internal/infra"
	"brandkit/internal/middleware"
)

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	Logger          infra.Logger
	CORSOrigins     []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	// Health
	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/platforms", app.Platforms)

	limited := middleware.RateLimit(opts.RateLimitPerMin, time.Minute)

	r.Route("/v1/campaigns", func(r chi.Router) {
		r.With(limited).Post("/", app.CreateCampaign)
		r.Get("/state", app.CampaignState)
		r.Post("/cancel", app.CancelCampaign)
		r.With(limited).Post("/export", app.ExportCampaign)
		r.Get("/bundle", app.Bundle)
		r.Route("/{platform}", func(r chi.Router) {
			r.Get("/image", app.PlatformImage)
			r.With(limited).Post("/regenerate", app.Regenerate)
		})
	})

	r.Get("/v1/runs", app.ListRuns)

	return r
}
