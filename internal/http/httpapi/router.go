package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"mediagen/internal/http/handlers"
	"mediagen/internal/middleware"
)

// Options configures the middleware stack.
type Options struct {
	Logger          zerolog.Logger
	AllowedOrigins  []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)

		r.Get("/models", app.Models)
		r.Get("/presets", app.Presets)
		r.Post("/prompts/count", app.CountPrompts)

		r.Route("/credential", func(r chi.Router) {
			r.Get("/", app.CredentialStatus)
			r.Put("/", app.CredentialSave)
			r.Delete("/", app.CredentialClear)
		})

		// Creation routes reach the remote API and are rate limited per IP.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
			r.Post("/images", app.ImagesCreate)
			r.Post("/videos", app.VideosCreate)
			r.Post("/batches", app.BatchesCreate)
		})

		r.Get("/runs/{id}", app.RunGet)
	})

	return r
}
