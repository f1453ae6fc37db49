package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"styleai/internal/http/handlers"
	"styleai/internal/middleware"
	"styleai/internal/ratelimit"
)

type Options struct {
	JWTSecret         string
	CORSOrigins       []string
	IPRateLimitPerMin int
	CountryLookup     middleware.CountryLookup
	Clock             ratelimit.Clock
	Logger            zerolog.Logger
	Tracing           bool
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
		middleware.I18N("en", opts.CountryLookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/styles", app.Styles)
	r.Get("/v1/rate-limit", app.RateLimitStatus)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))

		r.Route("/v1/images", func(r chi.Router) {
			r.With(ipLimit(opts)).Post("/enhance", app.EnhanceImage)
			r.Get("/", app.ListImages)
			r.Get("/archive", app.ArchiveImages)
			r.Get("/{id}", app.GetImage)
			r.Get("/{id}/download", app.DownloadImage)
		})

		r.Route("/v1/prompts", func(r chi.Router) {
			r.Post("/", app.CreatePrompt)
			r.Get("/", app.ListPrompts)
			r.Put("/{id}", app.UpdatePrompt)
			r.Delete("/{id}", app.DeletePrompt)
		})
	})

	if opts.Tracing {
		return otelhttp.NewHandler(r, "styleai.http")
	}
	return r
}

func ipLimit(opts Options) func(http.Handler) http.Handler {
	if opts.IPRateLimitPerMin <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimit(opts.IPRateLimitPerMin, time.Minute, opts.Clock)
}
