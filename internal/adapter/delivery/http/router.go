// Package http exposes the shortener engine over HTTP: the public redirect
// route, the JSON API under /api/v1, Prometheus metrics and the Swagger UI.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vadimbarashkov/shortlink/pkg/middleware/recoverer"
)

// ReservedPaths are the top-level path segments served by routes other than
// the redirect. They must never be handed out as short codes.
var ReservedPaths = []string{"api", "metrics", "swagger", "docs"}

// NewRouter wires the handlers. When gatherer is nil the /metrics route is
// not registered.
func NewRouter(
	logger *httplog.Logger,
	gatherer prometheus.Gatherer,
	allocator urlAllocator,
	resolver urlResolver,
	remover urlRemover,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger))

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.yml")
	})

	h := newURLHandler(allocator, resolver, remover, validator.New())

	r.Get("/{shortCode}", h.redirect)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)

		r.Route("/shorten", func(r chi.Router) {
			r.Post("/", h.shortenURL)

			r.Route("/{shortCode}", func(r chi.Router) {
				r.Get("/", h.resolveShortCode)
				r.Delete("/", h.removeURL)
			})
		})
	})

	return r
}
