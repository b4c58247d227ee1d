package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/shelfdesk/shelfdesk/internal/config"
	"github.com/shelfdesk/shelfdesk/internal/handler"
	"github.com/shelfdesk/shelfdesk/internal/middleware"
)

// routes holds the handlers and the middleware settings the router mounts.
type routes struct {
	root      *handler.Handler
	health    *handler.HealthHandler
	metrics   *handler.MetricsHandler
	books     *handler.BookHandler
	checkouts *handler.CheckoutHandler
	apiKeys   *handler.APIKeyHandler
	admin     *handler.AdminHandler

	auth      middleware.AuthConfig
	rateLimit middleware.RateLimitConfig
}

func (rt routes) router(cfg *config.Config, logger *slog.Logger) *chi.Mux {
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins()

	r := chi.NewRouter()
	r.Use(
		chimiddleware.RealIP,
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recoverer(logger),
		middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}),
		middleware.CORS(cors),
		middleware.MaxBodySize(cfg.HTTP.MaxBodySize),
	)

	r.Get("/", rt.root.Hello)
	r.Get("/healthz", rt.health.Healthz)
	r.Get("/readyz", rt.health.Readyz)
	r.Get("/metrics", rt.metrics.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(rt.auth), middleware.RateLimitAPI(rt.rateLimit))

		r.Route("/profile/books", func(r chi.Router) {
			r.Use(middleware.RequireRead())
			r.With(middleware.ValidateQuery("author", "text")).Get("/search", rt.books.Search)
			r.Get("/{id}", rt.books.Get)
		})

		r.Route("/profile/checkout", func(r chi.Router) {
			r.With(middleware.RequireRead()).Get("/", rt.checkouts.List)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireWrite())
				r.Post("/", rt.checkouts.Create)
				r.Put("/", rt.checkouts.Checkin)
			})
		})

		r.Route("/api-keys", func(r chi.Router) {
			r.With(middleware.RequireRead()).Get("/", rt.apiKeys.ListAPIKeys)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())
				r.Post("/", rt.apiKeys.CreateAPIKey)
				r.Delete("/{key_id}", rt.apiKeys.RevokeAPIKey)
				r.Post("/{key_id}/rotate", rt.apiKeys.RotateAPIKey)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Post("/books", rt.admin.AddBook)
			r.Put("/books/{id}/amount", rt.admin.SetBookAmount)
			r.Get("/checkouts", rt.admin.ListCheckouts)
			r.Get("/users/{id}", rt.admin.GetUser)
			r.Put("/users/{id}/violations", rt.admin.SetViolations)
			r.Get("/stats", rt.admin.Stats)
		})
	})

	r.NotFound(rt.root.NotFound)
	r.MethodNotAllowed(rt.root.MethodNotAllowed)
	return r
}
