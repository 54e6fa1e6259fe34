package handler

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spendlog/spendlog/internal/metrics"
	"github.com/spendlog/spendlog/internal/middleware"
)

// RouterConfig collects what NewRouter wires together.
type RouterConfig struct {
	Logger   *slog.Logger
	Auth     *AuthHandler
	Expenses *ExpenseHandler
	Health   *HealthHandler
	Metrics  *MetricsHandler

	Verifier  middleware.Verifier
	RateLimit middleware.RateLimitConfig
	Security  middleware.SecurityConfig
	CORS      middleware.CORSConfig
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RateLimit.Logger == nil {
		cfg.RateLimit.Logger = logger
	}
	if cfg.RateLimit.Metrics == nil {
		cfg.RateLimit.Metrics = metrics.NewNoop()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.Security.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.Security.MaxRequestBodySize))
	}

	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Healthz)
		r.Get("/readyz", cfg.Health.Readyz)
	}
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Metrics)
	}

	requireAuth := middleware.Auth(middleware.AuthConfig{
		Logger:   logger,
		Verifier: cfg.Verifier,
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitAuth(cfg.RateLimit))
			r.Post("/register", cfg.Auth.Register)
			r.Post("/login", cfg.Auth.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RateLimitAPI(cfg.RateLimit))

			r.Get("/profile", cfg.Auth.Profile)

			r.Route("/expenses", func(r chi.Router) {
				r.Get("/", cfg.Expenses.List)
				r.Post("/", cfg.Expenses.Create)
				r.Get("/summary", cfg.Expenses.Summary)
				r.Put("/{id}", cfg.Expenses.Update)
				r.Delete("/{id}", cfg.Expenses.Delete)
			})
		})
	})

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	return r
}
