// Package main is the entrypoint for the Spendlog API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	_ "time/tzdata"

	"github.com/spendlog/spendlog/internal/auth"
	"github.com/spendlog/spendlog/internal/backend"
	"github.com/spendlog/spendlog/internal/cache"
	"github.com/spendlog/spendlog/internal/config"
	"github.com/spendlog/spendlog/internal/handler"
	"github.com/spendlog/spendlog/internal/metrics"
	"github.com/spendlog/spendlog/internal/middleware"
	"github.com/spendlog/spendlog/internal/server"
	"github.com/spendlog/spendlog/internal/service"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := initLogger(cfg)

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store %s: %s", backend.Describe(cfg), backend.SanitizeError(err, cfg.DatabaseURL))
	}
	logger.Info("connected to store", "store", backend.Describe(cfg))

	var (
		cacheClient *cache.Cache
		limiter     middleware.Limiter
		authOpts    []service.AuthOption
	)
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			_ = store.Close()
			return fmt.Errorf("connect to Redis %s: %s", backend.RedactURL(cfg.RedisURL), backend.SanitizeError(err, cfg.RedisURL))
		}
		logger.Info("connected to Redis", "redis_url", backend.RedactURL(cfg.RedisURL))
		authOpts = append(authOpts, service.WithProfileCache(cacheClient))
		if cfg.RateLimitEnabled {
			limiter = cacheClient
		}
	} else {
		logger.Warn("REDIS_URL not set; rate limiting and profile caching disabled")
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret)
	if err != nil {
		return err
	}

	recorder := metrics.NewInMemory()
	authService := service.NewAuthService(store, tokens, recorder, logger, authOpts...)
	expenseService := service.NewExpenseService(store, recorder, logger)

	checks := map[string]handler.HealthChecker{cfg.StoreDriver: store}
	if cacheClient != nil {
		checks["redis"] = cacheClient
	} else {
		checks["redis"] = nil
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	router := handler.NewRouter(handler.RouterConfig{
		Logger:   logger,
		Auth:     handler.NewAuthHandler(authService, logger),
		Expenses: handler.NewExpenseHandler(expenseService, logger),
		Health:   handler.NewHealthHandler(checks),
		Metrics:  handler.NewMetricsHandler(recorder),
		Verifier: tokens,
		RateLimit: middleware.RateLimitConfig{
			Logger:        logger,
			Limiter:       limiter,
			Metrics:       recorder,
			AuthPerMinute: cfg.RateLimitAuthPerMinute,
			AuthBurst:     cfg.RateLimitAuthBurst,
			APIPerMinute:  cfg.RateLimitAPIPerMinute,
			APIBurst:      cfg.RateLimitAPIBurst,
		},
		Security: middleware.SecurityConfig{
			IsDevelopment:      cfg.IsDevelopment(),
			MaxRequestBodySize: cfg.MaxRequestBodySize,
		},
		CORS: cors,
	})

	srv := server.New(router, server.Options{
		Addr:            fmt.Sprintf(":%d", cfg.AppPort),
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("store", func(context.Context) error { return store.Close() })
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error { return cacheClient.Close() })
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store_driver", cfg.StoreDriver,
		"rate_limit", limiter != nil,
	)

	return srv.Run(ctx)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
