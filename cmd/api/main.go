// Command api serves the Shelfdesk HTTP API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shelfdesk/shelfdesk/internal/cache"
	"github.com/shelfdesk/shelfdesk/internal/config"
	"github.com/shelfdesk/shelfdesk/internal/handler"
	"github.com/shelfdesk/shelfdesk/internal/metrics"
	"github.com/shelfdesk/shelfdesk/internal/middleware"
	"github.com/shelfdesk/shelfdesk/internal/repository"
	"github.com/shelfdesk/shelfdesk/internal/server"
	"github.com/shelfdesk/shelfdesk/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("api exited", "error", err)
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

	logger := cfg.Log.NewLogger(os.Stdout).With(slog.String("service", "shelfdesk"))
	slog.SetDefault(logger)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect postgres at %s: %s", redactURL(cfg.DatabaseURL), sanitizeError(err, cfg.DatabaseURL))
	}
	logger.Info("connected to postgres")

	rdb, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		repo.Close()
		return fmt.Errorf("connect redis at %s: %s", redactURL(cfg.RedisURL), sanitizeError(err, cfg.RedisURL))
	}
	logger.Info("connected to redis")

	recorder := metrics.NewInMemory()
	policy := service.Policy{
		MaxBooksAtOnce: cfg.Policy.MaxBooksAtOnce,
		MaxViolations:  cfg.Policy.MaxViolations,
		MaxBorrowDays:  cfg.Policy.MaxBorrowDays,
	}
	catalog := service.NewCatalogService(repo, rdb, cfg.BookCacheTTL, recorder, logger)
	checkouts := service.NewCheckoutService(service.StoreFromRepository(repo), rdb, policy, recorder, logger)
	accounts := service.NewAccountService(repo, logger)

	rt := routes{
		root:      handler.New(),
		health:    handler.NewHealthHandler(repo, rdb),
		metrics:   handler.NewMetricsHandler(recorder),
		books:     handler.NewBookHandler(catalog, logger),
		checkouts: handler.NewCheckoutHandler(checkouts, strings.TrimRight(cfg.BaseURL, "/"), logger),
		apiKeys:   handler.NewAPIKeyHandler(service.NewKeyService(repo, logger), logger),
		admin:     handler.NewAdminHandler(catalog, checkouts, accounts, logger),
		auth: middleware.AuthConfig{
			Logger:      logger,
			Keys:        repo,
			Accounts:    accounts,
			Cache:       rdb,
			MinDuration: middleware.DefaultMinAuthDuration,
			BasicRPS:    cfg.RateLimit.BasicRPS,
			BasicBurst:  cfg.RateLimit.BasicBurst,
		},
		rateLimit: middleware.RateLimitConfig{
			Logger:     logger,
			Limiter:    rdb,
			APIEnabled: cfg.RateLimit.APIEnabled,
		},
	}

	srv := server.New(rt.router(cfg, logger), server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.HTTP.ReadTimeout,
		WriteTimeout:    cfg.HTTP.WriteTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}, logger)
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return rdb.Close()
	})

	logger.Info("starting",
		slog.String("addr", srv.Addr()),
		slog.String("base_url", cfg.BaseURL),
		slog.String("env", cfg.AppEnv),
		slog.Group("policy",
			slog.Int("max_books", policy.MaxBooksAtOnce),
			slog.Int("max_violations", policy.MaxViolations),
			slog.Int("max_borrow_days", policy.MaxBorrowDays),
		),
	)
	return srv.Run(ctx)
}
