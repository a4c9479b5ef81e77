package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
)

const (
	version         = "1.0.0"
	dataLoadTimeout = 30 * time.Second
)

// newHandler serves the dashboard routes behind the middleware stack.
// Recovery is outermost so panics in any later layer are caught.
func newHandler(cfg *config.Config, analytics *services.Analytics, logger *slog.Logger) http.Handler {
	limiter := middleware.NewRateLimiter(cfg.Security)

	return middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(limiter, logger),
	)(server.NewServer(analytics, logger))
}

// warmUp reads the workbook once so a malformed sheet stops startup
// instead of surfacing on the first request.
func warmUp(loader *dataset.Loader, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), dataLoadTimeout)
	defer cancel()

	start := time.Now()
	table, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load sales data: %w", err)
	}
	logger.Info("sales data loaded",
		"file", loader.Path(),
		"sheet", table.Sheet,
		"records", table.Len(),
		"duration", time.Since(start),
	)
	return nil
}

func run(cfg *config.Config, logger *slog.Logger) error {
	loader := dataset.NewLoader(cfg.Dataset.File, logger)
	if err := warmUp(loader, logger); err != nil {
		return err
	}

	analytics := services.NewAnalytics(loader)

	gs := server.NewGracefulServer(&http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, logger, cfg)

	gs.RegisterShutdownHook(func(context.Context) error {
		logger.Info("releasing sales table", "reads", loader.Reads())
		loader.Reset()
		return nil
	})

	return gs.ListenAndServe()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("sales dashboard starting", "version", version, "addr", cfg.Address())

	if err := run(cfg, logger); err != nil {
		logger.Error("sales dashboard stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("sales dashboard stopped")
}
