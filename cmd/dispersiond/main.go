package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/chem-dispersion-service/internal/adapter/cameo"
	httpadapter "github.com/couchcryptid/chem-dispersion-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/chem-dispersion-service/internal/adapter/kafka"
	"github.com/couchcryptid/chem-dispersion-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/chem-dispersion-service/internal/adapter/sqlite"
	"github.com/couchcryptid/chem-dispersion-service/internal/config"
	"github.com/couchcryptid/chem-dispersion-service/internal/dispersion"
	"github.com/couchcryptid/chem-dispersion-service/internal/observability"
	"github.com/couchcryptid/chem-dispersion-service/internal/orchestrator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}

	weather := openmeteo.NewClient(cfg.WeatherBaseURL, cfg.WeatherTimeout, logger)
	chemicals := cameo.NewCachedDirectory(
		cameo.NewClient(cfg.ChemicalBaseURL, cfg.ChemicalTimeout, logger),
		cfg.ChemicalCacheTTL,
		metrics,
	)
	publisher := kafkaadapter.NewPublisher(cfg, logger)
	solver := dispersion.NewSolver(logger)

	orch := orchestrator.New(
		weather,
		chemicals,
		store,
		store,
		publisher,
		solver,
		logger,
		metrics,
		clockwork.NewRealClock(),
		cfg.UpdateInterval,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, orch, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start recalculation loop.
	go func() {
		if err := orch.Run(ctx); err != nil {
			logger.Error("orchestrator error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka publisher close error", "error", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("shutdown complete")
}
