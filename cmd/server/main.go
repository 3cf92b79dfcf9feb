package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/boqmatch/internal/backend"
	"github.com/agenthands/boqmatch/internal/config"
	"github.com/agenthands/boqmatch/internal/core"
	"github.com/agenthands/boqmatch/internal/core/catalog"
	"github.com/agenthands/boqmatch/internal/refresh"
	"github.com/agenthands/boqmatch/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open catalog backend", "source", cfg.Catalog.Source, "error", err)
		os.Exit(1)
	}
	defer b.Close(context.Background())

	ix := catalog.NewIndex()
	refresher := refresh.New(b.Source, ix, logger)
	if _, err := refresher.Refresh(ctx); err != nil {
		// The server still starts; pipeline calls answer 503 until a
		// refresh succeeds.
		logger.Warn("initial catalog load failed", "error", err)
	}
	if cfg.Catalog.RefreshCron != "" {
		if err := refresher.Start(cfg.Catalog.RefreshCron); err != nil {
			logger.Error("failed to schedule catalog refresh", "error", err)
			os.Exit(1)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	pipeline := core.NewPipeline(ix, cfg, logger)
	srv := server.NewServer(pipeline, refresher, cfg.Server, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port, "catalog_source", cfg.Catalog.Source)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	refresher.Stop(shutdownCtx)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
