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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/LegislAI/legislai-be-sub000/internal/adapter/httpapi"
	"github.com/LegislAI/legislai-be-sub000/internal/di"
	"github.com/LegislAI/legislai-be-sub000/internal/infra"
	"github.com/LegislAI/legislai-be-sub000/internal/infra/config"
	"github.com/LegislAI/legislai-be-sub000/internal/infra/logger"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()

	if cfg.Telemetry.Enabled {
		shutdown, err := infra.SetupTelemetry(ctx, "legislai-retrieval", cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Error("telemetry setup failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	log := logger.New(cfg.Telemetry.Enabled)
	slog.SetDefault(log)

	pool, err := infra.NewPostgresDB(ctx, cfg.DB.DSN(), infra.PoolConfig{MaxConns: cfg.DB.MaxConns})
	if err != nil {
		log.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	components, err := di.NewApplicationComponents(cfg, pool, log)
	if err != nil {
		log.Error("failed to wire components", "error", err)
		os.Exit(1)
	}

	if err := components.VectorIndex.CreateIfAbsent(ctx, cfg.Embedding.DenseDim); err != nil {
		log.Error("failed to provision vector index", "error", err)
		os.Exit(1)
	}
	if err := components.JobRepo.EnsureSchema(ctx); err != nil {
		log.Error("failed to provision job table", "error", err)
		os.Exit(1)
	}

	if cfg.Worker.Enabled {
		components.Worker.Start()
		defer components.Worker.Stop()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	handler := httpapi.NewHandler(
		components.RetrieveUsecase,
		components.AnswerUsecase,
		components.JobRepo,
		func(c echo.Context) error {
			return pool.Ping(c.Request().Context())
		},
	)
	handler.Register(e)

	go func() {
		addr := ":" + cfg.Port
		log.Info("server_starting", slog.String("addr", addr), slog.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
