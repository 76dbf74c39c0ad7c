package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/grachmannico95/oms-bulk-import/internal/bootstrap"
	"github.com/grachmannico95/oms-bulk-import/internal/config"
	"github.com/grachmannico95/oms-bulk-import/internal/handler"
	"github.com/grachmannico95/oms-bulk-import/internal/server"
	"github.com/grachmannico95/oms-bulk-import/internal/service"
	"github.com/grachmannico95/oms-bulk-import/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.Logging.Level)
	defer log.Sync()

	ctx := context.Background()
	log.Info(ctx, "Starting application")

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal(ctx, "Failed to open store",
			"driver", cfg.Storage.Driver,
			"error", err,
		)
	}
	defer closeStore()

	bus, err := bootstrap.StartEventBus(ctx, cfg, store, log)
	if err != nil {
		log.Fatal(ctx, "Failed to start event bus",
			"error", err,
		)
	}

	orderOpts, skuOpts := bootstrap.ImportOptions(cfg.Import)
	importService := service.NewImportService(store, bus, orderOpts, skuOpts, log)
	log.Info(ctx, "Services initialized")

	jobHandler := handler.NewJobHandler(importService, log)
	templateHandler := handler.NewTemplateHandler(log)
	healthHandler := handler.NewHealthHandler()
	log.Info(ctx, "Handlers initialized")

	srv := server.New(cfg, log, jobHandler, templateHandler, healthHandler)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal(ctx, "Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	log.Info(ctx, "Application started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	// HTTP first so no new job lookups arrive, then drain pending progress events.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "HTTP server shutdown error",
			"error", err,
		)
	}

	if err := bus.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "Event bus shutdown error",
			"error", err,
		)
	}

	log.Info(ctx, "Application stopped gracefully")
}
