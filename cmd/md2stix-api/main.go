package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/hive-corporation/md2stix/internal/adapter/exporter"
	"github.com/hive-corporation/md2stix/internal/adapter/extractor"
	"github.com/hive-corporation/md2stix/internal/adapter/handler"
	"github.com/hive-corporation/md2stix/internal/adapter/metrics"
	"github.com/hive-corporation/md2stix/internal/adapter/repository"
	"github.com/hive-corporation/md2stix/internal/config"
	"github.com/hive-corporation/md2stix/internal/core/ports"
	"github.com/hive-corporation/md2stix/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.Init(cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))

	metrics.InitMetrics()
	logger.Info("Prometheus metrics initialized")

	ext, err := extractor.New(cfg.Pipeline.TableMode, cfg.Pipeline.HeaderMode)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	// Indicator lookups (optional - only if DATABASE_URL configured)
	var repo ports.IndicatorRepository
	if cfg.DatabaseURL != "" {
		dbPool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		defer dbPool.Close()
		repo = repository.NewPostgresRepository(dbPool)
		logger.Info("Indicator lookups enabled")
	} else {
		logger.Warn("Indicator lookups disabled (no DATABASE_URL)")
	}

	restHandler := handler.NewRestHandler(ext, exporter.NewDefaultSTIXExporter(), repo, logger)
	router := handler.NewRouter(restHandler, cfg.API.AuthToken)

	srv := &http.Server{
		Addr:         ":" + cfg.API.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Info("md2stix REST API listening", "port", cfg.API.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	logger.Info("Server stopped gracefully")
}
