package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/hive-corporation/md2stix/internal/adapter/exporter"
	"github.com/hive-corporation/md2stix/internal/adapter/extractor"
	"github.com/hive-corporation/md2stix/internal/adapter/metrics"
	"github.com/hive-corporation/md2stix/internal/adapter/repository"
	"github.com/hive-corporation/md2stix/internal/config"
	"github.com/hive-corporation/md2stix/internal/core/ports"
	"github.com/hive-corporation/md2stix/internal/logging"
	"github.com/hive-corporation/md2stix/internal/pipeline"
)

func main() {
	stage := flag.String("stage", "all", "Stages to run: all, json, stix")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.Init(cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
	metrics.InitMetrics()

	if *stage != "all" && *stage != "json" && *stage != "stix" {
		log.Fatalf("❌ Unknown stage %q (use all, json or stix)", *stage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, cfg, *stage, logger)

	if cfg.MetricsFile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.Error("Failed to write metrics file", "path", cfg.MetricsFile, "error", werr)
		}
	}

	if err != nil {
		logger.Error("Conversion aborted", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, stage string, logger *slog.Logger) error {
	if stage == "all" || stage == "json" {
		ext, err := extractor.New(cfg.Pipeline.TableMode, cfg.Pipeline.HeaderMode)
		if err != nil {
			return err
		}

		summary, err := pipeline.NewMarkdownStage(ext, cfg.Pipeline.Workers, logger).
			Run(ctx, cfg.Pipeline.MarkdownRoot, cfg.Pipeline.JSONRoot)
		if err != nil {
			return err
		}
		logger.Info("Markdown stage finished", "converted", summary.Converted, "skipped", summary.Skipped)
	}

	if stage == "all" || stage == "stix" {
		var repo ports.IndicatorRepository
		if cfg.DatabaseURL != "" {
			dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer dbPool.Close()

			pgRepo := repository.NewPostgresRepository(dbPool)
			if err := pgRepo.EnsureSchema(ctx); err != nil {
				return err
			}
			repo = pgRepo
			logger.Info("Indicator persistence enabled")
		}

		summary, err := pipeline.NewSTIXStage(exporter.NewDefaultSTIXExporter(), repo, logger).
			Run(ctx, cfg.Pipeline.JSONRoot, cfg.Pipeline.STIXRoot)
		if err != nil {
			return err
		}
		logger.Info("STIX stage finished", "converted", summary.Converted, "skipped", summary.Skipped)
	}

	return nil
}
