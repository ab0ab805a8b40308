package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hive-corporation/md2stix/internal/adapter/exporter"
	"github.com/hive-corporation/md2stix/internal/adapter/metrics"
	"github.com/hive-corporation/md2stix/internal/adapter/storage"
	"github.com/hive-corporation/md2stix/internal/core/ports"
)

// STIXStage turns intermediate row arrays into STIX bundles, one file at a
// time.
type STIXStage struct {
	exporter *exporter.STIXExporter
	repo     ports.IndicatorRepository // optional
	logger   *slog.Logger
}

func NewSTIXStage(exp *exporter.STIXExporter, repo ports.IndicatorRepository, logger *slog.Logger) *STIXStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &STIXStage{exporter: exp, repo: repo, logger: logger}
}

func (s *STIXStage) Run(ctx context.Context, srcRoot, dstRoot string) (Summary, error) {
	files, err := storage.FindFiles(srcRoot, storage.IsJSONDocument)
	if err != nil {
		return Summary{}, err
	}
	s.logger.Info(fmt.Sprintf("Found %d JSON files in %s", len(files), srcRoot))

	if err := os.MkdirAll(dstRoot, 0o755); err != nil {
		return Summary{}, fmt.Errorf("failed to create output root %s: %w", dstRoot, err)
	}

	summary := Summary{Found: len(files)}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		converted, err := s.convert(ctx, srcRoot, dstRoot, path)
		if err != nil {
			return summary, err
		}
		if converted {
			summary.Converted++
		} else {
			summary.Skipped++
		}
	}

	return summary, nil
}

// convert handles one intermediate file. Undecodable input is skipped;
// only write failures are returned.
func (s *STIXStage) convert(ctx context.Context, srcRoot, dstRoot, path string) (bool, error) {
	timer := metrics.StartTimer(metrics.StageSTIX)
	defer timer.ObserveDuration()

	rel := relativeTo(srcRoot, path)

	rows, err := storage.ReadRows(path)
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to parse %s: %v", path, err))
		s.logger.Warn(fmt.Sprintf("Skipped %s due to errors", rel))
		metrics.RecordDocument(metrics.StageSTIX, metrics.OutcomeSkipped)
		return false, nil
	}

	bundle := s.exporter.Export(rows)

	out, err := storage.MirrorPath(srcRoot, path, dstRoot, ".stix.json")
	if err != nil {
		return false, err
	}
	if err := storage.WriteJSON(out, bundle); err != nil {
		return false, err
	}

	for _, ind := range bundle.Objects {
		metrics.RecordIndicator(exporter.PatternKind(ind))
	}
	metrics.RecordDocument(metrics.StageSTIX, metrics.OutcomeConverted)
	s.logger.Info(fmt.Sprintf("Converted %s -> %s", rel, relativeTo(dstRoot, out)),
		"indicators", len(bundle.Objects))

	if s.repo != nil {
		if err := s.repo.SaveBundle(ctx, rel, bundle); err != nil {
			s.logger.Error(fmt.Sprintf("Failed to save indicators for %s: %v", rel, err))
		}
	}

	return true, nil
}
