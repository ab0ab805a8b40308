package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/hive-corporation/md2stix/internal/adapter/metrics"
	"github.com/hive-corporation/md2stix/internal/adapter/storage"
	"github.com/hive-corporation/md2stix/internal/core/domain"
	"github.com/hive-corporation/md2stix/internal/core/ports"
)

const defaultWorkers = 8

// Summary counts per-document outcomes of one stage run.
type Summary struct {
	Found     int
	Converted int
	Skipped   int
}

// MarkdownStage converts a tree of Markdown documents into row arrays.
type MarkdownStage struct {
	extractor ports.TableExtractor
	workers   int
	logger    *slog.Logger
}

func NewMarkdownStage(extractor ports.TableExtractor, workers int, logger *slog.Logger) *MarkdownStage {
	if workers < 1 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MarkdownStage{extractor: extractor, workers: workers, logger: logger}
}

// documentResult carries the rows of one document; rows is nil when the
// document failed to parse.
type documentResult struct {
	path string
	rows []domain.Row
}

// Run parses every Markdown document under srcRoot and writes one JSON file
// per document under dstRoot. Parse failures skip the document; write
// failures abort the run.
func (s *MarkdownStage) Run(ctx context.Context, srcRoot, dstRoot string) (Summary, error) {
	files, err := storage.FindFiles(srcRoot, storage.IsMarkdownDocument)
	if err != nil {
		return Summary{}, err
	}
	s.logger.Info(fmt.Sprintf("Found %d markdown files in %s", len(files), srcRoot),
		"extractor", s.extractor.Name(), "workers", s.workers)

	if err := os.MkdirAll(dstRoot, 0o755); err != nil {
		return Summary{}, fmt.Errorf("failed to create output root %s: %w", dstRoot, err)
	}

	results := make(chan documentResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	go func() {
		defer close(results)
		for _, path := range files {
			if gctx.Err() != nil {
				break
			}
			path := path
			g.Go(func() error {
				results <- documentResult{path: path, rows: s.parse(path)}
				return nil
			})
		}
		_ = g.Wait()
	}()

	summary := Summary{Found: len(files)}
	var writeErr error

	for res := range results {
		if writeErr != nil {
			continue
		}
		if err := s.collect(srcRoot, dstRoot, res, &summary); err != nil {
			writeErr = err
		}
	}

	if writeErr != nil {
		return summary, writeErr
	}
	return summary, ctx.Err()
}

// parse reads and extracts one document. Any failure, including a panic in
// the extractor, is logged and reported as nil rows.
func (s *MarkdownStage) parse(path string) (rows []domain.Row) {
	timer := metrics.StartTimer(metrics.StageMarkdown)
	defer timer.ObserveDuration()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(fmt.Sprintf("Failed to parse %s: %v", path, r))
			rows = nil
		}
	}()

	lines, err := storage.ReadLines(path)
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to parse %s: %v", path, err))
		return nil
	}

	rows, err = s.extractor.Extract(lines)
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to parse %s: %v", path, err))
		return nil
	}
	if rows == nil {
		rows = []domain.Row{}
	}
	return rows
}

func (s *MarkdownStage) collect(srcRoot, dstRoot string, res documentResult, summary *Summary) error {
	rel := relativeTo(srcRoot, res.path)

	if res.rows == nil {
		s.logger.Warn(fmt.Sprintf("Skipped %s due to errors", rel))
		metrics.RecordDocument(metrics.StageMarkdown, metrics.OutcomeSkipped)
		summary.Skipped++
		return nil
	}

	out, err := storage.MirrorPath(srcRoot, res.path, dstRoot, ".json")
	if err != nil {
		return err
	}
	if err := storage.WriteJSON(out, res.rows); err != nil {
		return err
	}

	s.logger.Info(fmt.Sprintf("Converted %s -> %s", rel, relativeTo(dstRoot, out)))
	metrics.RecordDocument(metrics.StageMarkdown, metrics.OutcomeConverted)
	metrics.RecordRows(len(res.rows))
	summary.Converted++
	return nil
}

func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
