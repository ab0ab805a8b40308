package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hive-corporation/md2stix/internal/adapter/exporter"
	"github.com/hive-corporation/md2stix/internal/adapter/metrics"
	"github.com/hive-corporation/md2stix/internal/adapter/storage"
	"github.com/hive-corporation/md2stix/internal/core/domain"
	"github.com/hive-corporation/md2stix/internal/core/ports"
)

// MaxDocumentBytes caps the Markdown body accepted by Convert.
const MaxDocumentBytes = 10 << 20

const (
	defaultCheckLimit = 50
	maxCheckLimit     = 500
)

type RestHandler struct {
	extractor    ports.TableExtractor
	stixExporter *exporter.STIXExporter
	cefExporter  *exporter.CEFExporter
	repo         ports.IndicatorRepository // nil when persistence is disabled
	logger       *slog.Logger
}

func NewRestHandler(extractor ports.TableExtractor, stixExporter *exporter.STIXExporter, repo ports.IndicatorRepository, logger *slog.Logger) *RestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RestHandler{
		extractor:    extractor,
		stixExporter: stixExporter,
		cefExporter:  exporter.NewCEFExporter(),
		repo:         repo,
		logger:       logger,
	}
}

// Health check endpoint
func (h *RestHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "md2stix-api",
	}
	h.writeJSON(w, http.StatusOK, response)
}

// Convert runs both stages in memory on one Markdown document.
// format: "stix" (default), "cef", "json"
func (h *RestHandler) Convert(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "stix"
	}
	if format != "stix" && format != "cef" && format != "json" {
		h.writeError(w, http.StatusBadRequest, "unsupported format (use 'stix', 'cef', or 'json')")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxDocumentBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "document exceeds 10 MiB")
			return
		}
		h.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	rows, err := h.parse(body)
	if err != nil {
		h.logger.Error("Failed to parse uploaded document", "error", err)
		metrics.RecordDocument(metrics.StageMarkdown, metrics.OutcomeSkipped)
		h.writeError(w, http.StatusUnprocessableEntity, "failed to parse document")
		return
	}
	metrics.RecordDocument(metrics.StageMarkdown, metrics.OutcomeConverted)
	metrics.RecordRows(len(rows))

	if format == "json" {
		h.writeJSON(w, http.StatusOK, rows)
		return
	}

	bundle := h.stixExporter.Export(rows)
	metrics.RecordDocument(metrics.StageSTIX, metrics.OutcomeConverted)
	for _, ind := range bundle.Objects {
		metrics.RecordIndicator(exporter.PatternKind(ind))
	}

	if format == "cef" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(h.cefExporter.Export(bundle.Objects))); err != nil {
			h.logger.Error("Error writing CEF response", "error", err)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, bundle)
}

func (h *RestHandler) parse(body []byte) (rows []domain.Row, err error) {
	timer := metrics.StartTimer(metrics.StageMarkdown)
	defer timer.ObserveDuration()

	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, errors.New("extractor panicked")
		}
	}()

	lines, err := storage.SplitLines(body)
	if err != nil {
		return nil, err
	}
	return h.extractor.Extract(lines)
}

// CheckIndicator lists stored indicators whose pattern contains value.
func (h *RestHandler) CheckIndicator(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		h.writeError(w, http.StatusServiceUnavailable, "indicator persistence is not configured")
		return
	}

	value := r.URL.Query().Get("value")
	if value == "" {
		h.writeError(w, http.StatusBadRequest, "missing 'value' parameter")
		return
	}

	limit := defaultCheckLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "invalid 'limit' parameter")
			return
		}
		limit = min(n, maxCheckLimit)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	indicators, err := h.repo.FindContaining(ctx, value, limit)
	if err != nil {
		h.logger.Error("Failed to query indicators", "value", value, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to query indicators")
		return
	}
	if indicators == nil {
		indicators = []domain.Indicator{}
	}

	response := map[string]interface{}{
		"value":      value,
		"exists":     len(indicators) > 0,
		"count":      len(indicators),
		"indicators": indicators,
	}
	h.writeJSON(w, http.StatusOK, response)
}

// Helper functions

func (h *RestHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		h.logger.Error("Error encoding JSON response", "error", err)
	}
}

func (h *RestHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
