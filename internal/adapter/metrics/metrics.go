package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage labels.
const (
	StageMarkdown = "markdown"
	StageSTIX     = "stix"
)

// Outcome labels.
const (
	OutcomeConverted = "converted"
	OutcomeSkipped   = "skipped"
)

var (
	// metricsOnce ensures metrics are registered only once
	metricsOnce sync.Once

	// Registry holds every md2stix metric; it backs /metrics and the textfile export.
	Registry = prometheus.NewRegistry()

	// documentsTotal tracks processed documents by stage and outcome
	documentsTotal *prometheus.CounterVec

	// documentDuration tracks per-document processing time by stage
	documentDuration *prometheus.HistogramVec

	// rowsExtractedTotal tracks rows produced by table extraction
	rowsExtractedTotal prometheus.Counter

	// indicatorsTotal tracks emitted indicators by pattern kind (hash, name)
	indicatorsTotal *prometheus.CounterVec
)

// InitMetrics registers all metrics on Registry.
// Safe to call more than once.
func InitMetrics() {
	metricsOnce.Do(func() {
		factory := promauto.With(Registry)

		documentsTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "md2stix_documents_total",
				Help: "Total number of documents processed by stage and outcome",
			},
			[]string{"stage", "outcome"},
		)

		documentDuration = factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "md2stix_document_duration_seconds",
				Help:    "Duration of per-document processing in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"stage"},
		)

		rowsExtractedTotal = factory.NewCounter(
			prometheus.CounterOpts{
				Name: "md2stix_rows_extracted_total",
				Help: "Total number of table rows extracted from Markdown documents",
			},
		)

		indicatorsTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "md2stix_indicators_total",
				Help: "Total number of STIX indicators emitted by pattern kind",
			},
			[]string{"kind"},
		)
	})
}

// RecordDocument records one processed document
func RecordDocument(stage, outcome string) {
	if documentsTotal != nil {
		documentsTotal.WithLabelValues(stage, outcome).Inc()
	}
}

func RecordDocumentDuration(stage string, duration time.Duration) {
	if documentDuration != nil {
		documentDuration.WithLabelValues(stage).Observe(duration.Seconds())
	}
}

func RecordRows(n int) {
	if rowsExtractedTotal != nil {
		rowsExtractedTotal.Add(float64(n))
	}
}

// RecordIndicator records an emitted indicator
// kind: "hash", "name"
func RecordIndicator(kind string) {
	if indicatorsTotal != nil {
		indicatorsTotal.WithLabelValues(kind).Inc()
	}
}

// WriteTextfile dumps Registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}

// DocumentTimer is a helper for timing per-document work
type DocumentTimer struct {
	stage string
	start time.Time
}

func StartTimer(stage string) *DocumentTimer {
	return &DocumentTimer{stage: stage, start: time.Now()}
}

// ObserveDuration records the elapsed time since the timer started
func (t *DocumentTimer) ObserveDuration() {
	if t != nil {
		RecordDocumentDuration(t.stage, time.Since(t.start))
	}
}
