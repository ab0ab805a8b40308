package exporter

import (
	"fmt"
	"strings"

	"github.com/hive-corporation/md2stix/internal/core/domain"
	"github.com/hive-corporation/md2stix/internal/core/ports"
)

// Column names read from a row.
const (
	ColumnHash      = "Hash"
	ColumnType      = "Type"
	ColumnName      = "Name"
	ColumnFirstSeen = "First_Seen"
)

// STIXExporter maps table rows to STIX 2.1 file indicators and bundles them.
type STIXExporter struct {
	clock ports.Clock
	ids   ports.IDGenerator
}

func NewSTIXExporter(clock ports.Clock, ids ports.IDGenerator) *STIXExporter {
	return &STIXExporter{clock: clock, ids: ids}
}

// Export converts every row and wraps the result in a bundle, keeping row order.
func (e *STIXExporter) Export(rows []domain.Row) domain.Bundle {
	indicators := make([]domain.Indicator, 0, len(rows))
	for _, row := range rows {
		indicators = append(indicators, e.ConvertRow(row))
	}
	return e.Bundle(indicators)
}

// Bundle wraps indicators in supplied order. An empty input still yields
// an empty objects array.
func (e *STIXExporter) Bundle(indicators []domain.Indicator) domain.Bundle {
	objects := make([]domain.Indicator, len(indicators))
	copy(objects, indicators)

	return domain.Bundle{
		Type:        "bundle",
		ID:          fmt.Sprintf("bundle--%s", e.ids.NewID()),
		SpecVersion: domain.STIXSpecVersion,
		Objects:     objects,
	}
}

func (e *STIXExporter) ConvertRow(row domain.Row) domain.Indicator {
	hashVal := domain.OptionalField(row, ColumnHash)
	nameVal := domain.OptionalField(row, ColumnName)
	hash := domain.InferHash(domain.OptionalField(row, ColumnType), hashVal)

	label := nameVal
	if label == "" {
		label = hashVal
	}

	indicator := domain.Indicator{
		Type:        "indicator",
		SpecVersion: domain.STIXSpecVersion,
		ID:          fmt.Sprintf("indicator--%s", e.ids.NewID()),
		Created:     domain.FormatTimestamp(e.clock.Now()),
		Modified:    domain.FormatTimestamp(e.clock.Now()),
		Name:        label,
		Description: fmt.Sprintf("File indicator for %s", label),
		Pattern:     buildPattern(hash, nameVal),
		PatternType: domain.PatternTypeSTIX,
		ValidFrom:   e.validFrom(domain.OptionalField(row, ColumnFirstSeen)),
	}

	if resource := row.Resource(); resource != "" {
		indicator.ExternalReferences = []domain.ExternalReference{
			{SourceName: domain.ResourceKey, URL: resource},
		}
	}

	return indicator
}

func buildPattern(hash domain.HashDescriptor, name string) string {
	if hash.Usable() {
		return domain.HashPattern(hash)
	}
	return domain.NamePattern(name)
}

// validFrom trusts First_Seen only when it looks like a timestamp with a
// time part; the value is passed through, not parsed.
func (e *STIXExporter) validFrom(firstSeen string) string {
	if firstSeen != "" && strings.Contains(firstSeen, "T") {
		return firstSeen + "Z"
	}
	return domain.FormatTimestamp(e.clock.Now())
}

// PatternKind reports "hash" or "name" for metrics and CEF signature ids.
func PatternKind(indicator domain.Indicator) string {
	if strings.HasPrefix(indicator.Pattern, "[file:hashes.") {
		return "hash"
	}
	return "name"
}
