package exporter

import (
	"fmt"
	"strings"

	"github.com/hive-corporation/md2stix/internal/core/domain"
)

// CEFExporter renders indicators in Common Event Format for SIEM ingestion
type CEFExporter struct{}

func NewCEFExporter() *CEFExporter {
	return &CEFExporter{}
}

// Export writes one CEF line per indicator, in order.
// Format: CEF:Version|Device Vendor|Device Product|Device Version|Signature ID|Name|Severity|Extension
func (e *CEFExporter) Export(indicators []domain.Indicator) string {
	var output strings.Builder
	for _, indicator := range indicators {
		output.WriteString(e.formatCEF(indicator))
		output.WriteString("\n")
	}
	return output.String()
}

func (e *CEFExporter) formatCEF(indicator domain.Indicator) string {
	vendor := "Hive"
	product := "md2stix"
	version := "1.0"
	kind := PatternKind(indicator)
	signatureID := "file-" + kind
	name := escapeHeader(indicator.Description)
	severity := calculateSeverity(kind)

	extensions := []string{
		fmt.Sprintf("externalId=%s", escapeField(indicator.ID)),
		"cs1Label=Pattern",
		fmt.Sprintf("cs1=%s", escapeField(indicator.Pattern)),
		"cs2Label=ValidFrom",
		fmt.Sprintf("cs2=%s", escapeField(indicator.ValidFrom)),
		fmt.Sprintf("fname=%s", escapeField(indicator.Name)),
	}
	if len(indicator.ExternalReferences) > 0 {
		extensions = append(extensions,
			"cs3Label=Resource",
			fmt.Sprintf("cs3=%s", escapeField(indicator.ExternalReferences[0].URL)),
		)
	}

	return fmt.Sprintf("CEF:0|%s|%s|%s|%s|%s|%d|%s",
		vendor, product, version, signatureID, name, severity, strings.Join(extensions, " "))
}

// A hash match is a stronger signal than a file name match.
func calculateSeverity(kind string) int {
	if kind == "hash" {
		return 8
	}
	return 5
}

func escapeField(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "=", "\\=")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}

// Header fields only escape backslash and pipe.
func escapeHeader(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	return strings.ReplaceAll(s, "|", "\\|")
}
