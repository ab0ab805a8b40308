package exporter

import (
	"strings"
	"testing"

	"github.com/hive-corporation/md2stix/internal/core/domain"
)

func TestCEFExporter_Export(t *testing.T) {
	e, _ := newTestExporter()
	indicators := []domain.Indicator{
		e.ConvertRow(row("Hash", strings.Repeat("c", 64), "Name", "evil.exe", "resource", "https://r.example/a=b")),
		e.ConvertRow(row("Name", "notes|final.txt")),
	}

	out := NewCEFExporter().Export(indicators)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 CEF lines, got %d", len(lines))
	}

	if !strings.HasPrefix(lines[0], "CEF:0|Hive|md2stix|1.0|file-hash|File indicator for evil.exe|8|") {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[0], `cs3=https://r.example/a\=b`) {
		t.Errorf("Expected escaped resource, got %s", lines[0])
	}
	if !strings.Contains(lines[1], "|file-name|") || !strings.Contains(lines[1], "|5|") {
		t.Errorf("Expected name signature with severity 5, got %s", lines[1])
	}
	if !strings.Contains(lines[1], `File indicator for notes\|final.txt`) {
		t.Errorf("Expected escaped pipe in header, got %s", lines[1])
	}
	if strings.Contains(lines[1], "cs3Label") {
		t.Errorf("Expected no resource extension, got %s", lines[1])
	}
}

func TestEscapeField(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`a\b`, `a\\b`},
		{"a|b", `a\|b`},
		{"a=b", `a\=b`},
		{"a\nb", `a\nb`},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := escapeField(tt.input); got != tt.expected {
			t.Errorf("escapeField(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
