package extractor

import (
	"regexp"
	"strings"

	"github.com/hive-corporation/md2stix/internal/core/domain"
)

// HeaderMode decides when the scanner goes back to looking for a header.
type HeaderMode int

const (
	// SharedHeader keeps the first header for the whole document, so tables
	// separated by prose are read as one logical table.
	SharedHeader HeaderMode = iota
	// PerTable looks for a new header after any non-table line.
	PerTable
)

func ParseHeaderMode(s string) HeaderMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "per-table", "per_table", "pertable":
		return PerTable
	default:
		return SharedHeader
	}
}

type scanState int

const (
	awaitingHeader scanState = iota
	awaitingRows
)

var linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^\)]+)\)`)

// MarkdownExtractor reads pipe tables line by line.
type MarkdownExtractor struct {
	mode HeaderMode
}

func NewMarkdownExtractor(mode HeaderMode) *MarkdownExtractor {
	return &MarkdownExtractor{mode: mode}
}

func (e *MarkdownExtractor) Name() string {
	return "lines"
}

// Extract never fails on well-formed UTF-8 input; the error is part of the
// TableExtractor contract.
func (e *MarkdownExtractor) Extract(lines []string) ([]domain.Row, error) {
	rows := []domain.Row{}
	state := awaitingHeader
	var header []string

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if !isTableLine(line) {
			if e.mode == PerTable {
				state = awaitingHeader
				header = nil
			}
			continue
		}

		cells := splitCells(line)
		if isAlignmentRow(cells) {
			continue
		}

		switch state {
		case awaitingHeader:
			header = cells
			state = awaitingRows
		case awaitingRows:
			if !domain.AcceptRowShape(header, cells) {
				continue
			}
			row := domain.NewRow(header, cells)
			resolveFirstLink(&row)
			rows = append(rows, row)
		}
	}

	return rows, nil
}

func isTableLine(line string) bool {
	return strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|")
}

// splitCells drops the outer delimiters and trims every cell.
func splitCells(line string) []string {
	inner := strings.TrimPrefix(line, "|")
	inner = strings.TrimSuffix(inner, "|")

	parts := strings.Split(inner, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// isAlignmentRow matches separator lines such as |---|:--:|--:|.
func isAlignmentRow(cells []string) bool {
	for _, c := range cells {
		if c == "" || strings.Trim(c, ":-") != "" || !strings.Contains(c, "-") {
			return false
		}
	}
	return len(cells) > 0
}

// resolveFirstLink moves the first [text](url) found in column order into
// the resource column and leaves only the link text in its cell.
func resolveFirstLink(row *domain.Row) {
	for _, f := range row.Fields() {
		m := linkPattern.FindStringSubmatch(f.Value)
		if m == nil {
			continue
		}
		row.Set(domain.ResourceKey, m[2])
		row.Set(f.Name, m[1])
		return
	}
}
