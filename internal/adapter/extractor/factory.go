package extractor

import (
	"fmt"

	"github.com/hive-corporation/md2stix/internal/core/ports"
)

// New selects a table extractor by mode name: "lines" or "gfm".
// headerMode only applies to the line scanner.
func New(tableMode, headerMode string) (ports.TableExtractor, error) {
	switch tableMode {
	case "lines", "":
		return NewMarkdownExtractor(ParseHeaderMode(headerMode)), nil
	case "gfm":
		return NewGFMExtractor(), nil
	default:
		return nil, fmt.Errorf("unknown table mode %q (use 'lines' or 'gfm')", tableMode)
	}
}
