package extractor

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/hive-corporation/md2stix/internal/core/domain"
)

// GFMExtractor reads tables through goldmark's GFM table extension. Every
// table brings its own header, and goldmark pads or truncates body rows to
// the header width, so no row is ever dropped for its shape.
type GFMExtractor struct {
	md goldmark.Markdown
}

func NewGFMExtractor() *GFMExtractor {
	return &GFMExtractor{
		md: goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

func (e *GFMExtractor) Name() string {
	return "gfm"
}

func (e *GFMExtractor) Extract(lines []string) ([]domain.Row, error) {
	source := []byte(strings.Join(lines, "\n"))
	doc := e.md.Parser().Parse(text.NewReader(source))

	rows := []domain.Row{}
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		table, ok := n.(*extast.Table)
		if !ok {
			return ast.WalkContinue, nil
		}
		rows = append(rows, tableRows(table, source)...)
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func tableRows(table *extast.Table, source []byte) []domain.Row {
	var header []string
	var rows []domain.Row

	for child := table.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.(type) {
		case *extast.TableHeader:
			header = nil
			for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
				header = append(header, inlineText(cell, source))
			}
		case *extast.TableRow:
			if header == nil {
				continue
			}
			rows = append(rows, bodyRow(header, child, source))
		}
	}
	return rows
}

func bodyRow(header []string, tr ast.Node, source []byte) domain.Row {
	cells := make([]string, 0, len(header))
	resource := ""
	linkColumn := -1

	for cell := tr.FirstChild(); cell != nil; cell = cell.NextSibling() {
		value := inlineText(cell, source)
		if linkColumn < 0 {
			if link := firstLink(cell); link != nil {
				resource = string(link.Destination)
				value = inlineText(link, source)
				linkColumn = len(cells)
			}
		}
		cells = append(cells, value)
	}
	for len(cells) < len(header) {
		cells = append(cells, "")
	}

	row := domain.NewRow(header, cells)
	if linkColumn >= 0 {
		row.Set(domain.ResourceKey, resource)
		// re-set so a column literally named "resource" still ends with the link text
		row.Set(header[linkColumn], cells[linkColumn])
	}
	return row
}

func firstLink(n ast.Node) *ast.Link {
	var found *ast.Link
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := c.(*ast.Link); ok {
			found = link
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}

// inlineText flattens the inline children of n into plain text.
func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.AutoLink:
			b.Write(v.Label(source))
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
