package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

var ErrInvalidUTF8 = errors.New("document is not valid UTF-8")

// FindFiles walks root and returns the paths accepted by match, sorted.
func FindFiles(root string, match func(name string) bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !match(d.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// IsMarkdownDocument accepts *.md files except README.md in any case.
func IsMarkdownDocument(name string) bool {
	return strings.HasSuffix(name, ".md") && strings.ToLower(name) != "readme.md"
}

func IsJSONDocument(name string) bool {
	return strings.HasSuffix(name, ".json")
}

// MirrorPath maps path under srcRoot to the same relative location under
// dstRoot, replacing the final extension with newExt.
func MirrorPath(srcRoot, path, dstRoot, newExt string) (string, error) {
	rel, err := filepath.Rel(srcRoot, path)
	if err != nil {
		return "", fmt.Errorf("failed to relativize %s: %w", path, err)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + newExt
	return filepath.Join(dstRoot, rel), nil
}

// ReadLines loads a UTF-8 document and splits it into lines.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return SplitLines(data)
}

func SplitLines(data []byte) ([]string, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}
	return strings.Split(string(data), "\n"), nil
}

// WriteJSON writes v with two-space indentation, HTML characters unescaped
// and no trailing newline, creating parent directories as needed.
// Existing files are overwritten.
func WriteJSON(path string, v any) error {
	// MkdirAll returns nil when another worker created the directory first.
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	data, err := EncodeJSON(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
