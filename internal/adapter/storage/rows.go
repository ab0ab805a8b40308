package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/hive-corporation/md2stix/internal/core/domain"
)

// rowsSchema describes the intermediate artifact: an array of flat objects
// whose values are all strings.
const rowsSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "array",
	"items": {
		"type": "object",
		"additionalProperties": {"type": "string"}
	}
}`

var compiledRowsSchema = jsonschema.MustCompileString("rows.schema.json", rowsSchema)

// ReadRows loads an intermediate JSON file. Files that are not an array of
// string-valued objects are rejected before decoding.
func ReadRows(path string) ([]domain.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeRows(data)
}

func DecodeRows(data []byte) ([]domain.Row, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := compiledRowsSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("unexpected row layout: %w", err)
	}

	rows := []domain.Row{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}
	return rows, nil
}
