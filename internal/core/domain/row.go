package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ResourceKey is the synthesized column holding the first hyperlink target of a row.
const ResourceKey = "resource"

type Field struct {
	Name  string
	Value string
}

// Row is one record extracted from a Markdown table. Fields keep the
// header order; setting an existing name updates it in place.
type Row struct {
	fields []Field
}

func NewRow(header, cells []string) Row {
	r := Row{fields: make([]Field, 0, len(header))}
	for i, name := range header {
		r.Set(name, cells[i])
	}
	return r
}

func (r *Row) Set(name, value string) {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields[i].Value = value
			return
		}
	}
	r.fields = append(r.fields, Field{Name: name, Value: value})
}

func (r Row) Get(name string) (string, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Fields returns a copy of the row's fields in column order.
func (r Row) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

func (r Row) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Name
	}
	return keys
}

func (r Row) Len() int {
	return len(r.fields)
}

func (r Row) Resource() string {
	return OptionalField(r, ResourceKey)
}

// MarshalJSON writes the row as a flat object in column order. HTML
// characters are written literally.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, f.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONString(&buf, f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("row: expected object, got %v", tok)
	}

	r.fields = nil
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name := tok.(string)

		tok, err = dec.Token()
		if err != nil {
			return err
		}
		value, ok := tok.(string)
		if !ok {
			return fmt.Errorf("row: column %q: value must be a string, got %T", name, tok)
		}
		r.Set(name, value)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

func (r Row) String() string {
	parts := make([]string, len(r.fields))
	for i, f := range r.fields {
		parts[i] = f.Name + "=" + f.Value
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
