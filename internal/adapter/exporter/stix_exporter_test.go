package exporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hive-corporation/md2stix/internal/core/domain"
)

type fixedClock struct {
	t     time.Time
	calls int
}

func (c *fixedClock) Now() time.Time {
	c.calls++
	return c.t
}

type sequenceIDs struct {
	n int
}

func (s *sequenceIDs) NewID() string {
	s.n++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", s.n)
}

func newTestExporter() (*STIXExporter, *fixedClock) {
	clock := &fixedClock{t: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)}
	return NewSTIXExporter(clock, &sequenceIDs{}), clock
}

func row(pairs ...string) domain.Row {
	var r domain.Row
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i], pairs[i+1])
	}
	return r
}

func TestConvertRow_EndToEndExample(t *testing.T) {
	e, _ := newTestExporter()

	ind := e.ConvertRow(row(
		"Hash", "44d88612fea8a8f36de82e1278abb02f",
		"Name", "evil.exe",
		"First_Seen", "2023-01-01T00:00:00",
		"Type", "",
	))

	if ind.Pattern != "[file:hashes.'MD5' = '44d88612fea8a8f36de82e1278abb02f']" {
		t.Errorf("Unexpected pattern: %s", ind.Pattern)
	}
	if ind.ValidFrom != "2023-01-01T00:00:00Z" {
		t.Errorf("Unexpected valid_from: %s", ind.ValidFrom)
	}
	if ind.Name != "evil.exe" || ind.Description != "File indicator for evil.exe" {
		t.Errorf("Unexpected name/description: %q / %q", ind.Name, ind.Description)
	}
	if ind.Type != "indicator" || ind.SpecVersion != "2.1" || ind.PatternType != "stix" {
		t.Errorf("Unexpected envelope fields: %+v", ind)
	}
	if ind.ID != "indicator--00000000-0000-4000-8000-000000000001" {
		t.Errorf("Unexpected id: %s", ind.ID)
	}
	if ind.Created != "2024-05-06T07:08:09Z" || ind.Modified != "2024-05-06T07:08:09Z" {
		t.Errorf("Unexpected timestamps: %s / %s", ind.Created, ind.Modified)
	}
	if ind.ExternalReferences != nil {
		t.Errorf("Expected no external references, got %v", ind.ExternalReferences)
	}
}

func TestConvertRow_TypeLabel(t *testing.T) {
	e, _ := newTestExporter()
	hash := strings.Repeat("a", 32)

	for _, label := range []string{"SHA256", "sha256", "Sha-256"} {
		t.Run(label, func(t *testing.T) {
			ind := e.ConvertRow(row("Hash", hash, "Type", label, "Name", "x"))
			expected := "[file:hashes.'SHA-256' = '" + hash + "']"
			if ind.Pattern != expected {
				t.Errorf("Expected %s, got %s", expected, ind.Pattern)
			}
		})
	}
}

func TestConvertRow_LengthInference(t *testing.T) {
	e, _ := newTestExporter()

	tests := []struct {
		length   int
		expected string
	}{
		{32, "[file:hashes.'MD5' = '%s']"},
		{40, "[file:hashes.'SHA-1' = '%s']"},
		{64, "[file:hashes.'SHA-256' = '%s']"},
		{128, "[file:name = 'sample.bin']"},
		{12, "[file:name = 'sample.bin']"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("len_%d", tt.length), func(t *testing.T) {
			hash := strings.Repeat("b", tt.length)
			ind := e.ConvertRow(row("Hash", hash, "Name", "sample.bin"))

			expected := tt.expected
			if strings.Contains(expected, "%s") {
				expected = fmt.Sprintf(expected, hash)
			}
			if ind.Pattern != expected {
				t.Errorf("Expected %s, got %s", expected, ind.Pattern)
			}
		})
	}
}

func TestConvertRow_MissingFieldsDegrade(t *testing.T) {
	e, clock := newTestExporter()

	ind := e.ConvertRow(row("Hash", "deadbeef"))
	if ind.Name != "deadbeef" {
		t.Errorf("Expected name to fall back to hash, got %q", ind.Name)
	}
	if ind.Description != "File indicator for deadbeef" {
		t.Errorf("Unexpected description: %q", ind.Description)
	}
	if ind.Pattern != "[file:name = '']" {
		t.Errorf("Expected empty name pattern, got %s", ind.Pattern)
	}

	// created, modified and valid_from each read the clock
	if clock.calls != 3 {
		t.Errorf("Expected 3 clock reads, got %d", clock.calls)
	}
	if ind.ValidFrom != "2024-05-06T07:08:09Z" {
		t.Errorf("Expected valid_from to fall back to now, got %s", ind.ValidFrom)
	}

	empty := e.ConvertRow(domain.Row{})
	if empty.Name != "" || empty.Pattern != "[file:name = '']" {
		t.Errorf("Unexpected indicator for empty row: %+v", empty)
	}
}

func TestConvertRow_FirstSeenWithoutTime(t *testing.T) {
	e, _ := newTestExporter()

	ind := e.ConvertRow(row("Name", "x", "First_Seen", "2023-01-01"))
	if ind.ValidFrom != "2024-05-06T07:08:09Z" {
		t.Errorf("Expected date-only First_Seen to be ignored, got %s", ind.ValidFrom)
	}
}

func TestConvertRow_ExternalReferences(t *testing.T) {
	e, _ := newTestExporter()

	with := e.ConvertRow(row("Name", "x", "resource", "https://vt.example/x"))
	if len(with.ExternalReferences) != 1 {
		t.Fatalf("Expected 1 external reference, got %d", len(with.ExternalReferences))
	}
	ref := with.ExternalReferences[0]
	if ref.SourceName != "resource" || ref.URL != "https://vt.example/x" {
		t.Errorf("Unexpected reference: %+v", ref)
	}

	without := e.ConvertRow(row("Name", "x"))
	data, err := json.Marshal(without)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if bytes.Contains(data, []byte("external_references")) {
		t.Errorf("Expected external_references to be omitted, got %s", data)
	}
}

func TestExport_BundleShape(t *testing.T) {
	e, _ := newTestExporter()

	rows := []domain.Row{
		row("Name", "first"),
		row("Name", "second"),
		row("Name", "third"),
	}
	bundle := e.Export(rows)

	if bundle.Type != "bundle" || bundle.SpecVersion != "2.1" {
		t.Errorf("Unexpected bundle envelope: %+v", bundle)
	}
	if !strings.HasPrefix(bundle.ID, "bundle--") {
		t.Errorf("Unexpected bundle id: %s", bundle.ID)
	}
	if len(bundle.Objects) != len(rows) {
		t.Fatalf("Expected %d objects, got %d", len(rows), len(bundle.Objects))
	}
	for i, obj := range bundle.Objects {
		if obj.Type != "indicator" || obj.PatternType != "stix" {
			t.Errorf("object %d: unexpected type fields", i)
		}
		if want, _ := rows[i].Get("Name"); obj.Name != want {
			t.Errorf("object %d: expected %q, got %q", i, want, obj.Name)
		}
	}
}

func TestExport_EmptyBundleHasObjectsArray(t *testing.T) {
	e, _ := newTestExporter()

	data, err := json.Marshal(e.Export(nil))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !bytes.Contains(data, []byte(`"objects":[]`)) {
		t.Errorf("Expected empty objects array, got %s", data)
	}
}

func TestIndicatorJSONKeyOrder(t *testing.T) {
	e, _ := newTestExporter()
	data, _ := json.Marshal(e.ConvertRow(row("Name", "x", "resource", "https://r")))

	keys := []string{"type", "spec_version", "id", "created", "modified", "name",
		"description", "pattern", "pattern_type", "valid_from", "external_references"}
	last := -1
	for _, k := range keys {
		idx := bytes.Index(data, []byte(`"`+k+`":`))
		if idx <= last {
			t.Fatalf("Key %q out of order in %s", k, data)
		}
		last = idx
	}
}

func TestIdentitySources(t *testing.T) {
	a := UUIDGenerator{}.NewID()
	b := UUIDGenerator{}.NewID()
	if a == b || len(a) != 36 {
		t.Errorf("Expected distinct UUIDs, got %s and %s", a, b)
	}
	if (SystemClock{}).Now().Location() != time.UTC {
		t.Error("Expected system clock in UTC")
	}
}
