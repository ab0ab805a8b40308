package domain

import (
	"fmt"
	"time"
)

const (
	STIXSpecVersion = "2.1"
	PatternTypeSTIX = "stix"
)

// Indicator is a STIX 2.1 file indicator. Field order matches the emitted JSON.
type Indicator struct {
	Type               string              `json:"type"`
	SpecVersion        string              `json:"spec_version"`
	ID                 string              `json:"id"`
	Created            string              `json:"created"`
	Modified           string              `json:"modified"`
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	Pattern            string              `json:"pattern"`
	PatternType        string              `json:"pattern_type"`
	ValidFrom          string              `json:"valid_from"`
	ExternalReferences []ExternalReference `json:"external_references,omitempty"`
}

type ExternalReference struct {
	SourceName string `json:"source_name"`
	URL        string `json:"url"`
}

type Bundle struct {
	Type        string      `json:"type"`
	ID          string      `json:"id"`
	SpecVersion string      `json:"spec_version"`
	Objects     []Indicator `json:"objects"`
}

// HashPattern builds a STIX equality comparison on a file hash.
func HashPattern(h HashDescriptor) string {
	return fmt.Sprintf("[file:hashes.'%s' = '%s']", h.Algorithm, h.Digest)
}

// NamePattern builds a STIX equality comparison on a file name.
func NamePattern(name string) string {
	return fmt.Sprintf("[file:name = '%s']", name)
}

// FormatTimestamp renders t in UTC as ISO-8601 with a trailing Z. Fractional
// seconds are written as microseconds and dropped entirely when zero.
func FormatTimestamp(t time.Time) string {
	t = t.UTC()
	micro := t.Nanosecond() / int(time.Microsecond)
	if micro == 0 {
		return t.Format("2006-01-02T15:04:05") + "Z"
	}
	return fmt.Sprintf("%s.%06dZ", t.Format("2006-01-02T15:04:05"), micro)
}
