package exporter

import (
	"time"

	"github.com/google/uuid"
)

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator hands out random version 4 UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.New().String()
}

// NewDefaultSTIXExporter wires the wall clock and random identifiers.
func NewDefaultSTIXExporter() *STIXExporter {
	return NewSTIXExporter(SystemClock{}, UUIDGenerator{})
}
