package ports

import (
	"context"
	"time"

	"github.com/hive-corporation/md2stix/internal/core/domain"
)

// TableExtractor turns the lines of one document into rows.
type TableExtractor interface {
	Extract(lines []string) ([]domain.Row, error)
	Name() string
}

// Clock supplies wall-clock time to the indicator mapper.
type Clock interface {
	Now() time.Time
}

// IDGenerator supplies the random part of STIX identifiers.
type IDGenerator interface {
	NewID() string
}

type IndicatorRepository interface {
	SaveBundle(ctx context.Context, source string, bundle domain.Bundle) error
	FindContaining(ctx context.Context, value string, limit int) ([]domain.Indicator, error)
}
