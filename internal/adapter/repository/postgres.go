package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hive-corporation/md2stix/internal/core/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS stix_indicators (
		id          TEXT PRIMARY KEY,
		bundle_id   TEXT NOT NULL,
		source      TEXT NOT NULL,
		name        TEXT NOT NULL,
		pattern     TEXT NOT NULL,
		valid_from  TEXT NOT NULL,
		raw         JSONB NOT NULL,
		ingested_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the indicator table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveBundle stores every indicator of bundle in one batch. Identifiers are
// random per run, so re-running the pipeline adds new rows.
func (r *PostgresRepository) SaveBundle(ctx context.Context, source string, bundle domain.Bundle) error {
	if len(bundle.Objects) == 0 {
		return nil
	}

	batch, err := buildBatch(source, bundle)
	if err != nil {
		return err
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for range bundle.Objects {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to execute batch: %w", err)
		}
	}

	return nil
}

func buildBatch(source string, bundle domain.Bundle) (*pgx.Batch, error) {
	batch := &pgx.Batch{}

	query := `
		INSERT INTO stix_indicators (id, bundle_id, source, name, pattern, valid_from, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	for _, ind := range bundle.Objects {
		raw, err := json.Marshal(ind)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal indicator %s: %w", ind.ID, err)
		}
		batch.Queue(query,
			ind.ID,
			bundle.ID,
			source,
			ind.Name,
			ind.Pattern,
			ind.ValidFrom,
			raw,
		)
	}

	return batch, nil
}

// FindContaining returns indicators whose pattern contains value, newest first.
// Example: a digest finds "[file:hashes.'MD5' = '<digest>']"
func (r *PostgresRepository) FindContaining(ctx context.Context, value string, limit int) ([]domain.Indicator, error) {
	query := `
		SELECT raw
		FROM stix_indicators
		WHERE pattern LIKE '%' || $1 || '%'
		ORDER BY ingested_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, value, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query indicators with pattern: %w", err)
	}
	defer rows.Close()

	var indicators []domain.Indicator

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan indicator: %w", err)
		}
		var ind domain.Indicator
		if err := json.Unmarshal(raw, &ind); err != nil {
			return nil, fmt.Errorf("failed to decode indicator: %w", err)
		}
		indicators = append(indicators, ind)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return indicators, nil
}
