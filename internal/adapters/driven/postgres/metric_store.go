package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.MetricStore = (*MetricStore)(nil)

const metricColumns = `id, owner_id, run_id, metric_type, value, delta, metadata, created_at`

// MetricStore implements driven.MetricStore using PostgreSQL.
// Rows are only ever inserted.
type MetricStore struct {
	db *DB
}

// NewMetricStore creates a new MetricStore
func NewMetricStore(db *DB) *MetricStore {
	return &MetricStore{db: db}
}

// SaveRun inserts every record of one run, or none of them
func (s *MetricStore) SaveRun(ctx context.Context, records []domain.MetricRecord) error {
	if len(records) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO metric_records (`+metricColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range records {
			metadata := []byte("{}")
			if r.Metadata != nil {
				if metadata, err = json.Marshal(r.Metadata); err != nil {
					return fmt.Errorf("marshal %s metadata: %w", r.Type, err)
				}
			}
			_, err := stmt.ExecContext(ctx,
				r.ID,
				r.OwnerID,
				r.RunID,
				string(r.Type),
				r.Value,
				r.Delta,
				metadata,
				r.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert %s record: %w", r.Type, err)
			}
		}
		return nil
	})
}

// Latest returns the records of the owner's most recent run
func (s *MetricStore) Latest(ctx context.Context, ownerID string) ([]domain.MetricRecord, error) {
	query := `
		SELECT ` + metricColumns + `
		FROM metric_records
		WHERE owner_id = $1 AND run_id = (
			SELECT run_id FROM metric_records
			WHERE owner_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		)
		ORDER BY metric_type
	`
	return s.query(ctx, query, ownerID)
}

// History returns up to limit records of one type, newest first
func (s *MetricStore) History(ctx context.Context, ownerID string, metricType domain.MetricType, limit int) ([]domain.MetricRecord, error) {
	query := `
		SELECT ` + metricColumns + `
		FROM metric_records
		WHERE owner_id = $1 AND metric_type = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`
	return s.query(ctx, query, ownerID, string(metricType), limit)
}

func (s *MetricStore) query(ctx context.Context, query string, args ...any) ([]domain.MetricRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var records []domain.MetricRecord
	for rows.Next() {
		var r domain.MetricRecord
		var metadata []byte
		err := rows.Scan(
			&r.ID,
			&r.OwnerID,
			&r.RunID,
			&r.Type,
			&r.Value,
			&r.Delta,
			&metadata,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		if r.Metadata, err = domain.DecodeMetadata(r.Type, metadata); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics: %w", err)
	}
	return records, nil
}
