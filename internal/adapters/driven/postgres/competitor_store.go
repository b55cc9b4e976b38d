package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CompetitorStore = (*CompetitorStore)(nil)

// CompetitorStore implements driven.CompetitorStore using PostgreSQL
type CompetitorStore struct {
	db *DB
}

// NewCompetitorStore creates a new CompetitorStore
func NewCompetitorStore(db *DB) *CompetitorStore {
	return &CompetitorStore{db: db}
}

// Save creates or updates a competitor. Names are unique per owner.
func (s *CompetitorStore) Save(ctx context.Context, c *domain.Competitor) error {
	domains := c.Domains
	if domains == nil {
		domains = []string{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO competitors (id, owner_id, name, domains, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			domains = EXCLUDED.domains
	`, c.ID, c.OwnerID, c.Name, pq.Array(domains), c.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// Get retrieves a competitor by ID
func (s *CompetitorStore) Get(ctx context.Context, id string) (*domain.Competitor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, domains, created_at
		FROM competitors
		WHERE id = $1
	`, id)
	c, err := scanCompetitor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return c, err
}

// List returns the owner's competitors sorted by name
func (s *CompetitorStore) List(ctx context.Context, ownerID string) ([]*domain.Competitor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, domains, created_at
		FROM competitors
		WHERE owner_id = $1
		ORDER BY name ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query competitors: %w", err)
	}
	defer rows.Close()

	var competitors []*domain.Competitor
	for rows.Next() {
		c, err := scanCompetitor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan competitor: %w", err)
		}
		competitors = append(competitors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate competitors: %w", err)
	}
	return competitors, nil
}

// Delete removes a competitor
func (s *CompetitorStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM competitors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func scanCompetitor(row scanner) (*domain.Competitor, error) {
	var c domain.Competitor
	var domains pq.StringArray
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &domains, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Domains = []string(domains)
	return &c, nil
}
