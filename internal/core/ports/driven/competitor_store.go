package driven

import (
	"context"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// CompetitorStore handles competitor persistence (PostgreSQL)
type CompetitorStore interface {
	Save(ctx context.Context, competitor *domain.Competitor) error
	Get(ctx context.Context, id string) (*domain.Competitor, error)
	List(ctx context.Context, ownerID string) ([]*domain.Competitor, error)
	Delete(ctx context.Context, id string) error
}
