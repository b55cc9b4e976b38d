package driven

import (
	"context"
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// MetricStore persists metric records. History is append-only.
type MetricStore interface {
	// SaveRun stores all records of one aggregation run atomically
	SaveRun(ctx context.Context, records []domain.MetricRecord) error

	// Latest returns the records of the owner's most recent run
	Latest(ctx context.Context, ownerID string) ([]domain.MetricRecord, error)

	// History returns up to limit records of one type, newest first
	History(ctx context.Context, ownerID string, metricType domain.MetricType, limit int) ([]domain.MetricRecord, error)
}

// DashboardCache caches the rendered dashboard per owner (Redis)
type DashboardCache interface {
	// Get returns ErrNotFound on a miss
	Get(ctx context.Context, ownerID string) (*domain.Dashboard, error)

	Set(ctx context.Context, ownerID string, dashboard *domain.Dashboard, ttl time.Duration) error

	Invalidate(ctx context.Context, ownerID string) error
}
