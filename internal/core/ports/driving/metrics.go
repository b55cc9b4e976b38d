package driving

import (
	"context"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// MetricsService runs the aggregation engine and serves its results
type MetricsService interface {
	// Calculate aggregates every processed prompt of the owner into one run.
	// A failed persist returns the computed run with an ErrPersistence error.
	Calculate(ctx context.Context, ownerID string) (*domain.MetricsRun, error)

	// Dashboard returns the headline metrics, zero-valued before the first run
	Dashboard(ctx context.Context, ownerID string) (*domain.Dashboard, error)

	// History returns up to limit values of one metric, oldest first
	History(ctx context.Context, ownerID string, metricType domain.MetricType, limit int) ([]domain.MetricPoint, error)

	// Prompts returns the prompt-level rollups
	Prompts(ctx context.Context, ownerID string) ([]domain.PromptMetrics, error)

	Competitive(ctx context.Context, ownerID string) (*domain.CompetitiveReport, error)

	Topics(ctx context.Context, ownerID string) (*domain.TopicReport, error)

	// Gaps lists content gaps derived from the current snapshot
	Gaps(ctx context.Context, ownerID string) ([]domain.GapFlag, error)
}
