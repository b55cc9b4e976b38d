package driving

import (
	"context"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// ScheduleService administers recurring tasks
type ScheduleService interface {
	GetScheduledTask(ctx context.Context, id string) (*domain.ScheduledTask, error)
	ListScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error)
	EnableScheduledTask(ctx context.Context, id string) error
	DisableScheduledTask(ctx context.Context, id string) error

	// TriggerNow enqueues the scheduled task immediately, outside its schedule
	TriggerNow(ctx context.Context, id string) (*domain.Task, error)
}
