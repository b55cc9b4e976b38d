package driven

import (
	"context"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// TaskQueue handles background task queuing and processing.
// Implementations can use Redis (preferred) or Postgres (fallback).
type TaskQueue interface {
	// Enqueue adds a task to the queue for processing.
	Enqueue(ctx context.Context, task *domain.Task) error

	// EnqueueBatch adds multiple tasks atomically.
	EnqueueBatch(ctx context.Context, tasks []*domain.Task) error

	// Dequeue retrieves the next available task, blocking until one is
	// available or ctx is cancelled. The task is marked processing.
	Dequeue(ctx context.Context) (*domain.Task, error)

	// DequeueWithTimeout waits up to timeout seconds.
	// Returns nil, nil if no task became available.
	DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error)

	// Ack marks a task completed.
	Ack(ctx context.Context, taskID string) error

	// Nack records a failure; the task is retried with backoff until
	// MaxAttempts, then marked failed.
	Nack(ctx context.Context, taskID string, reason string) error

	GetTask(ctx context.Context, taskID string) (*domain.Task, error)

	ListTasks(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)

	Stats(ctx context.Context) (*QueueStats, error)

	Ping(ctx context.Context) error

	Close() error
}

// TaskFilter specifies criteria for listing tasks
type TaskFilter struct {
	OwnerID string
	Status  domain.TaskStatus
	Type    domain.TaskType
	Limit   int
	Offset  int
}

// QueueStats contains queue statistics
type QueueStats struct {
	PendingCount    int64 `json:"pending_count"`
	ProcessingCount int64 `json:"processing_count"`
	CompletedCount  int64 `json:"completed_count"`
	FailedCount     int64 `json:"failed_count"`
	// OldestPendingAge is the age of the oldest pending task in seconds
	OldestPendingAge int64 `json:"oldest_pending_age"`
}

// SchedulerStore handles persistence for scheduled tasks.
// Scheduled tasks are configuration, not transient queue items.
type SchedulerStore interface {
	GetScheduledTask(ctx context.Context, id string) (*domain.ScheduledTask, error)

	ListScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error)

	// SaveScheduledTask creates or updates a scheduled task
	SaveScheduledTask(ctx context.Context, task *domain.ScheduledTask) error

	DeleteScheduledTask(ctx context.Context, id string) error

	// GetDueScheduledTasks retrieves enabled tasks whose next run has passed
	GetDueScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error)

	// UpdateLastRun stamps the run and advances next_run by the interval
	UpdateLastRun(ctx context.Context, id string, lastError string) error
}
