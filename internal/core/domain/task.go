package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	return uuid.NewString()
}

// TaskType identifies the type of background task
type TaskType string

const (
	// TaskTypeProcessPrompts queries every engine for a batch of prompts
	TaskTypeProcessPrompts TaskType = "process_prompts"
	// TaskTypeCalculateMetrics runs the aggregation engine for one owner
	TaskTypeCalculateMetrics TaskType = "calculate_metrics"
	// TaskTypeCalculateAllMetrics fans out calculate_metrics to every active owner
	TaskTypeCalculateAllMetrics TaskType = "calculate_all_metrics"
)

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task represents a background job to be processed by workers
type Task struct {
	ID   string   `json:"id"`
	Type TaskType `json:"type"`

	// OwnerID is the user whose prompts/metrics the task operates on.
	// Empty for fan-out tasks.
	OwnerID string `json:"owner_id"`

	// Payload contains task-specific data
	// For process_prompts: {"prompt_ids": "id1,id2"}
	Payload map[string]string `json:"payload"`

	Status TaskStatus `json:"status"`

	// Priority determines processing order (higher = more urgent)
	Priority int `json:"priority"`

	Attempts    int    `json:"attempts"`
	MaxAttempts int    `json:"max_attempts"`
	Error       string `json:"error,omitempty"`

	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ScheduledFor time.Time  `json:"scheduled_for"`
}

// NewTask creates a new task with default values
func NewTask(taskType TaskType, ownerID string, payload map[string]string) *Task {
	now := time.Now()
	return &Task{
		ID:           GenerateID(),
		Type:         taskType,
		OwnerID:      ownerID,
		Payload:      payload,
		Status:       TaskStatusPending,
		MaxAttempts:  3,
		CreatedAt:    now,
		UpdatedAt:    now,
		ScheduledFor: now,
	}
}

// NewProcessPromptsTask creates a task to query engines for the given prompts
func NewProcessPromptsTask(ownerID string, promptIDs []string) *Task {
	return NewTask(TaskTypeProcessPrompts, ownerID, map[string]string{
		"prompt_ids": strings.Join(promptIDs, ","),
	})
}

// NewCalculateMetricsTask creates a task to recompute one owner's metrics
func NewCalculateMetricsTask(ownerID string) *Task {
	return NewTask(TaskTypeCalculateMetrics, ownerID, nil)
}

// PromptIDs extracts the prompt ids from the payload (for process_prompts tasks).
// An empty result means every unprocessed prompt of the owner.
func (t *Task) PromptIDs() []string {
	if t.Payload == nil || t.Payload["prompt_ids"] == "" {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(t.Payload["prompt_ids"], ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// CanRetry returns true if the task can be retried
func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}

// IsReady returns true if the task is ready to be processed
func (t *Task) IsReady() bool {
	return t.Status == TaskStatusPending && time.Now().After(t.ScheduledFor)
}

// MarkProcessing updates the task to processing state
func (t *Task) MarkProcessing() {
	now := time.Now()
	t.Status = TaskStatusProcessing
	t.StartedAt = &now
	t.UpdatedAt = now
	t.Attempts++
}

// MarkCompleted updates the task to completed state
func (t *Task) MarkCompleted() {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	t.Error = ""
}

// MarkFailed updates the task to failed state
func (t *Task) MarkFailed(err string) {
	now := time.Now()
	t.Status = TaskStatusFailed
	t.UpdatedAt = now
	t.Error = err
}

// Retry resets the task for retry with exponential backoff
func (t *Task) Retry(err string) {
	now := time.Now()
	t.Status = TaskStatusPending
	t.UpdatedAt = now
	t.Error = err

	// 1s, 2s, 4s ... capped at 5 minutes
	backoff := time.Duration(1<<t.Attempts) * time.Second
	if backoff > 5*time.Minute {
		backoff = 5 * time.Minute
	}
	t.ScheduledFor = now.Add(backoff)
}

// TaskResult represents the outcome of processing a task
type TaskResult struct {
	TaskID      string        `json:"task_id"`
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
	ItemsCount  int           `json:"items_count,omitempty"`  // prompts processed or records written
	ErrorsCount int           `json:"errors_count,omitempty"` // failed prompts or rejected records
}

// ScheduledTask represents a recurring task configuration
type ScheduledTask struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Type      TaskType      `json:"type"`
	OwnerID   string        `json:"owner_id,omitempty"`
	Interval  time.Duration `json:"interval"`
	Enabled   bool          `json:"enabled"`
	LastRun   *time.Time    `json:"last_run,omitempty"`
	NextRun   time.Time     `json:"next_run"`
	LastError string        `json:"last_error,omitempty"`
}

// NewScheduledTask creates a new scheduled task
func NewScheduledTask(id, name string, taskType TaskType, ownerID string, interval time.Duration) *ScheduledTask {
	return &ScheduledTask{
		ID:       id,
		Name:     name,
		Type:     taskType,
		OwnerID:  ownerID,
		Interval: interval,
		Enabled:  true,
		NextRun:  time.Now().Add(interval),
	}
}

// IsDue returns true if the scheduled task should be triggered
func (s *ScheduledTask) IsDue() bool {
	return s.Enabled && time.Now().After(s.NextRun)
}

// UpdateNextRun calculates the next run time after execution
func (s *ScheduledTask) UpdateNextRun() {
	now := time.Now()
	s.LastRun = &now
	s.NextRun = now.Add(s.Interval)
}

// DefaultSchedules returns the built-in recurring tasks
func DefaultSchedules(refreshInterval time.Duration) []*ScheduledTask {
	if refreshInterval <= 0 {
		refreshInterval = 24 * time.Hour
	}
	return []*ScheduledTask{
		NewScheduledTask(
			"metrics-refresh",
			"Metrics Refresh",
			TaskTypeCalculateAllMetrics,
			"",
			refreshInterval,
		),
	}
}
