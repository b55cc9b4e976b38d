package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driving"
)

var _ driving.ScheduleService = (*Scheduler)(nil)

const schedulerLockKey = "scheduler"

// Scheduler turns recurring schedules, such as the periodic metrics refresh,
// into queue tasks. With several instances running, only the holder of the
// scheduler lock enqueues in a given cycle. A due schedule whose previous
// task is still pending or processing is skipped so refreshes never stack up
// behind slow engine runs.
type Scheduler struct {
	store     driven.SchedulerStore
	taskQueue driven.TaskQueue
	lock      driven.DistributedLock
	logger    *slog.Logger

	interval     time.Duration
	lockTTL      time.Duration
	lockRequired bool

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Store        driven.SchedulerStore
	TaskQueue    driven.TaskQueue
	Lock         driven.DistributedLock // Optional
	Logger       *slog.Logger
	PollInterval time.Duration // Default: 30s
	LockTTL      time.Duration // Default: 2x PollInterval, at least 60s
	LockRequired bool          // Skip a cycle when the lock backend fails. Implied by Lock.
}

// NewScheduler creates a new scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	s := &Scheduler{
		store:        cfg.Store,
		taskQueue:    cfg.TaskQueue,
		lock:         cfg.Lock,
		logger:       cfg.Logger,
		interval:     cfg.PollInterval,
		lockTTL:      cfg.LockTTL,
		lockRequired: cfg.LockRequired || cfg.Lock != nil,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.interval <= 0 {
		s.interval = 30 * time.Second
	}
	if s.lockTTL <= 0 {
		s.lockTTL = max(2*s.interval, 60*time.Second)
	}
	return s
}

// Start runs the poll loop in the background until Stop or ctx cancellation.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	s.logger.Info("scheduler starting", "poll_interval", s.interval, "lock_ttl", s.lockTTL)
	go s.run(ctx, s.stopCh, s.doneCh)
	return nil
}

// Stop ends the poll loop and waits for an in-flight cycle.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()

	<-done

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.checkAndEnqueue(ctx)

		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// checkAndEnqueue runs one scheduling cycle under the scheduler lock.
func (s *Scheduler) checkAndEnqueue(ctx context.Context) {
	release, ok := s.acquire(ctx)
	if !ok {
		return
	}
	defer release()

	due, err := s.store.GetDueScheduledTasks(ctx)
	if err != nil {
		s.logger.Error("failed to load due schedules", "error", err)
		return
	}

	for _, scheduled := range due {
		if !scheduled.IsDue() {
			continue
		}
		logger := s.logger.With("scheduled_id", scheduled.ID, "task_type", scheduled.Type)

		busy, err := s.outstanding(ctx, scheduled)
		if err != nil {
			logger.Warn("failed to check outstanding tasks", "error", err)
		}
		if busy {
			logger.Info("previous run still queued, skipping this interval")
			s.stamp(ctx, scheduled, "skipped: previous run still queued")
			continue
		}

		task, err := s.enqueue(ctx, scheduled)
		if err != nil {
			logger.Error("failed to enqueue scheduled task", "error", err)
			s.stamp(ctx, scheduled, err.Error())
			continue
		}
		logger.Info("enqueued scheduled task", "task_id", task.ID)
		s.stamp(ctx, scheduled, "")
	}
}

// acquire takes the scheduler lock when one is configured. ok is false when
// this cycle must be skipped.
func (s *Scheduler) acquire(ctx context.Context) (release func(), ok bool) {
	noop := func() {}
	if s.lock == nil {
		return noop, true
	}

	acquired, err := s.lock.Acquire(ctx, schedulerLockKey, s.lockTTL)
	switch {
	case err != nil:
		s.logger.Warn("failed to acquire scheduler lock", "error", err)
		return noop, !s.lockRequired
	case !acquired:
		s.logger.Debug("scheduler lock held by another instance")
		return noop, false
	}

	return func() {
		if err := s.lock.Release(ctx, schedulerLockKey); err != nil {
			s.logger.Warn("failed to release scheduler lock", "error", err)
		}
	}, true
}

// outstanding reports whether a task of the schedule's type and owner is
// still pending or processing.
func (s *Scheduler) outstanding(ctx context.Context, scheduled *domain.ScheduledTask) (bool, error) {
	for _, status := range []domain.TaskStatus{domain.TaskStatusPending, domain.TaskStatusProcessing} {
		tasks, err := s.taskQueue.ListTasks(ctx, driven.TaskFilter{
			OwnerID: scheduled.OwnerID,
			Status:  status,
			Type:    scheduled.Type,
			Limit:   1,
		})
		if err != nil {
			return false, err
		}
		if len(tasks) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// enqueue pushes one task for the schedule. Scheduled tasks carry no payload:
// calculate_all_metrics fans out per owner in the worker.
func (s *Scheduler) enqueue(ctx context.Context, scheduled *domain.ScheduledTask) (*domain.Task, error) {
	task := domain.NewTask(scheduled.Type, scheduled.OwnerID, nil)
	task.Priority = 1
	if err := s.taskQueue.Enqueue(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// stamp moves the schedule to its next interval and records the outcome.
func (s *Scheduler) stamp(ctx context.Context, scheduled *domain.ScheduledTask, outcome string) {
	if err := s.store.UpdateLastRun(ctx, scheduled.ID, outcome); err != nil {
		s.logger.Warn("failed to update schedule", "scheduled_id", scheduled.ID, "error", err)
	}
}

// EnsureDefaults stores each schedule that does not exist yet. Existing
// schedules keep their interval and enabled state.
func (s *Scheduler) EnsureDefaults(ctx context.Context, schedules []*domain.ScheduledTask) error {
	for _, scheduled := range schedules {
		_, err := s.store.GetScheduledTask(ctx, scheduled.ID)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("load schedule %s: %w", scheduled.ID, err)
		}
		if err := s.store.SaveScheduledTask(ctx, scheduled); err != nil {
			return fmt.Errorf("save schedule %s: %w", scheduled.ID, err)
		}
		s.logger.Info("registered schedule", "scheduled_id", scheduled.ID, "interval", scheduled.Interval)
	}
	return nil
}

func (s *Scheduler) GetScheduledTask(ctx context.Context, id string) (*domain.ScheduledTask, error) {
	return s.store.GetScheduledTask(ctx, id)
}

func (s *Scheduler) ListScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error) {
	return s.store.ListScheduledTasks(ctx)
}

func (s *Scheduler) EnableScheduledTask(ctx context.Context, id string) error {
	return s.setEnabled(ctx, id, true)
}

func (s *Scheduler) DisableScheduledTask(ctx context.Context, id string) error {
	return s.setEnabled(ctx, id, false)
}

func (s *Scheduler) setEnabled(ctx context.Context, id string, enabled bool) error {
	scheduled, err := s.store.GetScheduledTask(ctx, id)
	if err != nil {
		return err
	}
	if scheduled.Enabled == enabled {
		return nil
	}
	scheduled.Enabled = enabled
	if enabled && scheduled.NextRun.Before(time.Now()) {
		// Re-enabled schedules wait one interval instead of firing immediately
		scheduled.NextRun = time.Now().Add(scheduled.Interval)
	}
	return s.store.SaveScheduledTask(ctx, scheduled)
}

// TriggerNow enqueues the schedule's task immediately. A manual trigger is
// not held back by an outstanding run and leaves the next run untouched.
func (s *Scheduler) TriggerNow(ctx context.Context, id string) (*domain.Task, error) {
	scheduled, err := s.store.GetScheduledTask(ctx, id)
	if err != nil {
		return nil, err
	}

	task, err := s.enqueue(ctx, scheduled)
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", scheduled.ID, err)
	}
	s.logger.Info("schedule triggered manually", "scheduled_id", scheduled.ID, "task_id", task.ID)
	return task, nil
}
