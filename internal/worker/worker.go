package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driving"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/services"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
	settleTime = 5 * time.Second
)

type taskHandler func(ctx context.Context, task *domain.Task, logger *slog.Logger) error

// Worker drains the task queue. It answers uploaded prompts through the
// engines, recomputes metrics and fans out the periodic refresh. When a
// scheduler is attached it runs alongside the consumers.
type Worker struct {
	taskQueue driven.TaskQueue
	processor driving.PromptProcessor
	metrics   driving.MetricsService
	users     driven.UserStore
	scheduler *services.Scheduler
	logger    *slog.Logger
	handlers  map[domain.TaskType]taskHandler

	concurrency    int
	dequeueTimeout int // seconds
	inFlight       atomic.Int64

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

type WorkerConfig struct {
	TaskQueue      driven.TaskQueue
	Processor      driving.PromptProcessor
	Metrics        driving.MetricsService
	Users          driven.UserStore // owners for calculate_all_metrics
	Scheduler      *services.Scheduler
	Logger         *slog.Logger
	Concurrency    int // Default: 1
	DequeueTimeout int // Seconds per dequeue wait. Default: 5
}

func NewWorker(cfg WorkerConfig) *Worker {
	w := &Worker{
		taskQueue:      cfg.TaskQueue,
		processor:      cfg.Processor,
		metrics:        cfg.Metrics,
		users:          cfg.Users,
		scheduler:      cfg.Scheduler,
		logger:         cfg.Logger,
		concurrency:    max(cfg.Concurrency, 1),
		dequeueTimeout: cfg.DequeueTimeout,
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.dequeueTimeout <= 0 {
		w.dequeueTimeout = 5
	}
	w.handlers = map[domain.TaskType]taskHandler{
		domain.TaskTypeProcessPrompts:      w.handleProcessPrompts,
		domain.TaskTypeCalculateMetrics:    w.handleCalculateMetrics,
		domain.TaskTypeCalculateAllMetrics: w.handleCalculateAll,
	}
	return w
}

// Start launches the consumers and the scheduler, then returns. They run
// until Stop or ctx cancellation.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	w.logger.Info("worker starting", "concurrency", w.concurrency, "dequeue_timeout", w.dequeueTimeout)

	if w.scheduler != nil {
		if err := w.scheduler.Start(ctx); err != nil {
			w.logger.Error("failed to start scheduler", "error", err)
		}
	}

	var g errgroup.Group
	for id := range w.concurrency {
		g.Go(func() error {
			w.processLoop(ctx, id)
			return nil
		})
	}
	go func(done chan struct{}) {
		_ = g.Wait()
		close(done)
	}(w.doneCh)

	return nil
}

// Stop lets in-flight tasks finish, then returns.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	if w.scheduler != nil {
		w.scheduler.Stop()
	}
	<-done

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	w.logger.Info("worker stopped")
}

// Wait blocks until every consumer has exited.
func (w *Worker) Wait() {
	w.mu.RLock()
	done := w.doneCh
	w.mu.RUnlock()
	<-done
}

func (w *Worker) stopping(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

// processLoop is one consumer. Dequeue failures back off exponentially so a
// queue outage does not turn into a hot loop.
func (w *Worker) processLoop(ctx context.Context, id int) {
	logger := w.logger.With("worker_id", id)
	backoff := minBackoff

	for !w.stopping(ctx) {
		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err, "retry_in", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
			case <-w.stopCh:
			}
			backoff = min(2*backoff, maxBackoff)
			continue
		}
		backoff = minBackoff

		if task != nil {
			w.processTask(ctx, task, logger)
		}
	}
}

// processTask runs the task's handler and settles it with Ack or Nack. The
// settle step survives shutdown so a finished task is never redelivered.
func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	w.inFlight.Add(1)
	defer w.inFlight.Add(-1)

	logger = logger.With("task_id", task.ID, "task_type", task.Type, "owner_id", task.OwnerID)
	logger.Info("processing task", "attempt", task.Attempts)

	start := time.Now()
	err := fmt.Errorf("unknown task type: %s", task.Type)
	if handle, ok := w.handlers[task.Type]; ok {
		err = handle(ctx, task, logger)
	}
	elapsed := time.Since(start)

	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTime)
	defer cancel()

	if err != nil {
		logger.Error("task failed", "duration", elapsed, "error", err)
		if nackErr := w.taskQueue.Nack(settleCtx, task.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack task", "nack_error", nackErr)
		}
		return
	}

	logger.Info("task completed", "duration", elapsed)
	if ackErr := w.taskQueue.Ack(settleCtx, task.ID); ackErr != nil {
		logger.Error("failed to ack task", "ack_error", ackErr)
	}
}

// handleProcessPrompts fails, and so is retried, only when prompts were due
// and none of them could be processed.
func (w *Worker) handleProcessPrompts(ctx context.Context, task *domain.Task, logger *slog.Logger) error {
	if w.processor == nil {
		return domain.ErrEngineUnavailable
	}
	if task.OwnerID == "" {
		return errors.New("owner_id missing from task")
	}

	report, err := w.processor.Process(ctx, task.OwnerID, task.PromptIDs())
	switch {
	case err != nil:
		return err
	case report.Prompts > 0 && report.Processed == 0:
		return fmt.Errorf("no prompt processed: %d failed engine calls", report.FailedCalls)
	case report.Failed > 0:
		logger.Warn("some prompts failed", "processed", report.Processed, "failed", report.Failed)
	}
	return nil
}

// handleCalculateMetrics retries a run that was computed but not stored.
func (w *Worker) handleCalculateMetrics(ctx context.Context, task *domain.Task, logger *slog.Logger) error {
	if task.OwnerID == "" {
		return errors.New("owner_id missing from task")
	}

	run, err := w.metrics.Calculate(ctx, task.OwnerID)
	if err != nil {
		return err
	}
	logger.Debug("metrics calculated",
		"run_id", run.RunID,
		"prompts", len(run.Prompts),
		"rejected_answers", run.RejectedAnswers,
	)
	return nil
}

// handleCalculateAll enqueues one calculate_metrics task per owner with a
// brand configured.
func (w *Worker) handleCalculateAll(ctx context.Context, _ *domain.Task, logger *slog.Logger) error {
	if w.users == nil {
		return errors.New("user store not configured")
	}

	users, err := w.users.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	var tasks []*domain.Task
	for _, u := range users {
		if u.BrandName != "" {
			tasks = append(tasks, domain.NewCalculateMetricsTask(u.ID))
		}
	}
	if len(tasks) == 0 {
		return nil
	}

	if err := w.taskQueue.EnqueueBatch(ctx, tasks); err != nil {
		return fmt.Errorf("enqueue metrics tasks: %w", err)
	}
	logger.Info("metrics refresh fanned out", "owners", len(tasks))
	return nil
}

// Health is the worker's liveness report.
type Health struct {
	Running     bool   `json:"running"`
	InFlight    int64  `json:"in_flight"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	health := Health{Running: w.running, InFlight: w.inFlight.Load(), QueueHealth: true}
	w.mu.RUnlock()

	if err := w.taskQueue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	}
	return health
}
