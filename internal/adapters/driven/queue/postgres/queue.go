package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

var _ driven.TaskQueue = (*Queue)(nil)

// DefaultPollInterval bounds how long an idle worker waits before looking
// at the table again.
const DefaultPollInterval = time.Second

// NotifyChannel is the LISTEN/NOTIFY channel signalled on every enqueue.
const NotifyChannel = "acme_insight_tasks"

const taskColumns = `id, type, owner_id, payload, status, priority,
	attempts, max_attempts, error, created_at, updated_at,
	started_at, completed_at, scheduled_for`

// Queue is the TaskQueue used when Redis is not configured. Tasks live in
// the tasks table created by the postgres adapter's schema. Claims use
// FOR UPDATE SKIP LOCKED so concurrent workers never take the same row.
type Queue struct {
	db           *sql.DB
	pollInterval time.Duration
	listener     *pq.Listener
}

func NewQueue(db *sql.DB) *Queue {
	return &Queue{db: db, pollInterval: DefaultPollInterval}
}

// Listen subscribes to enqueue notifications on a dedicated connection so
// idle workers wake as soon as a task arrives. Without it the queue polls.
func (q *Queue) Listen(dsn string, logger *slog.Logger) error {
	listener := pq.NewListener(dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("task queue listener", "event", ev, "error", err)
		}
	})
	if err := listener.Listen(NotifyChannel); err != nil {
		_ = listener.Close()
		return fmt.Errorf("listen %s: %w", NotifyChannel, err)
	}
	q.listener = listener
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insert(ctx context.Context, db execer, task *domain.Task) error {
	payload, err := json.Marshal(task.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload for task %s: %w", task.ID, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO tasks (id, type, owner_id, payload, status, priority, attempts,
			max_attempts, error, created_at, updated_at, scheduled_for)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		task.ID, task.Type, task.OwnerID, payload, task.Status, task.Priority, task.Attempts,
		task.MaxAttempts, task.Error, task.CreatedAt, task.UpdatedAt, task.ScheduledFor,
	)
	if err != nil {
		return fmt.Errorf("insert task %s: %w", task.ID, err)
	}
	return nil
}

func notify(ctx context.Context, db execer) error {
	_, err := db.ExecContext(ctx, `SELECT pg_notify($1, '')`, NotifyChannel)
	return err
}

func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	return q.EnqueueBatch(ctx, []*domain.Task{task})
}

// EnqueueBatch inserts every task or none. Listeners are woken on commit.
func (q *Queue) EnqueueBatch(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enqueue: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, task := range tasks {
		if err := insert(ctx, tx, task); err != nil {
			return err
		}
	}
	if err := notify(ctx, tx); err != nil {
		return fmt.Errorf("notify workers: %w", err)
	}
	return tx.Commit()
}

// Dequeue blocks until a task is claimed or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (*domain.Task, error) {
	for {
		task, err := q.claim(ctx)
		if err != nil || task != nil {
			return task, err
		}
		if err := q.wait(ctx, q.pollInterval); err != nil {
			return nil, err
		}
	}
}

// DequeueWithTimeout gives up after timeout seconds with nil, nil.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	deadline := time.Now().Add(time.Duration(timeout) * time.Second)
	for {
		task, err := q.claim(ctx)
		if err != nil || task != nil {
			return task, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		if err := q.wait(ctx, min(q.pollInterval, remaining)); err != nil {
			return nil, err
		}
	}
}

// wait sleeps for d, returning early on an enqueue notification.
func (q *Queue) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	var wake <-chan *pq.Notification
	if q.listener != nil {
		wake = q.listener.Notify
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	case <-wake:
	}
	return nil
}

const claimNext = `
	UPDATE tasks
	SET status = $1, attempts = attempts + 1, started_at = NOW(), updated_at = NOW()
	WHERE id = (
		SELECT id FROM tasks
		WHERE status = $2 AND scheduled_for <= NOW()
		ORDER BY priority DESC, created_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	)
	RETURNING ` + taskColumns

// claim moves the next due task to processing in a single statement.
func (q *Queue) claim(ctx context.Context) (*domain.Task, error) {
	row := q.db.QueryRowContext(ctx, claimNext, domain.TaskStatusProcessing, domain.TaskStatusPending)
	task, err := scanTask(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("claim task: %w", err)
	}
	return task, nil
}

func (q *Queue) Ack(ctx context.Context, taskID string) error {
	result, err := q.db.ExecContext(ctx, `
		UPDATE tasks
		SET status = $1, completed_at = NOW(), updated_at = NOW(), error = ''
		WHERE id = $2`,
		domain.TaskStatusCompleted, taskID,
	)
	if err != nil {
		return fmt.Errorf("ack task %s: %w", taskID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Nack applies the task's retry policy under a row lock, so a concurrent
// Ack or Nack cannot interleave.
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin nack: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	task, err := scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load task %s: %w", taskID, err)
	}

	if task.CanRetry() {
		task.Retry(reason)
	} else {
		task.MarkFailed(reason)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE tasks SET status = $1, error = $2, updated_at = $3, scheduled_for = $4
		WHERE id = $5`,
		task.Status, task.Error, task.UpdatedAt, task.ScheduledFor, taskID,
	); err != nil {
		return fmt.Errorf("nack task %s: %w", taskID, err)
	}
	return tx.Commit()
}

func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := scanTask(q.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", taskID, err)
	}
	return task, nil
}

// listQuery builds the filtered task listing, newest first.
func listQuery(filter driven.TaskFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.OwnerID != "" {
		add("owner_id = $%d", filter.OwnerID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + taskColumns + ` FROM tasks`)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args
}

func (q *Queue) ListTasks(ctx context.Context, filter driven.TaskFilter) ([]*domain.Task, error) {
	query, args := listQuery(filter)
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Stats counts tasks per status in one pass and reports how long the oldest
// pending task has waited.
func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	var (
		stats driven.QueueStats
		age   sql.NullFloat64
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			EXTRACT(EPOCH FROM NOW() - MIN(created_at) FILTER (WHERE status = 'pending'))
		FROM tasks`,
	).Scan(&stats.PendingCount, &stats.ProcessingCount, &stats.CompletedCount, &stats.FailedCount, &age)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	if age.Valid {
		stats.OldestPendingAge = int64(age.Float64)
	}
	return &stats, nil
}

func (q *Queue) Ping(ctx context.Context) error {
	return q.db.PingContext(ctx)
}

// Close stops the listener. The pool belongs to the caller.
func (q *Queue) Close() error {
	if q.listener == nil {
		return nil
	}
	return q.listener.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task                   domain.Task
		payload                []byte
		startedAt, completedAt sql.NullTime
	)
	if err := row.Scan(
		&task.ID, &task.Type, &task.OwnerID, &payload, &task.Status, &task.Priority,
		&task.Attempts, &task.MaxAttempts, &task.Error, &task.CreatedAt, &task.UpdatedAt,
		&startedAt, &completedAt, &task.ScheduledFor,
	); err != nil {
		return nil, err
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &task.Payload); err != nil {
			return nil, fmt.Errorf("decode payload of task %s: %w", task.ID, err)
		}
	}
	if startedAt.Valid {
		task.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	return &task, nil
}
