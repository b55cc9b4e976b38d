package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

var _ driven.SchedulerStore = (*SchedulerStore)(nil)

const scheduleColumns = `id, name, type, owner_id, interval_ns, enabled, next_run, last_run, last_error`

// SchedulerStore keeps recurring schedules in the scheduled_tasks table.
// Intervals are stored as nanoseconds.
type SchedulerStore struct {
	db *DB
}

func NewSchedulerStore(db *DB) *SchedulerStore {
	return &SchedulerStore{db: db}
}

func (s *SchedulerStore) GetScheduledTask(ctx context.Context, id string) (*domain.ScheduledTask, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scheduleColumns+` FROM scheduled_tasks WHERE id = $1`, id)
	scheduled, err := scanScheduledTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return scheduled, err
}

// ListScheduledTasks returns every schedule, soonest first.
func (s *SchedulerStore) ListScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error) {
	return s.selectSchedules(ctx, `ORDER BY next_run`)
}

// GetDueScheduledTasks returns enabled schedules whose next run has passed.
func (s *SchedulerStore) GetDueScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error) {
	return s.selectSchedules(ctx, `WHERE enabled AND next_run <= $1 ORDER BY next_run`, time.Now())
}

const upsertSchedule = `
	INSERT INTO scheduled_tasks (` + scheduleColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		type = EXCLUDED.type,
		owner_id = EXCLUDED.owner_id,
		interval_ns = EXCLUDED.interval_ns,
		enabled = EXCLUDED.enabled,
		next_run = EXCLUDED.next_run,
		last_run = EXCLUDED.last_run,
		last_error = EXCLUDED.last_error
`

func (s *SchedulerStore) SaveScheduledTask(ctx context.Context, scheduled *domain.ScheduledTask) error {
	_, err := s.db.ExecContext(ctx, upsertSchedule,
		scheduled.ID, scheduled.Name, string(scheduled.Type), scheduled.OwnerID,
		scheduled.Interval.Nanoseconds(), scheduled.Enabled, scheduled.NextRun,
		NullTime(scheduled.LastRun), scheduled.LastError,
	)
	return err
}

func (s *SchedulerStore) DeleteScheduledTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// UpdateLastRun records the outcome of a run and schedules the next one
// interval_ns after now. The arithmetic happens in SQL so a concurrent
// interval change is never lost.
func (s *SchedulerStore) UpdateLastRun(ctx context.Context, id string, outcome string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_tasks
		SET last_run = $1::timestamptz,
			next_run = $1::timestamptz + make_interval(secs => interval_ns / 1e9),
			last_error = $2
		WHERE id = $3`,
		time.Now(), outcome, id,
	)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

func (s *SchedulerStore) selectSchedules(ctx context.Context, clause string, args ...any) ([]*domain.ScheduledTask, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+scheduleColumns+` FROM scheduled_tasks `+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []*domain.ScheduledTask
	for rows.Next() {
		scheduled, err := scanScheduledTask(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, scheduled)
	}
	return schedules, rows.Err()
}

func scanScheduledTask(row scanner) (*domain.ScheduledTask, error) {
	var (
		scheduled domain.ScheduledTask
		interval  int64
		lastRun   sql.NullTime
	)
	if err := row.Scan(
		&scheduled.ID, &scheduled.Name, &scheduled.Type, &scheduled.OwnerID,
		&interval, &scheduled.Enabled, &scheduled.NextRun, &lastRun, &scheduled.LastError,
	); err != nil {
		return nil, err
	}
	scheduled.Interval = time.Duration(interval)
	scheduled.LastRun = TimePtr(lastRun)
	return &scheduled, nil
}
