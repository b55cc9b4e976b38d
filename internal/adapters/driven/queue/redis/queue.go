package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

const (
	taskStream     = "acme:tasks"
	taskGroup      = "acme:workers"
	scheduledTasks = "acme:scheduled"
	taskIndex      = "acme:tasks:index"
	ownerIndex     = "acme:tasks:owner:"
	taskKeyPrefix  = "acme:task:"

	// A delivered message idle this long belongs to a dead consumer.
	claimTimeout = 5 * time.Minute
	// Bodies and index entries expire after this; longer than any retry chain.
	taskTTL = 24 * time.Hour
	// Dequeue blocks in slices so delayed tasks are promoted while idle.
	dequeueSlice = 5 * time.Second

	mgetChunk = 100
)

var _ driven.TaskQueue = (*Queue)(nil)

// Queue is the Redis TaskQueue. Ready tasks travel on a stream read by one
// consumer group. The task itself is a JSON body under its own key, so
// status changes never rewrite the stream. Delayed and retried tasks wait in
// a sorted set scored by due time. Two more sorted sets, one global and one
// per owner, index bodies by creation time for listing.
type Queue struct {
	client   *redis.Client
	consumer string
}

// NewQueue joins the worker consumer group, creating stream and group on
// first use. consumer must be unique per process.
func NewQueue(client *redis.Client, consumer string) (*Queue, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if consumer == "" {
		consumer = "worker-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}

	err := client.XGroupCreateMkStream(context.Background(), taskStream, taskGroup, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}
	return &Queue{client: client, consumer: consumer}, nil
}

func taskKey(id string) string { return taskKeyPrefix + id }
func msgKey(id string) string  { return taskKeyPrefix + id + ":msg" }

func indexKey(ownerID string) string {
	if ownerID == "" {
		return taskIndex
	}
	return ownerIndex + ownerID
}

func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return errors.New("task is required")
	}
	return q.EnqueueBatch(ctx, []*domain.Task{task})
}

// EnqueueBatch writes all tasks in one MULTI/EXEC and prunes index entries
// older than the body TTL.
func (q *Queue) EnqueueBatch(ctx context.Context, tasks []*domain.Task) error {
	now := time.Now()
	cutoff := strconv.FormatInt(now.Add(-taskTTL).UnixMilli(), 10)

	pipe := q.client.TxPipeline()
	queued := 0
	for _, task := range tasks {
		if task == nil {
			continue
		}
		data, err := json.Marshal(task)
		if err != nil {
			return fmt.Errorf("encode task %s: %w", task.ID, err)
		}

		pipe.Set(ctx, taskKey(task.ID), data, taskTTL)
		created := redis.Z{Score: float64(task.CreatedAt.UnixMilli()), Member: task.ID}
		pipe.ZAdd(ctx, taskIndex, created)
		if task.OwnerID != "" {
			pipe.ZAdd(ctx, indexKey(task.OwnerID), created)
			pipe.ZRemRangeByScore(ctx, indexKey(task.OwnerID), "-inf", "("+cutoff)
		}

		if task.ScheduledFor.After(now) {
			pipe.ZAdd(ctx, scheduledTasks, redis.Z{Score: float64(task.ScheduledFor.Unix()), Member: task.ID})
		} else {
			pipe.XAdd(ctx, streamMessage(task))
		}
		queued++
	}
	if queued == 0 {
		return nil
	}
	pipe.ZRemRangeByScore(ctx, taskIndex, "-inf", "("+cutoff)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue tasks: %w", err)
	}
	return nil
}

func streamMessage(task *domain.Task) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: taskStream,
		Values: map[string]any{
			"task_id":  task.ID,
			"type":     string(task.Type),
			"owner_id": task.OwnerID,
		},
	}
}

func (q *Queue) Dequeue(ctx context.Context) (*domain.Task, error) {
	for {
		task, err := q.next(ctx, dequeueSlice)
		if err != nil || task != nil {
			return task, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

// DequeueWithTimeout waits up to timeout seconds; nil, nil when idle.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	if timeout <= 0 {
		return q.Dequeue(ctx)
	}
	return q.next(ctx, time.Duration(timeout)*time.Second)
}

// next promotes due delayed tasks, then prefers an abandoned message over a
// fresh one.
func (q *Queue) next(ctx context.Context, block time.Duration) (*domain.Task, error) {
	// a failed promotion is retried on the next call
	_ = q.promote(ctx)

	if task, err := q.reclaim(ctx); err == nil && task != nil {
		return task, nil
	}

	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    taskGroup,
		Consumer: q.consumer,
		Streams:  []string{taskStream, ">"},
		Count:    1,
		Block:    block,
	}).Result()
	switch {
	case errors.Is(err, redis.Nil), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("read task stream: %w", err)
	case len(streams) == 0 || len(streams[0].Messages) == 0:
		return nil, nil
	}
	return q.begin(ctx, streams[0].Messages[0])
}

// begin marks the task behind msg as processing and remembers the message
// id for the later ack. A message whose body has expired is discarded.
func (q *Queue) begin(ctx context.Context, msg redis.XMessage) (*domain.Task, error) {
	id, _ := msg.Values["task_id"].(string)
	task, err := q.GetTask(ctx, id)
	if id == "" || errors.Is(err, domain.ErrNotFound) {
		q.client.XAck(ctx, taskStream, taskGroup, msg.ID)
		q.client.XDel(ctx, taskStream, msg.ID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	task.MarkProcessing()
	data, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("encode task %s: %w", task.ID, err)
	}

	pipe := q.client.Pipeline()
	pipe.Set(ctx, taskKey(task.ID), data, taskTTL)
	pipe.Set(ctx, msgKey(task.ID), msg.ID, taskTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("mark task %s processing: %w", task.ID, err)
	}
	return task, nil
}

// finish stores the task's final state and retires its stream message. A
// retried task goes back to the delay set.
func (q *Queue) finish(ctx context.Context, task *domain.Task, retry bool) error {
	msgID, err := q.client.Get(ctx, msgKey(task.ID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}

	pipe := q.client.TxPipeline()
	if msgID != "" {
		pipe.XAck(ctx, taskStream, taskGroup, msgID)
		pipe.XDel(ctx, taskStream, msgID)
	}
	pipe.Set(ctx, taskKey(task.ID), data, taskTTL)
	pipe.Del(ctx, msgKey(task.ID))
	if retry {
		pipe.ZAdd(ctx, scheduledTasks, redis.Z{Score: float64(task.ScheduledFor.Unix()), Member: task.ID})
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (q *Queue) Ack(ctx context.Context, taskID string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	task.MarkCompleted()
	if err := q.finish(ctx, task, false); err != nil {
		return fmt.Errorf("ack task %s: %w", taskID, err)
	}
	return nil
}

// Nack retries with the task's backoff until attempts run out.
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	task, err := q.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	retry := task.CanRetry()
	if retry {
		task.Retry(reason)
	} else {
		task.MarkFailed(reason)
	}
	if err := q.finish(ctx, task, retry); err != nil {
		return fmt.Errorf("nack task %s: %w", taskID, err)
	}
	return nil
}

func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	data, err := q.client.Get(ctx, taskKey(taskID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", taskID, err)
	}
	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("decode task %s: %w", taskID, err)
	}
	return &task, nil
}

// indexed loads the bodies listed in an index, newest first. Entries whose
// body has expired are dropped from the index on the way.
func (q *Queue) indexed(ctx context.Context, index string) ([]*domain.Task, error) {
	ids, err := q.client.ZRevRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read task index: %w", err)
	}

	tasks := make([]*domain.Task, 0, len(ids))
	var stale []any
	for start := 0; start < len(ids); start += mgetChunk {
		chunk := ids[start:min(start+mgetChunk, len(ids))]
		keys := make([]string, len(chunk))
		for i, id := range chunk {
			keys[i] = taskKey(id)
		}

		values, err := q.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("load tasks: %w", err)
		}
		for i, v := range values {
			raw, ok := v.(string)
			if !ok {
				stale = append(stale, chunk[i])
				continue
			}
			var task domain.Task
			if json.Unmarshal([]byte(raw), &task) == nil {
				tasks = append(tasks, &task)
			}
		}
	}
	if len(stale) > 0 {
		q.client.ZRem(ctx, index, stale...)
	}
	return tasks, nil
}

// ListTasks reads the owner's index when the filter names one and the
// global index otherwise.
func (q *Queue) ListTasks(ctx context.Context, filter driven.TaskFilter) ([]*domain.Task, error) {
	all, err := q.indexed(ctx, indexKey(filter.OwnerID))
	if err != nil {
		return nil, err
	}

	matched := all[:0]
	for _, t := range all {
		if (filter.Status == "" || t.Status == filter.Status) && (filter.Type == "" || t.Type == filter.Type) {
			matched = append(matched, t)
		}
	}

	if filter.Offset >= len(matched) {
		return []*domain.Task{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	all, err := q.indexed(ctx, taskIndex)
	if err != nil {
		return nil, err
	}

	stats := &driven.QueueStats{}
	var oldest time.Time
	for _, t := range all {
		switch t.Status {
		case domain.TaskStatusPending:
			stats.PendingCount++
			if oldest.IsZero() || t.CreatedAt.Before(oldest) {
				oldest = t.CreatedAt
			}
		case domain.TaskStatusProcessing:
			stats.ProcessingCount++
		case domain.TaskStatusCompleted:
			stats.CompletedCount++
		case domain.TaskStatusFailed:
			stats.FailedCount++
		}
	}
	if !oldest.IsZero() {
		stats.OldestPendingAge = int64(time.Since(oldest).Seconds())
	}
	return stats, nil
}

func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close leaves the shared client open.
func (q *Queue) Close() error {
	return nil
}

// promote moves due delayed tasks onto the stream. ZRem decides the winner
// when several workers race for the same task.
func (q *Queue) promote(ctx context.Context) error {
	due, err := q.client.ZRangeByScore(ctx, scheduledTasks, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(time.Now().Unix(), 10),
	}).Result()
	if err != nil || len(due) == 0 {
		return err
	}

	pipe := q.client.Pipeline()
	for _, id := range due {
		if n, err := q.client.ZRem(ctx, scheduledTasks, id).Result(); err != nil || n == 0 {
			continue
		}
		task, err := q.GetTask(ctx, id)
		if err != nil {
			continue
		}
		pipe.XAdd(ctx, streamMessage(task))
	}
	_, err = pipe.Exec(ctx)
	return err
}

// reclaim takes over a message that another consumer received but never
// acknowledged within claimTimeout.
func (q *Queue) reclaim(ctx context.Context) (*domain.Task, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: taskStream,
		Group:  taskGroup,
		Start:  "-",
		End:    "+",
		Count:  10,
		Idle:   claimTimeout,
	}).Result()
	if err != nil {
		return nil, err
	}

	for _, p := range pending {
		msgs, err := q.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   taskStream,
			Group:    taskGroup,
			Consumer: q.consumer,
			MinIdle:  claimTimeout,
			Messages: []string{p.ID},
		}).Result()
		if err != nil || len(msgs) == 0 {
			continue
		}
		if task, err := q.begin(ctx, msgs[0]); err == nil && task != nil {
			return task, nil
		}
	}
	return nil, nil
}
