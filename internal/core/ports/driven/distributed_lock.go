package driven

import (
	"context"
	"time"
)

// DistributedLock coordinates singleton work (the scheduler) across instances.
type DistributedLock interface {
	// Acquire takes a named lock for ttl.
	// Returns false without error when another instance holds it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release is best-effort and safe to call on an expired lock.
	Release(ctx context.Context, name string) error

	Ping(ctx context.Context) error
}
