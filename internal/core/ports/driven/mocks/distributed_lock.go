package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*MockDistributedLock)(nil)

// MockDistributedLock tracks named locks with expiry in memory.
// AcquireFn overrides the default behaviour when set.
type MockDistributedLock struct {
	mu     sync.Mutex
	expiry map[string]time.Time

	AcquireFn func(name string, ttl time.Duration) (bool, error)
	PingErr   error

	Acquired int
	Released int
}

func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{expiry: make(map[string]time.Time)}
}

func (m *MockDistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if m.AcquireFn != nil {
		return m.AcquireFn(name, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if exp, ok := m.expiry[name]; ok && time.Now().Before(exp) {
		return false, nil
	}
	m.expiry[name] = time.Now().Add(ttl)
	m.Acquired++
	return true, nil
}

func (m *MockDistributedLock) Release(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.expiry, name)
	m.Released++
	return nil
}

func (m *MockDistributedLock) Ping(ctx context.Context) error {
	return m.PingErr
}

// Hold marks a lock as taken by another instance
func (m *MockDistributedLock) Hold(name string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expiry[name] = time.Now().Add(ttl)
}
