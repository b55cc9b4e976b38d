package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

var (
	_ driven.MetricStore    = (*MockMetricStore)(nil)
	_ driven.DashboardCache = (*MockDashboardCache)(nil)
)

// MockMetricStore appends runs in memory
type MockMetricStore struct {
	mu   sync.RWMutex
	runs map[string][][]domain.MetricRecord

	SaveErr error
}

func NewMockMetricStore() *MockMetricStore {
	return &MockMetricStore{runs: make(map[string][][]domain.MetricRecord)}
}

func (m *MockMetricStore) SaveRun(ctx context.Context, records []domain.MetricRecord) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if len(records) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	owner := records[0].OwnerID
	m.runs[owner] = append(m.runs[owner], append([]domain.MetricRecord(nil), records...))
	return nil
}

func (m *MockMetricStore) Latest(ctx context.Context, ownerID string) ([]domain.MetricRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := m.runs[ownerID]
	if len(runs) == 0 {
		return nil, nil
	}
	return append([]domain.MetricRecord(nil), runs[len(runs)-1]...), nil
}

func (m *MockMetricStore) History(ctx context.Context, ownerID string, metricType domain.MetricType, limit int) ([]domain.MetricRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.MetricRecord
	runs := m.runs[ownerID]
	for i := len(runs) - 1; i >= 0; i-- {
		for _, r := range runs[i] {
			if r.Type == metricType {
				out = append(out, r)
			}
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Runs returns how many runs were stored for the owner
func (m *MockMetricStore) Runs(ownerID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs[ownerID])
}

// MockDashboardCache is an in-memory dashboard cache ignoring TTLs
type MockDashboardCache struct {
	mu    sync.Mutex
	items map[string]*domain.Dashboard

	Hits          int
	InvalidateErr error
}

func NewMockDashboardCache() *MockDashboardCache {
	return &MockDashboardCache{items: make(map[string]*domain.Dashboard)}
}

func (m *MockDashboardCache) Get(ctx context.Context, ownerID string) (*domain.Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.items[ownerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	m.Hits++
	return d, nil
}

func (m *MockDashboardCache) Set(ctx context.Context, ownerID string, dashboard *domain.Dashboard, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[ownerID] = dashboard
	return nil
}

func (m *MockDashboardCache) Invalidate(ctx context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InvalidateErr != nil {
		return m.InvalidateErr
	}
	delete(m.items, ownerID)
	return nil
}
