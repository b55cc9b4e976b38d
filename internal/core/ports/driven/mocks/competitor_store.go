package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

var _ driven.CompetitorStore = (*MockCompetitorStore)(nil)

// MockCompetitorStore keeps competitors in memory
type MockCompetitorStore struct {
	mu          sync.RWMutex
	competitors map[string]*domain.Competitor
}

func NewMockCompetitorStore() *MockCompetitorStore {
	return &MockCompetitorStore{competitors: make(map[string]*domain.Competitor)}
}

func (m *MockCompetitorStore) Save(ctx context.Context, c *domain.Competitor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.competitors {
		if existing.OwnerID == c.OwnerID && existing.Name == c.Name && existing.ID != c.ID {
			return domain.ErrAlreadyExists
		}
	}
	m.competitors[c.ID] = c
	return nil
}

func (m *MockCompetitorStore) Get(ctx context.Context, id string) (*domain.Competitor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.competitors[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockCompetitorStore) List(ctx context.Context, ownerID string) ([]*domain.Competitor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Competitor
	for _, c := range m.competitors {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockCompetitorStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.competitors[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.competitors, id)
	return nil
}
