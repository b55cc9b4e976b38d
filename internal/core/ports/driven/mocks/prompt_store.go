package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

var _ driven.PromptStore = (*MockPromptStore)(nil)

// MockPromptStore keeps prompts in memory
type MockPromptStore struct {
	mu      sync.RWMutex
	prompts map[string]*domain.Prompt

	SaveErr error
}

func NewMockPromptStore() *MockPromptStore {
	return &MockPromptStore{prompts: make(map[string]*domain.Prompt)}
}

func (m *MockPromptStore) Save(ctx context.Context, prompt *domain.Prompt) error {
	return m.SaveBatch(ctx, []*domain.Prompt{prompt})
}

func (m *MockPromptStore) SaveBatch(ctx context.Context, prompts []*domain.Prompt) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range prompts {
		m.prompts[p.ID] = p
	}
	return nil
}

func (m *MockPromptStore) Get(ctx context.Context, id string) (*domain.Prompt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.prompts[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockPromptStore) List(ctx context.Context, ownerID string, filter driven.PromptFilter) ([]*domain.Prompt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Prompt
	for _, p := range m.prompts {
		if p.OwnerID != ownerID {
			continue
		}
		if filter.Processed != nil && p.Processed != *filter.Processed {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		out = append(out, p)
	}
	sortPrompts(out)
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MockPromptStore) ListByIDs(ctx context.Context, ownerID string, ids []string) ([]*domain.Prompt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Prompt
	for _, id := range ids {
		if p, ok := m.prompts[id]; ok && p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockPromptStore) MarkProcessed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prompts[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Processed = true
	return nil
}

func (m *MockPromptStore) setProcessed(id string, processed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.prompts[id]; ok {
		p.Processed = processed
	}
}

func (m *MockPromptStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.prompts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.prompts, id)
	return nil
}

func sortPrompts(ps []*domain.Prompt) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].ID < ps[j].ID
		}
		return ps[i].CreatedAt.Before(ps[j].CreatedAt)
	})
}
