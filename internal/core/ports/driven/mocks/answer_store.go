package mocks

import (
	"context"
	"sync"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

var _ driven.AnswerStore = (*MockAnswerStore)(nil)

// MockAnswerStore keeps answers in memory. ListByOwner joins against the
// prompt store it was created with.
type MockAnswerStore struct {
	mu      sync.RWMutex
	prompts *MockPromptStore
	answers map[string][]*domain.Answer

	SaveErr error
	ListErr error
}

func NewMockAnswerStore(prompts *MockPromptStore) *MockAnswerStore {
	return &MockAnswerStore{
		prompts: prompts,
		answers: make(map[string][]*domain.Answer),
	}
}

func (m *MockAnswerStore) Save(ctx context.Context, answer *domain.Answer) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.answers[answer.PromptID] {
		if a.Engine == answer.Engine {
			return domain.ErrAlreadyExists
		}
	}
	m.answers[answer.PromptID] = append(m.answers[answer.PromptID], answer)
	return nil
}

func (m *MockAnswerStore) ListByPrompt(ctx context.Context, promptID string) ([]*domain.Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.Answer(nil), m.answers[promptID]...), nil
}

func (m *MockAnswerStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.PromptWithAnswers, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	processed := true
	prompts, err := m.prompts.List(ctx, ownerID, driven.PromptFilter{Processed: &processed})
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.PromptWithAnswers, 0, len(prompts))
	for _, p := range prompts {
		out = append(out, domain.PromptWithAnswers{
			Prompt:  p,
			Answers: append([]*domain.Answer(nil), m.answers[p.ID]...),
		})
	}
	return out, nil
}

func (m *MockAnswerStore) DeleteByPrompt(ctx context.Context, promptID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.answers, promptID)
	if m.prompts != nil {
		m.prompts.setProcessed(promptID, false)
	}
	return nil
}

// Count returns the number of stored answers across prompts
func (m *MockAnswerStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, as := range m.answers {
		n += len(as)
	}
	return n
}
