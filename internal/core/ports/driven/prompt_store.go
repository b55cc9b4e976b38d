package driven

import (
	"context"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// PromptFilter narrows prompt listings
type PromptFilter struct {
	// Processed filters on the processed flag when non-nil
	Processed *bool
	Category  string
	Limit     int
	Offset    int
}

// PromptStore handles prompt persistence (PostgreSQL)
type PromptStore interface {
	Save(ctx context.Context, prompt *domain.Prompt) error

	// SaveBatch inserts all prompts in one transaction
	SaveBatch(ctx context.Context, prompts []*domain.Prompt) error

	Get(ctx context.Context, id string) (*domain.Prompt, error)

	List(ctx context.Context, ownerID string, filter PromptFilter) ([]*domain.Prompt, error)

	// ListByIDs returns the owner's prompts among ids, ignoring unknown ids
	ListByIDs(ctx context.Context, ownerID string, ids []string) ([]*domain.Prompt, error)

	MarkProcessed(ctx context.Context, id string) error

	// Delete removes the prompt and cascades to its answers and citations
	Delete(ctx context.Context, id string) error
}

// AnswerStore handles answer and citation persistence (PostgreSQL)
type AnswerStore interface {
	// Save stores an answer with its citations atomically.
	// Returns ErrAlreadyExists if the prompt already has an answer from that engine.
	Save(ctx context.Context, answer *domain.Answer) error

	ListByPrompt(ctx context.Context, promptID string) ([]*domain.Answer, error)

	// ListByOwner loads the owner's processed prompts with every answer and
	// citation in one consistent read. This is the aggregation input.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.PromptWithAnswers, error)

	// DeleteByPrompt removes all answers of a prompt and marks it unprocessed
	// again, for re-processing
	DeleteByPrompt(ctx context.Context, promptID string) error
}
