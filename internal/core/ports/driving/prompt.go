package driving

import (
	"context"
	"io"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

// IngestionService turns uploaded prompt files into tracked prompts
type IngestionService interface {
	// Upload parses the file by extension, stores one prompt per non-empty
	// first-column cell and enqueues a process_prompts task.
	Upload(ctx context.Context, ownerID, filename string, r io.Reader, category string) (*domain.IngestionReport, error)
}

// PromptProcessor queries every configured engine for prompts and stores the
// analysed answers.
type PromptProcessor interface {
	// Process handles the given prompts, or every unprocessed prompt when ids is empty
	Process(ctx context.Context, ownerID string, promptIDs []string) (*domain.ProcessReport, error)
}

// PromptService manages tracked prompts
type PromptService interface {
	List(ctx context.Context, ownerID string, filter driven.PromptFilter) ([]*domain.Prompt, error)

	// Get returns the prompt with its answers and citations
	Get(ctx context.Context, ownerID, id string) (*domain.PromptWithAnswers, error)

	Delete(ctx context.Context, ownerID, id string) error

	// Reprocess clears existing answers and enqueues the prompts again
	Reprocess(ctx context.Context, ownerID string, promptIDs []string) (*domain.Task, error)
}

// CompetitorService manages the competitors a brand is compared against
type CompetitorService interface {
	Add(ctx context.Context, ownerID string, req AddCompetitorRequest) (*domain.Competitor, error)
	List(ctx context.Context, ownerID string) ([]*domain.Competitor, error)
	Remove(ctx context.Context, ownerID, id string) error
}

// AddCompetitorRequest describes a competitor to track
type AddCompetitorRequest struct {
	Name    string   `json:"name"`
	Domains []string `json:"domains"`
}
