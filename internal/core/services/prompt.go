package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driving"
)

// Ensure promptService implements PromptService
var _ driving.PromptService = (*promptService)(nil)

const maxPromptPageSize = 500

type promptService struct {
	prompts driven.PromptStore
	answers driven.AnswerStore
	queue   driven.TaskQueue
	logger  *slog.Logger
}

// NewPromptService creates a new PromptService
func NewPromptService(
	prompts driven.PromptStore,
	answers driven.AnswerStore,
	queue driven.TaskQueue,
	logger *slog.Logger,
) driving.PromptService {
	if logger == nil {
		logger = slog.Default()
	}
	return &promptService{prompts: prompts, answers: answers, queue: queue, logger: logger}
}

func (s *promptService) List(ctx context.Context, ownerID string, filter driven.PromptFilter) ([]*domain.Prompt, error) {
	if filter.Limit <= 0 || filter.Limit > maxPromptPageSize {
		filter.Limit = maxPromptPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.prompts.List(ctx, ownerID, filter)
}

// owned loads a prompt and hides other owners' prompts behind ErrNotFound
func (s *promptService) owned(ctx context.Context, ownerID, id string) (*domain.Prompt, error) {
	prompt, err := s.prompts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if prompt.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return prompt, nil
}

func (s *promptService) Get(ctx context.Context, ownerID, id string) (*domain.PromptWithAnswers, error) {
	prompt, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	answers, err := s.answers.ListByPrompt(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	return &domain.PromptWithAnswers{Prompt: prompt, Answers: answers}, nil
}

func (s *promptService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.prompts.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("prompt deleted", "owner_id", ownerID, "prompt_id", id)
	return nil
}

// Reprocess drops stored answers of the given prompts and queues them again.
// With no ids, every unprocessed prompt of the owner is queued.
func (s *promptService) Reprocess(ctx context.Context, ownerID string, promptIDs []string) (*domain.Task, error) {
	for _, id := range promptIDs {
		prompt, err := s.owned(ctx, ownerID, id)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", id, err)
		}
		if !prompt.Processed {
			continue
		}
		if err := s.answers.DeleteByPrompt(ctx, id); err != nil {
			return nil, fmt.Errorf("clear answers of %s: %w", id, err)
		}
	}

	task := domain.NewProcessPromptsTask(ownerID, promptIDs)
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return nil, fmt.Errorf("enqueue processing: %w", err)
	}
	s.logger.Info("prompt processing queued", "owner_id", ownerID, "task_id", task.ID, "prompts", len(promptIDs))
	return task, nil
}
