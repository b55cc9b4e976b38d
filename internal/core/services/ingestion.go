package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driving"
)

// Ensure ingestionService implements IngestionService
var _ driving.IngestionService = (*ingestionService)(nil)

// DefaultMaxPromptsPerUpload caps a single upload
const DefaultMaxPromptsPerUpload = 1000

type ingestionService struct {
	prompts    driven.PromptStore
	queue      driven.TaskQueue
	parsers    map[string]driven.PromptFileParser
	maxPrompts int
	logger     *slog.Logger
}

// NewIngestionService creates an IngestionService. Parsers are selected by
// the uploaded file's extension.
func NewIngestionService(
	prompts driven.PromptStore,
	queue driven.TaskQueue,
	parsers []driven.PromptFileParser,
	logger *slog.Logger,
) driving.IngestionService {
	if logger == nil {
		logger = slog.Default()
	}
	byExt := make(map[string]driven.PromptFileParser)
	for _, p := range parsers {
		for _, ext := range p.Extensions() {
			byExt[strings.ToLower(ext)] = p
		}
	}
	return &ingestionService{
		prompts:    prompts,
		queue:      queue,
		parsers:    byExt,
		maxPrompts: DefaultMaxPromptsPerUpload,
		logger:     logger,
	}
}

// Upload stores the file's prompts and schedules their processing.
// Nothing is stored when the file is unsupported, unreadable or empty.
func (s *ingestionService) Upload(ctx context.Context, ownerID, filename string, r io.Reader, category string) (*domain.IngestionReport, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	parser, ok := s.parsers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %w %q", domain.ErrInvalidInput, domain.ErrUnsupportedFile, ext)
	}

	cells, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidInput, filename, err)
	}

	report := &domain.IngestionReport{}
	seen := make(map[string]bool, len(cells))
	var prompts []*domain.Prompt
	for _, cell := range cells {
		text := strings.TrimSpace(cell)
		key := strings.ToLower(text)
		if text == "" || seen[key] {
			report.Skipped++
			continue
		}
		seen[key] = true
		prompts = append(prompts, domain.NewPrompt(ownerID, text, category))
	}

	if len(prompts) == 0 {
		return nil, fmt.Errorf("%w: no prompts found in %s", domain.ErrInvalidInput, filename)
	}
	if len(prompts) > s.maxPrompts {
		return nil, fmt.Errorf("%w: %d prompts exceeds the limit of %d", domain.ErrInvalidInput, len(prompts), s.maxPrompts)
	}

	if err := s.prompts.SaveBatch(ctx, prompts); err != nil {
		return nil, fmt.Errorf("%w: save prompts: %v", domain.ErrPersistence, err)
	}

	report.Accepted = len(prompts)
	report.PromptIDs = make([]string, len(prompts))
	for i, p := range prompts {
		report.PromptIDs[i] = p.ID
	}

	task := domain.NewProcessPromptsTask(ownerID, report.PromptIDs)
	if err := s.queue.Enqueue(ctx, task); err != nil {
		// Prompts stay unprocessed and can be picked up by POST /prompts/process
		s.logger.Warn("failed to enqueue prompt processing",
			"owner_id", ownerID, "prompts", report.Accepted, "error", err)
	} else {
		report.TaskID = task.ID
	}

	s.logger.Info("prompts uploaded",
		"owner_id", ownerID,
		"file", filename,
		"accepted", report.Accepted,
		"skipped", report.Skipped,
	)
	return report, nil
}
