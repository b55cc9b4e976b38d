package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven/mocks"
)

func newTestIngestionService(f *fixture) *ingestionService {
	parsers := []driven.PromptFileParser{&mocks.MockPromptFileParser{Exts: []string{".csv", ".XLSX"}}}
	return NewIngestionService(f.prompts, f.queue, parsers, nil).(*ingestionService)
}

func TestIngestionService_Upload(t *testing.T) {
	f := newFixture(t)
	svc := newTestIngestionService(f)
	ctx := context.Background()

	file := "prompt\nbest CRM for startups\n\n  \nBest CRM for startups\nCRM with email automation\n"
	report, err := svc.Upload(ctx, testOwner, "prompts.CSV", strings.NewReader(file), "crm")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Accepted)
	assert.Equal(t, 4, report.Skipped, "blank cells and a case-insensitive duplicate")
	assert.Len(t, report.PromptIDs, 2)
	assert.NotEmpty(t, report.TaskID)

	unprocessed := false
	stored, err := f.prompts.List(ctx, testOwner, driven.PromptFilter{Processed: &unprocessed})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "crm", stored[0].Category)

	tasks := f.queue.Enqueued(domain.TaskTypeProcessPrompts)
	require.Len(t, tasks, 1)
	assert.Equal(t, report.TaskID, tasks[0].ID)
	assert.ElementsMatch(t, report.PromptIDs, tasks[0].PromptIDs())
}

func TestIngestionService_Upload_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		wantErr  error
	}{
		{"unsupported extension", "prompts.pdf", "prompt\nx\n", domain.ErrUnsupportedFile},
		{"legacy excel workbook", "prompts.xls", "prompt\nx\n", domain.ErrUnsupportedFile},
		{"no extension", "prompts", "prompt\nx\n", domain.ErrInvalidInput},
		{"header only", "prompts.csv", "prompt\n", domain.ErrInvalidInput},
		{"only blank cells", "prompts.xlsx", "prompt\n \n\n", domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			svc := newTestIngestionService(f)

			_, err := svc.Upload(context.Background(), testOwner, tt.filename, strings.NewReader(tt.content), "")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)

			all, _ := f.prompts.List(context.Background(), testOwner, driven.PromptFilter{})
			assert.Empty(t, all, "nothing is stored for a rejected upload")
			assert.Empty(t, f.queue.Enqueued(domain.TaskTypeProcessPrompts))
		})
	}
}

func TestIngestionService_Upload_TooMany(t *testing.T) {
	f := newFixture(t)
	svc := newTestIngestionService(f)
	svc.maxPrompts = 2

	_, err := svc.Upload(context.Background(), testOwner, "p.csv", strings.NewReader("h\na\nb\nc\n"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngestionService_Upload_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.prompts.SaveErr = errors.New("connection reset")
	svc := newTestIngestionService(f)

	_, err := svc.Upload(context.Background(), testOwner, "p.csv", strings.NewReader("h\na\n"), "")
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Empty(t, f.queue.Enqueued(domain.TaskTypeProcessPrompts))
}

func TestIngestionService_Upload_QueueFailure(t *testing.T) {
	f := newFixture(t)
	f.queue.EnqueueErr = errors.New("redis down")
	svc := newTestIngestionService(f)

	report, err := svc.Upload(context.Background(), testOwner, "p.csv", strings.NewReader("h\na\n"), "")
	require.NoError(t, err, "prompts are kept for manual processing")
	assert.Equal(t, 1, report.Accepted)
	assert.Empty(t, report.TaskID)
}
