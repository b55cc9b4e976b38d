package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driving"
)

func TestPromptService_GetAndList(t *testing.T) {
	f := newFixture(t)
	svc := NewPromptService(f.prompts, f.answers, f.queue, nil)
	ctx := context.Background()

	p := f.addPrompt(t, "best CRM", true)
	f.addAnswer(t, p.ID, domain.EngineChatGPT, 1, 0.5)
	f.addPrompt(t, "cheap CRM", false)
	foreign := domain.NewPrompt("someone-else", "their prompt", "")
	require.NoError(t, f.prompts.Save(ctx, foreign))

	got, err := svc.Get(ctx, testOwner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "best CRM", got.Prompt.Text)
	assert.Len(t, got.Answers, 1)

	_, err = svc.Get(ctx, testOwner, foreign.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "other owners' prompts are invisible")

	all, err := svc.List(ctx, testOwner, driven.PromptFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	processed := true
	done, err := svc.List(ctx, testOwner, driven.PromptFilter{Processed: &processed})
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, p.ID, done[0].ID)

	page, err := svc.List(ctx, testOwner, driven.PromptFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestPromptService_Delete(t *testing.T) {
	f := newFixture(t)
	svc := NewPromptService(f.prompts, f.answers, f.queue, nil)
	ctx := context.Background()

	p := f.addPrompt(t, "best CRM", true)
	foreign := domain.NewPrompt("someone-else", "theirs", "")
	require.NoError(t, f.prompts.Save(ctx, foreign))

	assert.ErrorIs(t, svc.Delete(ctx, testOwner, foreign.ID), domain.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, testOwner, p.ID))
	_, err := f.prompts.Get(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPromptService_Reprocess(t *testing.T) {
	f := newFixture(t)
	svc := NewPromptService(f.prompts, f.answers, f.queue, nil)
	ctx := context.Background()

	p := f.addPrompt(t, "best CRM", true)
	f.addAnswer(t, p.ID, domain.EngineChatGPT, 1, 0.5)

	task, err := svc.Reprocess(ctx, testOwner, []string{p.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskTypeProcessPrompts, task.Type)
	assert.Equal(t, []string{p.ID}, task.PromptIDs())
	assert.Zero(t, f.answers.Count(), "stored answers are cleared")
	reloaded, err := f.prompts.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Processed)

	all, err := svc.Reprocess(ctx, testOwner, nil)
	require.NoError(t, err)
	assert.Empty(t, all.PromptIDs(), "no ids means every unprocessed prompt")

	_, err = svc.Reprocess(ctx, testOwner, []string{"missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompetitorService(t *testing.T) {
	f := newFixture(t)
	svc := NewCompetitorService(f.competitors, f.cache, nil)
	ctx := context.Background()
	_ = f.cache.Set(ctx, testOwner, &domain.Dashboard{}, 0)

	c, err := svc.Add(ctx, testOwner, driving.AddCompetitorRequest{
		Name:    " RivalCRM ",
		Domains: []string{"https://www.RivalCRM.com/pricing"},
	})
	require.NoError(t, err)
	assert.Equal(t, "RivalCRM", c.Name)
	assert.Equal(t, []string{"rivalcrm.com"}, c.Domains)
	_, err = f.cache.Get(ctx, testOwner)
	assert.ErrorIs(t, err, domain.ErrNotFound, "dashboard cache dropped")

	_, err = svc.Add(ctx, testOwner, driving.AddCompetitorRequest{Name: "RivalCRM", Domains: []string{"rival.io"}})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	_, err = svc.Add(ctx, testOwner, driving.AddCompetitorRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Add(ctx, testOwner, driving.AddCompetitorRequest{Name: "NoDomains"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := svc.List(ctx, testOwner)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, svc.Remove(ctx, "someone-else", c.ID), domain.ErrNotFound)
	require.NoError(t, svc.Remove(ctx, testOwner, c.ID))
	list, _ = svc.List(ctx, testOwner)
	assert.Empty(t, list)
}

func TestCompetitorService_CacheFailureLogged(t *testing.T) {
	f := newFixture(t)
	f.cache.InvalidateErr = errors.New("redis: connection refused")
	var logs strings.Builder
	svc := NewCompetitorService(f.competitors, f.cache, slog.New(slog.NewTextHandler(&logs, nil)))
	ctx := context.Background()

	c, err := svc.Add(ctx, testOwner, driving.AddCompetitorRequest{Name: "RivalCRM", Domains: []string{"rivalcrm.com"}})
	require.NoError(t, err, "a cache failure does not fail the change")
	require.NoError(t, svc.Remove(ctx, testOwner, c.ID))

	out := logs.String()
	assert.Equal(t, 2, strings.Count(out, "failed to invalidate dashboard cache"))
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "owner_id="+testOwner)
}
