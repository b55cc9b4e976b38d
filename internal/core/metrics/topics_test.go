package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

func TestTopicSources(t *testing.T) {
	records := []domain.PromptWithAnswers{
		record(prompt("p1", "first prompt"),
			answer(domain.EngineChatGPT, 1, 0,
				cite("a.com", 70, domain.DomainEarned, 1),
				cite("b.com", 90, domain.DomainOwned, 1),
			),
			answer(domain.EngineGemini, 1, 0, cite("a.com", 70, domain.DomainEarned, 1)),
		),
		record(prompt("p2", "second prompt"),
			answer(domain.EngineClaude, 0, 0, cite("WWW.A.com", 75, domain.DomainEarned, 3)),
		),
	}

	sources, total := TopicSources(records)

	assert.Equal(t, 4, total)
	require.Len(t, sources, 2)

	assert.Equal(t, "a.com", sources[0].Domain)
	assert.Equal(t, 3, sources[0].CitationCount)
	assert.Equal(t, 75.0, sources[0].SharePercent)
	assert.Equal(t, 75, sources[0].DomainAuthority)
	assert.Equal(t, domain.DomainEarned, sources[0].Type)
	assert.Equal(t, []string{"first prompt", "second prompt"}, sources[0].Prompts)

	assert.Equal(t, "b.com", sources[1].Domain)
	assert.Equal(t, 25.0, sources[1].SharePercent)
	assert.Equal(t, domain.DomainOwned, sources[1].Type)
}

func TestTopicSources_Empty(t *testing.T) {
	sources, total := TopicSources(nil)
	assert.Empty(t, sources)
	assert.Equal(t, 0, total)
}

func TestTopEngine(t *testing.T) {
	cfg := domain.DefaultEngineConfig()
	prompts := []domain.PromptMetrics{
		{LLMCoverage: []domain.Engine{domain.EngineGemini, domain.EngineClaude}},
		{LLMCoverage: []domain.Engine{domain.EngineClaude}},
		{LLMCoverage: []domain.Engine{domain.EngineGemini}},
		{LLMCoverage: []domain.Engine{}},
	}

	mentions := EngineMentionCounts(cfg, prompts)
	require.Len(t, mentions, 4)
	assert.Equal(t, domain.EngineMentions{Engine: domain.EngineChatGPT, Prompts: 0, Percent: 0}, mentions[0])
	assert.Equal(t, 50.0, mentions[1].Percent)

	top := TopEngine(mentions)
	require.NotNil(t, top)
	assert.Equal(t, domain.EngineGemini, top.Engine, "ties go to the earlier engine")
	assert.Equal(t, 2, top.Prompts)
}

func TestTopEngine_NoMentions(t *testing.T) {
	cfg := domain.DefaultEngineConfig()
	assert.Nil(t, TopEngine(EngineMentionCounts(cfg, nil)))
}

func TestTopics(t *testing.T) {
	cfg := domain.DefaultEngineConfig()
	records := sampleRecords()

	report := Topics(cfg, records, AggregatePrompts(cfg, records))

	assert.Equal(t, 2, report.TotalCitations)
	assert.Len(t, report.Sources, 2)
	require.NotNil(t, report.TopEngine)
	assert.Equal(t, domain.EngineChatGPT, report.TopEngine.Engine)
}
