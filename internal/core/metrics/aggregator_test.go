package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

func TestAggregatePrompt_NoMentions(t *testing.T) {
	cfg := domain.DefaultEngineConfig()
	p := prompt("p1", "best coffee beans in india")

	pm := AggregatePrompt(cfg, p, []*domain.Answer{
		answer(domain.EngineChatGPT, 0, 0.1),
		answer(domain.EngineGemini, 0, -0.2),
	})

	assert.Equal(t, 0, pm.VisibilityRank)
	assert.Empty(t, pm.LLMCoverage)
	assert.NotNil(t, pm.LLMCoverage)
	assert.Equal(t, 0.0, pm.AIR)
	assert.Equal(t, 2, pm.AnswerCount)
	// rank 0 keeps the normalised rank factor at 1
	assert.InDelta(t, 70.0, pm.PromptVisibilityScore, 1e-9)
}

func TestAggregatePrompt_TwoOfFourEngines(t *testing.T) {
	cfg := domain.DefaultEngineConfig()
	p := prompt("p1", "which coffee brand is best for pour over")

	pm := AggregatePrompt(cfg, p, []*domain.Answer{
		answer(domain.EngineGemini, 3, 0.5),
		answer(domain.EngineChatGPT, 1, 0.9),
	})

	assert.Equal(t, []domain.Engine{domain.EngineChatGPT, domain.EngineGemini}, pm.LLMCoverage)
	assert.Equal(t, 50.0, pm.AIR)
	assert.Equal(t, 2, pm.VisibilityRank)
	assert.InDelta(t, 0.7, pm.Sentiment, 1e-9)
	assert.Equal(t, domain.SentimentPositive, pm.SentimentType)
	assert.InDelta(t, 0.7*0.98*100, pm.PromptVisibilityScore, 1e-9)
	assert.Equal(t, "p1", pm.PromptID)
}

func TestAggregatePrompt_RankRounding(t *testing.T) {
	cfg := domain.DefaultEngineConfig()

	pm := AggregatePrompt(cfg, prompt("p1", "x"), []*domain.Answer{
		answer(domain.EngineChatGPT, 1, 0),
		answer(domain.EngineGemini, 2, 0),
		answer(domain.EngineClaude, 0, 0),
	})

	// mean of 1 and 2 rounds half up; the rank-0 answer is excluded
	assert.Equal(t, 2, pm.VisibilityRank)
}

func TestAggregatePrompt_DuplicateEngineCountedOnce(t *testing.T) {
	cfg := domain.DefaultEngineConfig()

	pm := AggregatePrompt(cfg, prompt("p1", "x"), []*domain.Answer{
		answer(domain.EngineChatGPT, 1, 0),
		answer(domain.EngineChatGPT, 3, 0),
	})

	assert.Equal(t, []domain.Engine{domain.EngineChatGPT}, pm.LLMCoverage)
	assert.Equal(t, 25.0, pm.AIR)
	assert.Equal(t, 2, pm.VisibilityRank)
}

func TestAggregatePrompt_Citations(t *testing.T) {
	cfg := domain.DefaultEngineConfig()

	pm := AggregatePrompt(cfg, prompt("p1", "x"), []*domain.Answer{
		answer(domain.EngineChatGPT, 1, 0,
			cite("blog.example.com", 60, domain.DomainEarned, 12),
			cite("first.com", 90, domain.DomainEarned, 7),
		),
		answer(domain.EnginePerplexity, 2, 0,
			cite("second.com", 90, domain.DomainOwned, 3),
			cite("first.com", 90, domain.DomainEarned, 7),
		),
	})

	assert.Equal(t, 4, pm.CitationCount, "citations are not deduplicated across engines")
	assert.Equal(t, "first.com", pm.TopCitingDomain, "first encountered domain wins authority ties")
	assert.True(t, pm.HasFreshness())
	assert.Equal(t, 3, pm.Freshness())
}

func TestAggregatePrompt_NoCitations(t *testing.T) {
	cfg := domain.DefaultEngineConfig()

	pm := AggregatePrompt(cfg, prompt("p1", "x"), []*domain.Answer{
		answer(domain.EngineChatGPT, 1, 0.2),
	})

	assert.Equal(t, 0, pm.CitationCount)
	assert.Equal(t, domain.NoTopCitingDomain, pm.TopCitingDomain)
	assert.False(t, pm.HasFreshness())
	assert.Equal(t, 0, pm.Freshness())
}

func TestAggregatePrompt_NoAnswers(t *testing.T) {
	cfg := domain.DefaultEngineConfig()

	pm := AggregatePrompt(cfg, prompt("p1", "x"), nil)

	assert.Equal(t, 0, pm.AnswerCount)
	assert.Equal(t, 0.0, pm.Sentiment)
	assert.Equal(t, domain.SentimentNeutral, pm.SentimentType)
	assert.Equal(t, 0.0, pm.PromptVisibilityScore)
}

func TestAggregatePrompt_UnknownEngine(t *testing.T) {
	cfg := domain.DefaultEngineConfig()

	pm := AggregatePrompt(cfg, prompt("p1", "x"), []*domain.Answer{
		answer(domain.Engine("Copilot"), 1, 0),
		answer(domain.EngineClaude, 1, 0),
	})

	assert.Equal(t, []domain.Engine{domain.EngineClaude, domain.Engine("Copilot")}, pm.LLMCoverage)
	assert.Equal(t, 25.0, pm.AIR, "untracked engines do not count toward AIR")
	assert.InDelta(t, 0.2*0.99*100, pm.PromptVisibilityScore, 1e-9)
}

func TestAggregatePrompt_CustomRankScale(t *testing.T) {
	cfg, err := domain.NewEngineConfig(
		[]domain.EngineWeight{{Engine: domain.EngineChatGPT, Weight: 1}},
		domain.WithRankScale(10),
	)
	assert.NoError(t, err)

	pm := AggregatePrompt(cfg, prompt("p1", "x"), []*domain.Answer{answer(domain.EngineChatGPT, 4, 0)})

	assert.InDelta(t, 60.0, pm.PromptVisibilityScore, 1e-9)
	assert.Equal(t, 100.0, pm.AIR)
}

func TestAggregatePrompt_ZeroConfigStaysFinite(t *testing.T) {
	var cfg domain.EngineConfig

	pm := AggregatePrompt(cfg, prompt("p1", "x"), []*domain.Answer{answer(domain.EngineChatGPT, 2, 0.4)})

	assert.False(t, math.IsNaN(pm.PromptVisibilityScore) || math.IsInf(pm.PromptVisibilityScore, 0))
	assert.Equal(t, 0.0, pm.PromptVisibilityScore)
	assert.Equal(t, 0.0, pm.AIR)
	assert.Equal(t, 2, pm.VisibilityRank)
}

func TestPromptSentimentBoundaries(t *testing.T) {
	cfg := domain.DefaultEngineConfig()
	tests := []struct {
		sentiment float64
		label     domain.SentimentType
		bucket    domain.SentimentType
	}{
		{0.31, domain.SentimentPositive, domain.SentimentPositive},
		{0.3, domain.SentimentNeutral, domain.SentimentPositive},
		{0, domain.SentimentNeutral, domain.SentimentNeutral},
		{-0.3, domain.SentimentNeutral, domain.SentimentNegative},
		{-0.31, domain.SentimentNegative, domain.SentimentNegative},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.label, PromptSentiment(cfg, tt.sentiment), "label for %v", tt.sentiment)
		assert.Equal(t, tt.bucket, MixBucket(cfg, tt.sentiment), "bucket for %v", tt.sentiment)
	}
}

func TestAggregatePrompts_PreservesOrder(t *testing.T) {
	cfg := domain.DefaultEngineConfig()
	out := AggregatePrompts(cfg, []domain.PromptWithAnswers{
		record(prompt("b", "second")),
		record(prompt("a", "first")),
	})

	assert.Len(t, out, 2)
	assert.Equal(t, "b", out[0].PromptID)
	assert.Equal(t, "a", out[1].PromptID)
}
