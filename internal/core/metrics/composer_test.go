package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleRecords() []domain.PromptWithAnswers {
	return []domain.PromptWithAnswers{
		record(prompt("p1", "best coffee for french press"),
			answer(domain.EngineChatGPT, 1, 0.9, cite("bluetokaicoffee.com", 90, domain.DomainOwned, 4)),
			answer(domain.EngineGemini, 3, 0.5),
		),
		record(prompt("p2", "cheapest specialty coffee subscription"),
			answer(domain.EngineChatGPT, 0, 0, cite("reviews.example.com", 50, domain.DomainEarned, 10)),
		),
	}
}

func TestCompose_WorkedExample(t *testing.T) {
	cfg := domain.DefaultEngineConfig()

	res := Aggregate(cfg, sampleRecords(), fixedTime)
	s := res.Snapshot

	require.Len(t, res.Prompts, 2)
	assert.InDelta(t, 54.3, s.AvgPromptVisibility, 1e-9)
	assert.Equal(t, 5.0, s.AuthorityReach)
	assert.Equal(t, 50.0, s.PromptCoverage)
	assert.InDelta(t, 65.0, s.FreshnessScore, 1e-9)
	// 0.5*54.3 + 0.2*5 + 0.2*50 + 0.1*65 = 44.65
	assert.Equal(t, 45, s.VisibilityScore)
	assert.Equal(t, 2.0, s.OverallRanking)
	assert.Equal(t, 50.0, s.TopAnswerRate)
	assert.InDelta(t, 1.4/3, s.AverageSentiment, 1e-9)
	assert.Equal(t, 73, s.SentimentScore)
	assert.Equal(t, domain.SentimentMix{Positive: 67, Neutral: 33, Negative: 0}, s.SentimentMix)
	assert.Equal(t, 2, s.CitationCount)
	assert.Equal(t, 70.0, s.AvgDomainAuthority)
	assert.Equal(t, 1, s.HighAuthorityCitations)
	assert.Equal(t, domain.CitationBreakdown{Owned: 1, Earned: 1}, s.CitationsByType)
	assert.Equal(t, 25.0, s.AIR)
	assert.Equal(t, 2, s.TotalPrompts)
	assert.Equal(t, 3, s.TotalAnswers)
	assert.Equal(t, fixedTime, s.ComputedAt)
}

func TestCompose_ZeroPrompts(t *testing.T) {
	cfg := domain.DefaultEngineConfig()

	s := Compose(cfg, nil, nil, fixedTime)

	assert.Equal(t, 0, s.VisibilityScore)
	assert.Equal(t, 0.0, s.OverallRanking)
	assert.Equal(t, 0.0, s.TopAnswerRate)
	assert.Equal(t, 0, s.SentimentScore)
	assert.Equal(t, domain.SentimentMix{}, s.SentimentMix)
	assert.Equal(t, 0.0, s.AuthorityReach)
	assert.Equal(t, 0.0, s.PromptCoverage)
	assert.Equal(t, 0.0, s.FreshnessScore)
	assert.Equal(t, 0.0, s.AvgDomainAuthority)
	assert.Equal(t, 0.0, s.AIR)
}

func TestCompose_PromptsWithoutAnswers(t *testing.T) {
	cfg := domain.DefaultEngineConfig()

	res := Aggregate(cfg, []domain.PromptWithAnswers{record(prompt("p1", "x"))}, fixedTime)

	assert.Equal(t, 0, res.Snapshot.SentimentScore)
	assert.Equal(t, 0.0, res.Snapshot.TopAnswerRate)
	assert.Equal(t, 0.0, res.Snapshot.OverallRanking)
	// freshness defaults to 0 days, authority and coverage are 0
	assert.Equal(t, 10, res.Snapshot.VisibilityScore)
}

func TestCompose_SentimentScoreExtremes(t *testing.T) {
	cfg := domain.DefaultEngineConfig()
	tests := []struct {
		sentiment float64
		want      int
	}{
		{1.0, 100},
		{-1.0, 0},
		{0, 50},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.sentiment), func(t *testing.T) {
			res := Aggregate(cfg, []domain.PromptWithAnswers{
				record(prompt("p1", "x"), answer(domain.EngineChatGPT, 1, tt.sentiment)),
			}, fixedTime)
			assert.Equal(t, tt.want, res.Snapshot.SentimentScore)
		})
	}
}

func TestCompose_SentimentMixRounding(t *testing.T) {
	cfg := domain.DefaultEngineConfig()

	sets := [][]float64{
		{0.5, 0, -0.5},
		{0.3, 0.29, -0.29, -0.3, 0.9, 0.1, 0.2},
		{1, 1, 1, 0, 0, 0, -1, -1, -1, 0.4, -0.4},
	}
	for i, sentiments := range sets {
		var answers []*domain.Answer
		for _, s := range sentiments {
			answers = append(answers, answer(domain.EngineChatGPT, 1, s))
		}
		res := Aggregate(cfg, []domain.PromptWithAnswers{record(prompt("p", "x"), answers...)}, fixedTime)
		mix := res.Snapshot.SentimentMix
		sum := mix.Positive + mix.Neutral + mix.Negative
		assert.InDelta(t, 100, sum, 2, "set %d: mix %+v", i, mix)
	}

	res := Aggregate(cfg, []domain.PromptWithAnswers{record(prompt("p", "x"),
		answer(domain.EngineChatGPT, 1, 0.5),
		answer(domain.EngineGemini, 1, 0),
		answer(domain.EngineClaude, 1, -0.5),
	)}, fixedTime)
	assert.Equal(t, domain.SentimentMix{Positive: 33, Neutral: 33, Negative: 33}, res.Snapshot.SentimentMix)
}

func TestCompose_AuthorityReachSaturates(t *testing.T) {
	cfg := domain.DefaultEngineConfig()
	tests := []struct {
		high int
		want float64
	}{
		{0, 0},
		{1, 5},
		{19, 95},
		{20, 100},
		{35, 100},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d high authority citations", tt.high), func(t *testing.T) {
			var citations []domain.CitingDomain
			for i := 0; i < tt.high; i++ {
				citations = append(citations, cite(fmt.Sprintf("site%d.com", i), 80+i%20, domain.DomainEarned, 1))
			}
			citations = append(citations, cite("low.com", 79, domain.DomainEarned, 1))
			res := Aggregate(cfg, []domain.PromptWithAnswers{
				record(prompt("p", "x"), answer(domain.EngineChatGPT, 1, 0, citations...)),
			}, fixedTime)
			assert.Equal(t, tt.want, res.Snapshot.AuthorityReach)
		})
	}
}

func TestCompose_VisibilityMonotonicInPromptVisibility(t *testing.T) {
	cfg := domain.DefaultEngineConfig()
	base := domain.PromptMetrics{PromptID: "p", LLMCoverage: []domain.Engine{domain.EngineChatGPT}, VisibilityRank: 2}

	prev := -1
	for _, pvs := range []float64{0, 10, 25, 50, 75, 99, 140} {
		pm := base
		pm.PromptVisibilityScore = pvs
		s := Compose(cfg, []domain.PromptMetrics{pm}, nil, fixedTime)
		assert.GreaterOrEqual(t, s.VisibilityScore, prev, "pvs %v", pvs)
		prev = s.VisibilityScore
	}
}

func TestCompose_RankingAndTopAnswers(t *testing.T) {
	cfg := domain.DefaultEngineConfig()
	prompts := []domain.PromptMetrics{
		{PromptID: "a", VisibilityRank: 1, LLMCoverage: []domain.Engine{domain.EngineChatGPT}},
		{PromptID: "b", VisibilityRank: 3, LLMCoverage: []domain.Engine{domain.EngineGemini}},
		{PromptID: "c", VisibilityRank: 8, LLMCoverage: []domain.Engine{domain.EngineClaude}},
		{PromptID: "d", VisibilityRank: 0, LLMCoverage: []domain.Engine{}},
	}

	s := Compose(cfg, prompts, nil, fixedTime)

	assert.InDelta(t, 4.0, s.OverallRanking, 1e-9, "unranked prompts are excluded")
	assert.Equal(t, 50.0, s.TopAnswerRate)
	assert.Equal(t, 75.0, s.PromptCoverage)
	assert.Equal(t, 3, s.RankedPrompts)
	assert.Equal(t, 2, s.TopAnswers)
}

func TestCompose_FreshnessScoreFloorsAtZero(t *testing.T) {
	cfg := domain.DefaultEngineConfig()
	stale := 45
	s := Compose(cfg, []domain.PromptMetrics{{PromptID: "a", FreshestCitation: &stale}}, nil, fixedTime)
	assert.Equal(t, 0.0, s.FreshnessScore)
}

func TestAggregate_Idempotent(t *testing.T) {
	cfg := domain.DefaultEngineConfig()
	records := sampleRecords()

	first := Aggregate(cfg, records, fixedTime)
	second := Aggregate(cfg, records, fixedTime)

	assert.Equal(t, first.Snapshot, second.Snapshot)
	assert.Equal(t, first.Prompts, second.Prompts)
}
