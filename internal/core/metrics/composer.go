package metrics

import (
	"math"
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// Headline visibility score weights. They sum to 1.
const (
	PromptVisibilityWeight = 0.5
	AuthorityReachWeight   = 0.2
	PromptCoverageWeight   = 0.2
	FreshnessWeight        = 0.1
)

// Compose combines the aggregated prompts and their raw answers into a snapshot.
// answers must be the same record set the prompts were aggregated from.
func Compose(cfg domain.EngineConfig, prompts []domain.PromptMetrics, answers []*domain.Answer, at time.Time) domain.MetricSnapshot {
	s := domain.MetricSnapshot{
		TotalPrompts: len(prompts),
		ComputedAt:   at,
	}

	var (
		pvsSum       float64
		freshnessSum float64
		rankSum      float64
		airSum       float64
	)
	for _, p := range prompts {
		pvsSum += p.PromptVisibilityScore
		freshnessSum += float64(p.Freshness())
		airSum += p.AIR
		if len(p.LLMCoverage) > 0 {
			s.CoveredPrompts++
		}
		if p.VisibilityRank > 0 {
			s.RankedPrompts++
			rankSum += float64(p.VisibilityRank)
			if p.VisibilityRank <= cfg.TopAnswerCutoff() {
				s.TopAnswers++
			}
		}
	}

	var (
		sentimentSum float64
		authoritySum float64
		mix          [3]int
	)
	for _, a := range answers {
		if a == nil {
			continue
		}
		s.TotalAnswers++
		sentimentSum += a.Sentiment
		switch MixBucket(cfg, a.Sentiment) {
		case domain.SentimentPositive:
			mix[0]++
		case domain.SentimentNeutral:
			mix[1]++
		default:
			mix[2]++
		}

		for _, c := range a.Citations {
			s.CitationCount++
			authoritySum += float64(c.DomainAuthority)
			if c.DomainAuthority >= cfg.HighAuthority() {
				s.HighAuthorityCitations++
			}
			switch c.Type {
			case domain.DomainOwned:
				s.CitationsByType.Owned++
			case domain.DomainCompetitor:
				s.CitationsByType.Competitor++
			default:
				s.CitationsByType.Earned++
			}
		}
	}

	s.AuthorityReach = math.Min(100, float64(s.HighAuthorityCitations)*cfg.AuthorityStep())
	s.PromptCoverage = percent(s.CoveredPrompts, s.TotalPrompts)
	s.AvgPromptVisibility = mean(pvsSum, s.TotalPrompts)
	s.AIR = mean(airSum, s.TotalPrompts)
	s.AvgDomainAuthority = mean(authoritySum, s.CitationCount)

	if s.TotalPrompts > 0 {
		s.FreshnessScore = math.Max(0, 100-mean(freshnessSum, s.TotalPrompts)*cfg.FreshnessDecay())
		s.VisibilityScore = int(math.Round(
			PromptVisibilityWeight*s.AvgPromptVisibility +
				AuthorityReachWeight*s.AuthorityReach +
				PromptCoverageWeight*s.PromptCoverage +
				FreshnessWeight*s.FreshnessScore,
		))
	}

	s.OverallRanking = mean(rankSum, s.RankedPrompts)
	s.TopAnswerRate = percent(s.TopAnswers, s.TotalPrompts)

	if s.TotalAnswers > 0 {
		s.AverageSentiment = sentimentSum / float64(s.TotalAnswers)
		s.SentimentScore = int(math.Round((s.AverageSentiment + 1) * 50))
		s.SentimentMix = domain.SentimentMix{
			Positive: int(math.Round(percent(mix[0], s.TotalAnswers))),
			Neutral:  int(math.Round(percent(mix[1], s.TotalAnswers))),
			Negative: int(math.Round(percent(mix[2], s.TotalAnswers))),
		}
	}

	return s
}

// Result bundles the prompt rollups with the snapshot composed from them
type Result struct {
	Prompts  []domain.PromptMetrics
	Snapshot domain.MetricSnapshot
}

// Aggregate runs the prompt aggregator and the score composer over one record set.
func Aggregate(cfg domain.EngineConfig, records []domain.PromptWithAnswers, at time.Time) Result {
	prompts := AggregatePrompts(cfg, records)
	return Result{
		Prompts:  prompts,
		Snapshot: Compose(cfg, prompts, flattenAnswers(records), at),
	}
}

func flattenAnswers(records []domain.PromptWithAnswers) []*domain.Answer {
	var out []*domain.Answer
	for _, r := range records {
		out = append(out, r.Answers...)
	}
	return out
}
