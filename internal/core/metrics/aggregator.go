package metrics

import (
	"math"
	"sort"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// AggregatePrompt collapses all answers for one prompt into its prompt-level metrics.
func AggregatePrompt(cfg domain.EngineConfig, prompt *domain.Prompt, answers []*domain.Answer) domain.PromptMetrics {
	pm := domain.PromptMetrics{
		LLMCoverage:     []domain.Engine{},
		TopCitingDomain: domain.NoTopCitingDomain,
		SentimentType:   domain.SentimentNeutral,
	}
	if prompt != nil {
		pm.PromptID = prompt.ID
		pm.Text = prompt.Text
		pm.Category = prompt.Category
	}

	covered := make(map[domain.Engine]bool)
	var (
		rankSum      int
		ranked       int
		sentimentSum float64
		weightSum    float64
		topAuthority = -1
	)

	for _, a := range answers {
		if a == nil {
			continue
		}
		pm.AnswerCount++
		sentimentSum += a.Sentiment
		weightSum += cfg.Weight(a.Engine)

		if a.Mentioned() {
			rankSum += a.Rank
			ranked++
			if !covered[a.Engine] {
				covered[a.Engine] = true
				pm.LLMCoverage = append(pm.LLMCoverage, a.Engine)
			}
		}

		for _, c := range a.Citations {
			pm.CitationCount++
			// strict comparison keeps the first domain on ties
			if c.DomainAuthority > topAuthority {
				topAuthority = c.DomainAuthority
				pm.TopCitingDomain = c.Domain
			}
			if pm.FreshestCitation == nil || c.Freshness < *pm.FreshestCitation {
				f := c.Freshness
				pm.FreshestCitation = &f
			}
		}

		pm.CompetitorMentions = append(pm.CompetitorMentions, a.Mentions...)
	}

	sort.SliceStable(pm.LLMCoverage, func(i, j int) bool {
		oi, oj := cfg.Order(pm.LLMCoverage[i]), cfg.Order(pm.LLMCoverage[j])
		if oi != oj {
			return oi < oj
		}
		return pm.LLMCoverage[i] < pm.LLMCoverage[j]
	})

	if ranked > 0 {
		pm.VisibilityRank = int(math.Round(float64(rankSum) / float64(ranked)))
	}

	tracked := 0
	for _, e := range pm.LLMCoverage {
		if cfg.Tracks(e) {
			tracked++
		}
	}
	pm.AIR = percent(tracked, cfg.TotalEngines())

	if pm.AnswerCount > 0 {
		pm.Sentiment = sentimentSum / float64(pm.AnswerCount)
	}
	pm.SentimentType = PromptSentiment(cfg, pm.Sentiment)

	if scale := cfg.RankScale(); scale > 0 {
		pm.PromptVisibilityScore = weightSum * (1 - float64(pm.VisibilityRank)/scale) * 100
	}

	return pm
}

// AggregatePrompts aggregates every prompt in input order.
func AggregatePrompts(cfg domain.EngineConfig, records []domain.PromptWithAnswers) []domain.PromptMetrics {
	out := make([]domain.PromptMetrics, 0, len(records))
	for _, r := range records {
		out = append(out, AggregatePrompt(cfg, r.Prompt, r.Answers))
	}
	return out
}

// PromptSentiment labels a prompt's mean sentiment. The boundary itself is neutral.
func PromptSentiment(cfg domain.EngineConfig, sentiment float64) domain.SentimentType {
	t := cfg.SentimentThreshold()
	switch {
	case sentiment > t:
		return domain.SentimentPositive
	case sentiment < -t:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// MixBucket places one answer's sentiment in the mix. The boundary belongs to the outer bucket.
func MixBucket(cfg domain.EngineConfig, sentiment float64) domain.SentimentType {
	t := cfg.SentimentThreshold()
	switch {
	case sentiment >= t:
		return domain.SentimentPositive
	case sentiment <= -t:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// percent returns n/total*100, or 0 for an empty denominator.
func percent(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func mean(sum float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return sum / float64(n)
}
