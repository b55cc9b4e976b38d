package metrics

import (
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// Records splits a snapshot into one typed record per metric type.
// Deltas are left at 0; run them through a DeltaTracker.
func Records(ownerID, brand, runID string, s domain.MetricSnapshot, at time.Time) []domain.MetricRecord {
	mk := func(t domain.MetricType, value float64, md domain.MetricMetadata) domain.MetricRecord {
		return domain.MetricRecord{
			ID:        domain.GenerateID(),
			OwnerID:   ownerID,
			RunID:     runID,
			Type:      t,
			Value:     value,
			Metadata:  md,
			CreatedAt: at,
		}
	}

	return []domain.MetricRecord{
		mk(domain.MetricVisibilityScore, float64(s.VisibilityScore), domain.VisibilityMetadata{
			Brand:               brand,
			AuthorityReach:      s.AuthorityReach,
			PromptCoverage:      s.PromptCoverage,
			FreshnessScore:      s.FreshnessScore,
			AvgPromptVisibility: s.AvgPromptVisibility,
		}),
		mk(domain.MetricOverallRanking, s.OverallRanking, domain.RankingMetadata{
			Brand:         brand,
			RankedPrompts: s.RankedPrompts,
		}),
		mk(domain.MetricTopAnswerRate, s.TopAnswerRate, domain.TopAnswerMetadata{
			Brand:        brand,
			TopAnswers:   s.TopAnswers,
			TotalPrompts: s.TotalPrompts,
		}),
		mk(domain.MetricSentimentScore, float64(s.SentimentScore), domain.SentimentMetadata{
			Brand:           brand,
			AvgSentiment:    s.AverageSentiment,
			Mix:             s.SentimentMix,
			AnswersAnalyzed: s.TotalAnswers,
		}),
		mk(domain.MetricCitationCount, float64(s.CitationCount), domain.CitationMetadata{
			Brand:              brand,
			AvgDomainAuthority: s.AvgDomainAuthority,
			HighAuthCitations:  s.HighAuthorityCitations,
			ByType:             s.CitationsByType,
		}),
		mk(domain.MetricAIR, s.AIR, domain.AIRMetadata{
			Brand:          brand,
			TotalPrompts:   s.TotalPrompts,
			CoveredPrompts: s.CoveredPrompts,
		}),
	}
}
