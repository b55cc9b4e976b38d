package metrics

import (
	"fmt"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// Gap thresholds
const (
	minEarnedSharePercent = 20.0
	minFreshnessScore     = 50.0
	minAuthorityReach     = 25.0
	minPromptCoverage     = 50.0
)

// DetectGaps derives actionable content gaps from a snapshot and the
// competitive report. Nothing is flagged for an owner without prompts.
func DetectGaps(s domain.MetricSnapshot, report *domain.CompetitiveReport) []domain.GapFlag {
	flags := []domain.GapFlag{}
	if s.TotalPrompts == 0 {
		return flags
	}

	if s.PromptCoverage < minPromptCoverage {
		flags = append(flags, domain.GapFlag{
			Type:        domain.GapLowCoverage,
			Description: fmt.Sprintf("Brand appears in only %.0f%% of tracked prompts", s.PromptCoverage),
			Impact:      domain.ImpactHigh,
		})
	}
	if s.AuthorityReach < minAuthorityReach {
		flags = append(flags, domain.GapFlag{
			Type:        domain.GapLowAuthority,
			Description: fmt.Sprintf("Only %d citations from high-authority domains", s.HighAuthorityCitations),
			Impact:      domain.ImpactHigh,
		})
	}
	if report != nil {
		for _, c := range report.Competitors {
			if c.Ahead {
				flags = append(flags, domain.GapFlag{
					Type:        domain.GapCompetitorAhead,
					Description: aheadDescription(c),
					Impact:      domain.ImpactHigh,
				})
			}
		}
	}
	if s.CitationCount > 0 && percent(s.CitationsByType.Earned, s.CitationCount) < minEarnedSharePercent {
		flags = append(flags, domain.GapFlag{
			Type:        domain.GapMissingReviews,
			Description: "Limited third-party review and press citations",
			Impact:      domain.ImpactMedium,
		})
	}
	if s.CitationCount > 0 && s.FreshnessScore < minFreshnessScore {
		flags = append(flags, domain.GapFlag{
			Type:        domain.GapOutdatedContent,
			Description: "Cited pages are going stale",
			Impact:      domain.ImpactLow,
		})
	}
	return flags
}

// aheadDescription explains why a competitor counts as ahead. With equal
// share of voice the lead comes from better ranks in shared prompts.
func aheadDescription(c domain.CompetitorComparison) string {
	if c.SOVGap > 0 {
		return fmt.Sprintf("%s leads share of voice by %.0f points", c.Name, c.SOVGap)
	}
	return fmt.Sprintf("%s matches brand share of voice but ranks %.1f places higher in shared prompts", c.Name, -c.AvgRankGap)
}
