package domain

// GapType names a content gap surfaced on the dashboard
type GapType string

const (
	GapMissingReviews  GapType = "missing_reviews"
	GapOutdatedContent GapType = "outdated_content"
	GapLowAuthority    GapType = "low_authority"
	GapLowCoverage     GapType = "low_coverage"
	GapCompetitorAhead GapType = "competitor_ahead"
)

// Impact ranks how much a gap hurts visibility
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// GapFlag is an actionable weakness derived from a metric snapshot
type GapFlag struct {
	Type        GapType `json:"type"`
	Description string  `json:"description"`
	Impact      Impact  `json:"impact"`
}
