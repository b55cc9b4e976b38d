package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// SentimentType labels a sentiment value
type SentimentType string

const (
	SentimentPositive SentimentType = "positive"
	SentimentNeutral  SentimentType = "neutral"
	SentimentNegative SentimentType = "negative"
)

// NoTopCitingDomain is reported when a prompt has no citations
const NoTopCitingDomain = "N/A"

// PromptMetrics is the prompt-level rollup of all engine answers for one prompt
type PromptMetrics struct {
	PromptID              string              `json:"prompt_id"`
	Text                  string              `json:"text"`
	Category              string              `json:"category,omitempty"`
	LLMCoverage           []Engine            `json:"llm_coverage"`
	VisibilityRank        int                 `json:"visibility_rank"`
	AIR                   float64             `json:"air"`
	CitationCount         int                 `json:"citation_count"`
	TopCitingDomain       string              `json:"top_citing_domain"`
	Sentiment             float64             `json:"sentiment"`
	SentimentType         SentimentType       `json:"sentiment_type"`
	FreshestCitation      *int                `json:"-"`
	PromptVisibilityScore float64             `json:"prompt_visibility_score"`
	AnswerCount           int                 `json:"answer_count"`
	CompetitorMentions    []CompetitorMention `json:"competitor_mentions,omitempty"`
}

// Freshness returns the minimum citation age in days, 0 when the prompt has no citations.
func (p PromptMetrics) Freshness() int {
	if p.FreshestCitation == nil {
		return 0
	}
	return *p.FreshestCitation
}

// HasFreshness reports whether any citation carried freshness data.
func (p PromptMetrics) HasFreshness() bool {
	return p.FreshestCitation != nil
}

// MarshalJSON resolves the optional freshness to its presentation default.
func (p PromptMetrics) MarshalJSON() ([]byte, error) {
	type alias PromptMetrics
	return json.Marshal(struct {
		alias
		Freshness int `json:"freshness"`
	}{alias: alias(p), Freshness: p.Freshness()})
}

// SentimentMix is the percentage of answers per sentiment bucket
type SentimentMix struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// CitationBreakdown counts citations per domain type
type CitationBreakdown struct {
	Owned      int `json:"owned"`
	Earned     int `json:"earned"`
	Competitor int `json:"competitor"`
}

// MetricSnapshot is the composite output of one aggregation run
type MetricSnapshot struct {
	VisibilityScore        int               `json:"visibility_score"`
	OverallRanking         float64           `json:"overall_ranking"`
	TopAnswerRate          float64           `json:"top_answer_rate"`
	SentimentScore         int               `json:"sentiment_score"`
	SentimentMix           SentimentMix      `json:"sentiment_mix"`
	AverageSentiment       float64           `json:"average_sentiment"`
	AIR                    float64           `json:"air"`
	AuthorityReach         float64           `json:"authority_reach"`
	PromptCoverage         float64           `json:"prompt_coverage"`
	FreshnessScore         float64           `json:"freshness_score"`
	AvgPromptVisibility    float64           `json:"avg_prompt_visibility"`
	CitationCount          int               `json:"citation_count"`
	AvgDomainAuthority     float64           `json:"avg_domain_authority"`
	HighAuthorityCitations int               `json:"high_authority_citations"`
	CitationsByType        CitationBreakdown `json:"citations_by_type"`
	TotalPrompts           int               `json:"total_prompts"`
	CoveredPrompts         int               `json:"covered_prompts"`
	RankedPrompts          int               `json:"ranked_prompts"`
	TopAnswers             int               `json:"top_answers"`
	TotalAnswers           int               `json:"total_answers"`
	ComputedAt             time.Time         `json:"computed_at"`
}

// MetricType discriminates stored metric records
type MetricType string

const (
	MetricVisibilityScore MetricType = "visibility_score"
	MetricOverallRanking  MetricType = "overall_ranking"
	MetricTopAnswerRate   MetricType = "top_answer_rate"
	MetricSentimentScore  MetricType = "sentiment_score"
	MetricCitationCount   MetricType = "citation_count"
	MetricAIR             MetricType = "air"
)

// AllMetricTypes lists every metric type written per aggregation run.
func AllMetricTypes() []MetricType {
	return []MetricType{
		MetricVisibilityScore,
		MetricOverallRanking,
		MetricTopAnswerRate,
		MetricSentimentScore,
		MetricCitationCount,
		MetricAIR,
	}
}

// ParseMetricType validates a metric type string.
func ParseMetricType(s string) (MetricType, error) {
	for _, t := range AllMetricTypes() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown metric type %q", ErrInvalidInput, s)
}

// MetricMetadata is the typed breakdown stored alongside a metric value.
// Each metric type has exactly one metadata struct.
type MetricMetadata interface {
	MetricType() MetricType
}

type VisibilityMetadata struct {
	Brand               string  `json:"brand"`
	AuthorityReach      float64 `json:"authority_reach"`
	PromptCoverage      float64 `json:"prompt_coverage"`
	FreshnessScore      float64 `json:"freshness_score"`
	AvgPromptVisibility float64 `json:"avg_prompt_visibility"`
}

type RankingMetadata struct {
	Brand         string `json:"brand"`
	RankedPrompts int    `json:"ranked_prompts"`
}

type TopAnswerMetadata struct {
	Brand        string `json:"brand"`
	TopAnswers   int    `json:"top_answers"`
	TotalPrompts int    `json:"total_prompts"`
}

type SentimentMetadata struct {
	Brand           string       `json:"brand"`
	AvgSentiment    float64      `json:"avg_sentiment"`
	Mix             SentimentMix `json:"sentiment_mix"`
	AnswersAnalyzed int          `json:"answers_analyzed"`
}

type CitationMetadata struct {
	Brand              string            `json:"brand"`
	AvgDomainAuthority float64           `json:"avg_domain_authority"`
	HighAuthCitations  int               `json:"high_auth_citations"`
	ByType             CitationBreakdown `json:"by_type"`
}

type AIRMetadata struct {
	Brand          string `json:"brand"`
	TotalPrompts   int    `json:"total_prompts"`
	CoveredPrompts int    `json:"covered_prompts"`
}

func (VisibilityMetadata) MetricType() MetricType { return MetricVisibilityScore }
func (RankingMetadata) MetricType() MetricType    { return MetricOverallRanking }
func (TopAnswerMetadata) MetricType() MetricType  { return MetricTopAnswerRate }
func (SentimentMetadata) MetricType() MetricType  { return MetricSentimentScore }
func (CitationMetadata) MetricType() MetricType   { return MetricCitationCount }
func (AIRMetadata) MetricType() MetricType        { return MetricAIR }

// DecodeMetadata unmarshals a stored metadata payload into the struct for its type.
func DecodeMetadata(t MetricType, raw []byte) (MetricMetadata, error) {
	var (
		md  MetricMetadata
		err error
	)
	switch t {
	case MetricVisibilityScore:
		var v VisibilityMetadata
		err = unmarshalMetadata(raw, &v)
		md = v
	case MetricOverallRanking:
		var v RankingMetadata
		err = unmarshalMetadata(raw, &v)
		md = v
	case MetricTopAnswerRate:
		var v TopAnswerMetadata
		err = unmarshalMetadata(raw, &v)
		md = v
	case MetricSentimentScore:
		var v SentimentMetadata
		err = unmarshalMetadata(raw, &v)
		md = v
	case MetricCitationCount:
		var v CitationMetadata
		err = unmarshalMetadata(raw, &v)
		md = v
	case MetricAIR:
		var v AIRMetadata
		err = unmarshalMetadata(raw, &v)
		md = v
	default:
		return nil, fmt.Errorf("%w: unknown metric type %q", ErrInvalidRecord, t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", t, err)
	}
	return md, nil
}

func unmarshalMetadata(raw []byte, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// MetricRecord is one persisted metric value of one aggregation run
type MetricRecord struct {
	ID        string         `json:"id"`
	OwnerID   string         `json:"owner_id"`
	RunID     string         `json:"run_id"`
	Type      MetricType     `json:"metric_type"`
	Value     float64        `json:"value"`
	Delta     float64        `json:"delta"`
	Metadata  MetricMetadata `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// UnmarshalJSON restores the concrete metadata struct from the type discriminator.
func (r *MetricRecord) UnmarshalJSON(data []byte) error {
	type alias MetricRecord
	aux := struct {
		*alias
		Metadata json.RawMessage `json:"metadata"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	md, err := DecodeMetadata(r.Type, aux.Metadata)
	if err != nil {
		return err
	}
	r.Metadata = md
	return nil
}

// MetricPoint is one historical value used for sparklines
type MetricPoint struct {
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}
