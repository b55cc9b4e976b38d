package domain

import (
	"strings"
	"time"
)

// Competitor is a named rival brand tracked for share of voice
type Competitor struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Domains   []string  `json:"domains"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCompetitor creates a competitor with normalised domains.
func NewCompetitor(ownerID, name string, domains []string) *Competitor {
	normalised := make([]string, 0, len(domains))
	for _, d := range domains {
		if d = NormalizeDomain(d); d != "" {
			normalised = append(normalised, d)
		}
	}
	return &Competitor{
		ID:        GenerateID(),
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(name),
		Domains:   normalised,
		CreatedAt: time.Now(),
	}
}

// NormalizeDomain lowercases a host and strips scheme, "www." and any path.
func NormalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return strings.TrimPrefix(d, "www.")
}

// DomainMatches reports whether domain equals one of owned or is a subdomain of it.
func DomainMatches(domain string, owned []string) bool {
	domain = NormalizeDomain(domain)
	if domain == "" {
		return false
	}
	for _, o := range owned {
		o = NormalizeDomain(o)
		if o == "" {
			continue
		}
		if domain == o || strings.HasSuffix(domain, "."+o) {
			return true
		}
	}
	return false
}

// CompetitorStats is the analyzer output for one competitor
type CompetitorStats struct {
	CompetitorID  string  `json:"competitor_id"`
	Name          string  `json:"name"`
	ShareOfVoice  float64 `json:"sov"`
	OverlapIndex  float64 `json:"overlap_index"`
	AvgRankGap    float64 `json:"avg_rank_gap"`
	JointPrompts  int     `json:"joint_prompts"`
	CitationCount int     `json:"citation_count"`
}

// CompetitorComparison is the detailed brand vs competitor view.
// SOVGap is competitor SOV minus brand SOV in percentage points.
type CompetitorComparison struct {
	CompetitorStats
	BrandShareOfVoice float64 `json:"brand_sov"`
	SOVGap            float64 `json:"sov_gap"`
	Ahead             bool    `json:"ahead"`
}

// CompetitiveReport is the share-of-voice analysis for one owner
type CompetitiveReport struct {
	Brand             string                 `json:"brand"`
	BrandCitations    int                    `json:"brand_citations"`
	BrandShareOfVoice float64                `json:"brand_sov"`
	TotalCitations    int                    `json:"total_citations"`
	Competitors       []CompetitorComparison `json:"competitors"`
}

// TopicSource is a citing domain rolled up across all prompts
type TopicSource struct {
	Domain          string     `json:"domain"`
	CitationCount   int        `json:"citation_count"`
	SharePercent    float64    `json:"share_percent"`
	DomainAuthority int        `json:"domain_authority"`
	Type            DomainType `json:"type"`
	Prompts         []string   `json:"prompts"`
}

// EngineMentions counts prompts in which an engine mentioned the brand
type EngineMentions struct {
	Engine  Engine  `json:"engine"`
	Prompts int     `json:"prompts"`
	Percent float64 `json:"percent"`
}

// TopicReport is the traffic-source rollup for one owner
type TopicReport struct {
	Sources        []TopicSource    `json:"sources"`
	TotalCitations int              `json:"total_citations"`
	EngineMentions []EngineMentions `json:"engine_mentions"`
	TopEngine      *EngineMentions  `json:"top_engine,omitempty"`
}
