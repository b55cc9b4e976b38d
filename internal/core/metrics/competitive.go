package metrics

import (
	"sort"
	"strings"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// Brand identifies the tracked brand for citation attribution
type Brand struct {
	Name    string
	Domains []string
}

// ShareOfVoice is an entity's share of all attributed citations, in percent.
func ShareOfVoice(entityCitations, totalCitations int) float64 {
	return percent(entityCitations, totalCitations)
}

// AnalyzeCompetitors attributes citations to the brand and each competitor and
// computes share of voice, overlap index and average rank gap.
//
// A citation belongs to the brand when it is typed owned or sits on a brand
// domain, and to a competitor when it sits on one of that competitor's domains.
// records and prompts must be index-aligned (prompts[i] aggregated from records[i]).
func AnalyzeCompetitors(brand Brand, competitors []*domain.Competitor, records []domain.PromptWithAnswers, prompts []domain.PromptMetrics) domain.CompetitiveReport {
	report := domain.CompetitiveReport{
		Brand:       brand.Name,
		Competitors: []domain.CompetitorComparison{},
	}

	type tally struct {
		citations    int
		promptsCited map[int]bool
	}
	brandTally := tally{promptsCited: make(map[int]bool)}
	compTally := make([]tally, len(competitors))
	for i := range compTally {
		compTally[i].promptsCited = make(map[int]bool)
	}

	for pi, r := range records {
		for _, a := range r.Answers {
			if a == nil {
				continue
			}
			for _, c := range a.Citations {
				if c.Type == domain.DomainOwned || domain.DomainMatches(c.Domain, brand.Domains) {
					brandTally.citations++
					brandTally.promptsCited[pi] = true
					continue
				}
				for ci, comp := range competitors {
					if domain.DomainMatches(c.Domain, comp.Domains) {
						compTally[ci].citations++
						compTally[ci].promptsCited[pi] = true
						break
					}
				}
			}
		}
	}

	total := brandTally.citations
	for _, t := range compTally {
		total += t.citations
	}
	report.TotalCitations = total
	report.BrandCitations = brandTally.citations
	report.BrandShareOfVoice = ShareOfVoice(brandTally.citations, total)

	for ci, comp := range competitors {
		stats := domain.CompetitorStats{
			CompetitorID:  comp.ID,
			Name:          comp.Name,
			CitationCount: compTally[ci].citations,
			ShareOfVoice:  ShareOfVoice(compTally[ci].citations, total),
		}

		both := 0
		for pi := range compTally[ci].promptsCited {
			if brandTally.promptsCited[pi] {
				both++
			}
		}
		if len(records) > 0 {
			stats.OverlapIndex = float64(both) / float64(len(records))
		}

		stats.AvgRankGap, stats.JointPrompts = rankGap(comp.Name, prompts)
		report.Competitors = append(report.Competitors, Compare(report.BrandShareOfVoice, stats))
	}

	sort.SliceStable(report.Competitors, func(i, j int) bool {
		if report.Competitors[i].ShareOfVoice != report.Competitors[j].ShareOfVoice {
			return report.Competitors[i].ShareOfVoice > report.Competitors[j].ShareOfVoice
		}
		return report.Competitors[i].Name < report.Competitors[j].Name
	})

	return report
}

// rankGap is mean(competitor rank) - mean(brand rank) over prompts where both are
// ranked. The competitor's rank in a prompt is the mean of its mention ranks there.
func rankGap(name string, prompts []domain.PromptMetrics) (float64, int) {
	var compSum, brandSum float64
	joint := 0
	for _, p := range prompts {
		if p.VisibilityRank <= 0 {
			continue
		}
		sum, n := 0, 0
		for _, m := range p.CompetitorMentions {
			if m.Rank > 0 && strings.EqualFold(strings.TrimSpace(m.Name), strings.TrimSpace(name)) {
				sum += m.Rank
				n++
			}
		}
		if n == 0 {
			continue
		}
		joint++
		compSum += float64(sum) / float64(n)
		brandSum += float64(p.VisibilityRank)
	}
	if joint == 0 {
		return 0, 0
	}
	return compSum/float64(joint) - brandSum/float64(joint), joint
}

// Compare builds the detailed brand vs competitor view. The SOV gap is
// competitor minus brand; a competitor is ahead when its SOV is higher, or when
// SOVs tie and it ranks better on jointly covered prompts.
func Compare(brandSOV float64, stats domain.CompetitorStats) domain.CompetitorComparison {
	gap := stats.ShareOfVoice - brandSOV
	return domain.CompetitorComparison{
		CompetitorStats:   stats,
		BrandShareOfVoice: brandSOV,
		SOVGap:            gap,
		Ahead:             gap > 0 || (gap == 0 && stats.JointPrompts > 0 && stats.AvgRankGap < 0),
	}
}
