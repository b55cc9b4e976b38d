package metrics

import (
	"sort"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// TopicSources rolls citations up per distinct domain, independent of attribution.
// Sources are ordered by citation count, then domain name.
func TopicSources(records []domain.PromptWithAnswers) ([]domain.TopicSource, int) {
	type entry struct {
		source  domain.TopicSource
		prompts map[string]bool
	}
	index := make(map[string]*entry)
	var order []string
	total := 0

	for _, r := range records {
		promptText := ""
		if r.Prompt != nil {
			promptText = r.Prompt.Text
		}
		for _, a := range r.Answers {
			if a == nil {
				continue
			}
			for _, c := range a.Citations {
				key := domain.NormalizeDomain(c.Domain)
				if key == "" {
					continue
				}
				total++
				e, ok := index[key]
				if !ok {
					e = &entry{
						source: domain.TopicSource{
							Domain:          key,
							DomainAuthority: c.DomainAuthority,
							Type:            c.Type,
							Prompts:         []string{},
						},
						prompts: make(map[string]bool),
					}
					index[key] = e
					order = append(order, key)
				}
				e.source.CitationCount++
				if c.DomainAuthority > e.source.DomainAuthority {
					e.source.DomainAuthority = c.DomainAuthority
				}
				if promptText != "" && !e.prompts[promptText] {
					e.prompts[promptText] = true
					e.source.Prompts = append(e.source.Prompts, promptText)
				}
			}
		}
	}

	sources := make([]domain.TopicSource, 0, len(order))
	for _, key := range order {
		s := index[key].source
		s.SharePercent = percent(s.CitationCount, total)
		sources = append(sources, s)
	}
	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].CitationCount != sources[j].CitationCount {
			return sources[i].CitationCount > sources[j].CitationCount
		}
		return sources[i].Domain < sources[j].Domain
	})
	return sources, total
}

// EngineMentionCounts counts, per tracked engine, the prompts whose coverage includes it.
func EngineMentionCounts(cfg domain.EngineConfig, prompts []domain.PromptMetrics) []domain.EngineMentions {
	counts := make(map[domain.Engine]int)
	for _, p := range prompts {
		for _, e := range p.LLMCoverage {
			counts[e]++
		}
	}
	out := make([]domain.EngineMentions, 0, cfg.TotalEngines())
	for _, e := range cfg.Engines() {
		out = append(out, domain.EngineMentions{
			Engine:  e,
			Prompts: counts[e],
			Percent: percent(counts[e], len(prompts)),
		})
	}
	return out
}

// TopEngine returns the engine that mentions the brand in the most prompts.
// Ties resolve to the earlier engine in the table. Nil when no engine mentions the brand.
func TopEngine(mentions []domain.EngineMentions) *domain.EngineMentions {
	var top *domain.EngineMentions
	for i := range mentions {
		if mentions[i].Prompts == 0 {
			continue
		}
		if top == nil || mentions[i].Prompts > top.Prompts {
			m := mentions[i]
			top = &m
		}
	}
	return top
}

// Topics builds the full topic report.
func Topics(cfg domain.EngineConfig, records []domain.PromptWithAnswers, prompts []domain.PromptMetrics) domain.TopicReport {
	sources, total := TopicSources(records)
	mentions := EngineMentionCounts(cfg, prompts)
	return domain.TopicReport{
		Sources:        sources,
		TotalCitations: total,
		EngineMentions: mentions,
		TopEngine:      TopEngine(mentions),
	}
}
