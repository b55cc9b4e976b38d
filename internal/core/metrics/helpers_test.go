package metrics

import (
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

func prompt(id, text string) *domain.Prompt {
	return &domain.Prompt{ID: id, OwnerID: "owner-1", Text: text, Processed: true}
}

func answer(e domain.Engine, rank int, sentiment float64, citations ...domain.CitingDomain) *domain.Answer {
	return &domain.Answer{
		ID:        string(e) + "-answer",
		Engine:    e,
		Rank:      rank,
		Sentiment: sentiment,
		Citations: citations,
	}
}

func cite(d string, authority int, t domain.DomainType, freshness int) domain.CitingDomain {
	return domain.CitingDomain{
		Domain:          d,
		URL:             "https://" + d + "/page",
		DomainAuthority: authority,
		Type:            t,
		Freshness:       freshness,
	}
}

func record(p *domain.Prompt, answers ...*domain.Answer) domain.PromptWithAnswers {
	return domain.PromptWithAnswers{Prompt: p, Answers: answers}
}
