package metrics

import "github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"

// Rejection describes a record dropped before aggregation
type Rejection struct {
	PromptID string
	AnswerID string
	Engine   domain.Engine
	Domain   string // set for citation rejections
	Err      error
}

// Sanitized is the record set cleared for aggregation plus what was dropped
type Sanitized struct {
	Records           []domain.PromptWithAnswers
	RejectedAnswers   []Rejection
	RejectedCitations []Rejection
}

// Sanitize drops answers and citations that violate data invariants. A bad
// citation is removed from its answer; a bad answer is removed with its
// citations. Inputs are not modified.
func Sanitize(records []domain.PromptWithAnswers) Sanitized {
	out := Sanitized{Records: make([]domain.PromptWithAnswers, 0, len(records))}

	for _, r := range records {
		promptID := ""
		if r.Prompt != nil {
			promptID = r.Prompt.ID
		}
		clean := domain.PromptWithAnswers{Prompt: r.Prompt, Answers: make([]*domain.Answer, 0, len(r.Answers))}

		for _, a := range r.Answers {
			if a == nil {
				continue
			}
			if err := a.Validate(); err != nil {
				out.RejectedAnswers = append(out.RejectedAnswers, Rejection{
					PromptID: promptID, AnswerID: a.ID, Engine: a.Engine, Err: err,
				})
				continue
			}

			cp := *a
			cp.Citations = make([]domain.CitingDomain, 0, len(a.Citations))
			for _, c := range a.Citations {
				if err := c.Validate(); err != nil {
					out.RejectedCitations = append(out.RejectedCitations, Rejection{
						PromptID: promptID, AnswerID: a.ID, Engine: a.Engine, Domain: c.Domain, Err: err,
					})
					continue
				}
				cp.Citations = append(cp.Citations, c)
			}
			clean.Answers = append(clean.Answers, &cp)
		}
		out.Records = append(out.Records, clean)
	}
	return out
}
