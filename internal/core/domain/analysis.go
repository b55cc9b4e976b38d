package domain

// CitationRef is a citation as extracted from an answer, before enrichment
type CitationRef struct {
	Domain string     `json:"domain"`
	URL    string     `json:"url"`
	Type   DomainType `json:"type"`
}

// Analysis is the structured reading of one engine answer for one brand
type Analysis struct {
	Sentiment float64             `json:"sentiment"`
	Rank      int                 `json:"rank"`
	Mentions  []CompetitorMention `json:"mentions"`
	Citations []CitationRef       `json:"citations"`
}

// AnalysisRequest carries everything the analyzer needs about the brand
type AnalysisRequest struct {
	Brand        string
	BrandDomains []string
	Competitors  []string
	Prompt       string
	Answer       string
}
