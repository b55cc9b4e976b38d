package driven

import (
	"context"
	"io"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// AnswerEngine asks one LLM answer engine a tracked prompt
type AnswerEngine interface {
	// Engine identifies which tracked engine this client queries
	Engine() domain.Engine

	// Answer returns the engine's free-text response to the prompt
	Answer(ctx context.Context, prompt string) (string, error)

	// Ping verifies the engine is reachable
	Ping(ctx context.Context) error

	Close() error
}

// AnswerAnalyzer extracts rank, sentiment, competitor mentions and citations
// for a brand from an engine answer.
type AnswerAnalyzer interface {
	// Analyze returns ErrMalformedAnalysis when the model output cannot be parsed
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.Analysis, error)
}

// CitationEnricher fills in domain authority and freshness for a citation
type CitationEnricher interface {
	Enrich(ctx context.Context, citation *domain.CitingDomain) error
}

// PromptFileParser extracts prompt texts from an uploaded tabular file.
// Implementations return the first column of every row after the header.
type PromptFileParser interface {
	// Extensions lists the lowercase file extensions handled, e.g. ".csv"
	Extensions() []string

	Parse(r io.Reader) ([]string, error)
}
