package domain

import "time"

// IngestionReport summarises a prompt upload
type IngestionReport struct {
	Accepted  int      `json:"accepted"`
	Skipped   int      `json:"skipped"` // empty or duplicate cells
	PromptIDs []string `json:"prompt_ids"`
	TaskID    string   `json:"task_id,omitempty"`
}

// ProcessReport summarises one upstream processing run
type ProcessReport struct {
	Prompts           int           `json:"prompts"`
	Processed         int           `json:"processed"`
	Failed            int           `json:"failed"`
	Answers           int           `json:"answers"`
	FailedCalls       int           `json:"failed_calls"`
	RejectedCitations int           `json:"rejected_citations"`
	Duration          time.Duration `json:"duration"`
}

// MetricsRun is the full result of one aggregation run
type MetricsRun struct {
	RunID             string          `json:"run_id"`
	OwnerID           string          `json:"owner_id"`
	Brand             string          `json:"brand"`
	Snapshot          MetricSnapshot  `json:"snapshot"`
	Records           []MetricRecord  `json:"records"`
	Prompts           []PromptMetrics `json:"prompts"`
	RejectedAnswers   int             `json:"rejected_answers"`
	RejectedCitations int             `json:"rejected_citations"`
	Persisted         bool            `json:"persisted"`
}

// Dashboard is the headline view rendered for a user
type Dashboard struct {
	Brand     string                      `json:"brand"`
	Metrics   map[MetricType]MetricRecord `json:"metrics"`
	Sparkline map[MetricType][]float64    `json:"sparkline"`
	UpdatedAt *time.Time                  `json:"updated_at,omitempty"`
}
