package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Prompt is a tracked question whose answers are collected from every engine
type Prompt struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Text      string    `json:"text"`
	Category  string    `json:"category,omitempty"`
	Processed bool      `json:"processed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPrompt creates an unprocessed prompt.
func NewPrompt(ownerID, text, category string) *Prompt {
	now := time.Now()
	return &Prompt{
		ID:        GenerateID(),
		OwnerID:   ownerID,
		Text:      strings.TrimSpace(text),
		Category:  strings.TrimSpace(category),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DomainType classifies who controls a cited web source
type DomainType string

const (
	DomainOwned      DomainType = "owned"
	DomainEarned     DomainType = "earned"
	DomainCompetitor DomainType = "competitor"
)

// ParseDomainType maps free text to a DomainType, defaulting to earned.
func ParseDomainType(s string) DomainType {
	switch DomainType(strings.ToLower(strings.TrimSpace(s))) {
	case DomainOwned:
		return DomainOwned
	case DomainCompetitor:
		return DomainCompetitor
	default:
		return DomainEarned
	}
}

// CitingDomain is a web source cited within an answer
type CitingDomain struct {
	ID              string     `json:"id"`
	AnswerID        string     `json:"answer_id"`
	Domain          string     `json:"domain"`
	URL             string     `json:"url"`
	DomainAuthority int        `json:"domain_authority"`
	Type            DomainType `json:"type"`
	Freshness       int        `json:"freshness"` // days since publication
}

// Validate checks the citation invariants.
func (c *CitingDomain) Validate() error {
	if strings.TrimSpace(c.Domain) == "" {
		return fmt.Errorf("%w: citation without domain", ErrInvalidRecord)
	}
	if c.DomainAuthority < 0 || c.DomainAuthority > 100 {
		return fmt.Errorf("%w: domain authority %d outside [0,100] for %s", ErrInvalidRecord, c.DomainAuthority, c.Domain)
	}
	if c.Freshness < 0 {
		return fmt.Errorf("%w: negative freshness %d for %s", ErrInvalidRecord, c.Freshness, c.Domain)
	}
	switch c.Type {
	case DomainOwned, DomainEarned, DomainCompetitor:
	default:
		return fmt.Errorf("%w: unknown citation type %q", ErrInvalidRecord, c.Type)
	}
	return nil
}

// CompetitorMention records a competitor named in an answer and its position
type CompetitorMention struct {
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// Answer is one engine's response to one prompt
type Answer struct {
	ID          string              `json:"id"`
	PromptID    string              `json:"prompt_id"`
	Engine      Engine              `json:"engine"`
	Snippet     string              `json:"snippet"`
	Highlighted string              `json:"highlighted"`
	Rank        int                 `json:"rank"` // 0 = brand not mentioned
	Sentiment   float64             `json:"sentiment"`
	Citations   []CitingDomain      `json:"citations"`
	Mentions    []CompetitorMention `json:"mentions,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Mentioned reports whether the brand appears in the answer.
func (a *Answer) Mentioned() bool {
	return a.Rank > 0
}

// Validate checks the answer invariants. Citations are validated separately
// so a bad citation does not discard the whole answer.
func (a *Answer) Validate() error {
	if a.Engine == "" {
		return fmt.Errorf("%w: answer without engine", ErrInvalidRecord)
	}
	if a.Rank < 0 {
		return fmt.Errorf("%w: negative rank %d", ErrInvalidRecord, a.Rank)
	}
	if math.IsNaN(a.Sentiment) || a.Sentiment < -1 || a.Sentiment > 1 {
		return fmt.Errorf("%w: sentiment %.3f outside [-1,1]", ErrInvalidRecord, a.Sentiment)
	}
	return nil
}

// PromptWithAnswers is a prompt together with all of its stored answers
type PromptWithAnswers struct {
	Prompt  *Prompt   `json:"prompt"`
	Answers []*Answer `json:"answers"`
}
