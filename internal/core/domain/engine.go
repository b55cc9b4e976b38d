package domain

import (
	"fmt"
	"strings"
)

// Engine identifies an LLM answer engine tracked for brand visibility
type Engine string

const (
	EngineChatGPT    Engine = "ChatGPT"
	EngineGemini     Engine = "Gemini"
	EnginePerplexity Engine = "Perplexity"
	EngineClaude     Engine = "Claude"
)

// ParseEngine matches a name case-insensitively against the known engines.
func ParseEngine(name string) (Engine, bool) {
	for _, e := range []Engine{EngineChatGPT, EngineGemini, EnginePerplexity, EngineClaude} {
		if strings.EqualFold(string(e), strings.TrimSpace(name)) {
			return e, true
		}
	}
	return Engine(""), false
}

// EngineWeight pairs an engine with its weight in the prompt visibility score
type EngineWeight struct {
	Engine Engine  `json:"engine"`
	Weight float64 `json:"weight"`
}

// Scoring defaults
const (
	DefaultUnknownEngineWeight = 0.1
	DefaultSentimentThreshold  = 0.3
	DefaultFreshnessDecay      = 5.0
	DefaultRankScale           = 100.0
	DefaultTopAnswerCutoff     = 3
	DefaultHighAuthority       = 80
	DefaultAuthorityStep       = 5.0
)

// EngineConfig is the immutable table of tracked engines and scoring constants
// consumed by the aggregation engine. Build it with DefaultEngineConfig or
// NewEngineConfig; accessors never expose internal slices.
type EngineConfig struct {
	engines            []EngineWeight
	unknownWeight      float64
	sentimentThreshold float64
	freshnessDecay     float64
	rankScale          float64
	topAnswerCutoff    int
	highAuthority      int
	authorityStep      float64
}

// EngineOption customises an EngineConfig at construction time
type EngineOption func(*EngineConfig)

// WithUnknownEngineWeight sets the weight applied to engines missing from the table.
func WithUnknownEngineWeight(w float64) EngineOption {
	return func(c *EngineConfig) { c.unknownWeight = w }
}

// WithSentimentThreshold sets the symmetric positive/negative sentiment boundary.
func WithSentimentThreshold(t float64) EngineOption {
	return func(c *EngineConfig) { c.sentimentThreshold = t }
}

// WithFreshnessDecay sets the points lost per day of average citation age.
func WithFreshnessDecay(k float64) EngineOption {
	return func(c *EngineConfig) { c.freshnessDecay = k }
}

// WithRankScale sets the rank normalisation constant of the prompt visibility score.
func WithRankScale(scale float64) EngineOption {
	return func(c *EngineConfig) { c.rankScale = scale }
}

// WithTopAnswerCutoff sets the highest rank still counted as a top answer.
func WithTopAnswerCutoff(rank int) EngineOption {
	return func(c *EngineConfig) { c.topAnswerCutoff = rank }
}

// WithAuthorityReach sets the high-authority DA threshold and points per citation.
func WithAuthorityReach(threshold int, step float64) EngineOption {
	return func(c *EngineConfig) {
		c.highAuthority = threshold
		c.authorityStep = step
	}
}

// DefaultEngineConfig returns the standard four-engine table.
func DefaultEngineConfig() EngineConfig {
	cfg, _ := NewEngineConfig([]EngineWeight{
		{Engine: EngineChatGPT, Weight: 0.4},
		{Engine: EngineGemini, Weight: 0.3},
		{Engine: EnginePerplexity, Weight: 0.2},
		{Engine: EngineClaude, Weight: 0.1},
	})
	return cfg
}

// NewEngineConfig validates and copies the engine table.
func NewEngineConfig(engines []EngineWeight, opts ...EngineOption) (EngineConfig, error) {
	if len(engines) == 0 {
		return EngineConfig{}, fmt.Errorf("%w: at least one engine is required", ErrInvalidInput)
	}

	seen := make(map[Engine]bool, len(engines))
	table := make([]EngineWeight, 0, len(engines))
	for _, ew := range engines {
		if ew.Engine == "" {
			return EngineConfig{}, fmt.Errorf("%w: empty engine name", ErrInvalidInput)
		}
		if seen[ew.Engine] {
			return EngineConfig{}, fmt.Errorf("%w: duplicate engine %s", ErrInvalidInput, ew.Engine)
		}
		if ew.Weight < 0 {
			return EngineConfig{}, fmt.Errorf("%w: negative weight for %s", ErrInvalidInput, ew.Engine)
		}
		seen[ew.Engine] = true
		table = append(table, ew)
	}

	cfg := EngineConfig{
		engines:            table,
		unknownWeight:      DefaultUnknownEngineWeight,
		sentimentThreshold: DefaultSentimentThreshold,
		freshnessDecay:     DefaultFreshnessDecay,
		rankScale:          DefaultRankScale,
		topAnswerCutoff:    DefaultTopAnswerCutoff,
		highAuthority:      DefaultHighAuthority,
		authorityStep:      DefaultAuthorityStep,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.rankScale <= 0 {
		return EngineConfig{}, fmt.Errorf("%w: rank scale must be positive", ErrInvalidInput)
	}
	if cfg.sentimentThreshold < 0 || cfg.sentimentThreshold > 1 {
		return EngineConfig{}, fmt.Errorf("%w: sentiment threshold must be within [0,1]", ErrInvalidInput)
	}
	return cfg, nil
}

// Engines returns the tracked engines in table order.
func (c EngineConfig) Engines() []Engine {
	out := make([]Engine, len(c.engines))
	for i, ew := range c.engines {
		out[i] = ew.Engine
	}
	return out
}

// Weights returns a copy of the weight table.
func (c EngineConfig) Weights() []EngineWeight {
	out := make([]EngineWeight, len(c.engines))
	copy(out, c.engines)
	return out
}

// TotalEngines is the cardinality of the tracked engine set.
func (c EngineConfig) TotalEngines() int {
	return len(c.engines)
}

// Weight returns the engine's weight, or the unknown-engine weight.
func (c EngineConfig) Weight(e Engine) float64 {
	for _, ew := range c.engines {
		if ew.Engine == e {
			return ew.Weight
		}
	}
	return c.unknownWeight
}

// Tracks reports whether the engine is part of the table.
func (c EngineConfig) Tracks(e Engine) bool {
	return c.index(e) >= 0
}

func (c EngineConfig) index(e Engine) int {
	for i, ew := range c.engines {
		if ew.Engine == e {
			return i
		}
	}
	return -1
}

// Order returns a sort key for the engine: table position, untracked engines last.
func (c EngineConfig) Order(e Engine) int {
	if i := c.index(e); i >= 0 {
		return i
	}
	return len(c.engines)
}

func (c EngineConfig) SentimentThreshold() float64 { return c.sentimentThreshold }
func (c EngineConfig) FreshnessDecay() float64     { return c.freshnessDecay }
func (c EngineConfig) RankScale() float64          { return c.rankScale }
func (c EngineConfig) TopAnswerCutoff() int        { return c.topAnswerCutoff }
func (c EngineConfig) HighAuthority() int          { return c.highAuthority }
func (c EngineConfig) AuthorityStep() float64      { return c.authorityStep }
