package ai

import (
	"fmt"
	"strings"

	"github.com/openai/openai-go/option"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

// EngineSettings configures one answer engine endpoint
type EngineSettings struct {
	Engine  domain.Engine
	APIKey  string
	BaseURL string
	Model   string
}

type engineDefaults struct {
	baseURL string
	model   string
}

// Every tracked engine exposes an OpenAI-compatible chat completions API
var defaults = map[domain.Engine]engineDefaults{
	domain.EngineChatGPT:    {baseURL: "https://api.openai.com/v1/", model: "gpt-4o-mini"},
	domain.EngineGemini:     {baseURL: "https://generativelanguage.googleapis.com/v1beta/openai/", model: "gemini-2.0-flash"},
	domain.EnginePerplexity: {baseURL: "https://api.perplexity.ai/", model: "sonar"},
	domain.EngineClaude:     {baseURL: "https://api.anthropic.com/v1/", model: "claude-3-5-haiku-latest"},
}

func (s EngineSettings) withDefaults() EngineSettings {
	d := defaults[s.Engine]
	if s.BaseURL == "" {
		s.BaseURL = d.baseURL
	}
	if s.Model == "" {
		s.Model = d.model
	}
	return s
}

// IsConfigured returns true when the engine has a key
func (s EngineSettings) IsConfigured() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

// NewEngines builds a client for every configured engine, skipping entries
// without an API key. Engines must be tracked by cfg.
func NewEngines(cfg domain.EngineConfig, settings []EngineSettings, extra ...option.RequestOption) ([]driven.AnswerEngine, error) {
	seen := make(map[domain.Engine]bool)
	var engines []driven.AnswerEngine
	for _, s := range settings {
		if !s.IsConfigured() {
			continue
		}
		if !cfg.Tracks(s.Engine) {
			return nil, fmt.Errorf("%w: engine %q is not tracked", domain.ErrInvalidInput, s.Engine)
		}
		if seen[s.Engine] {
			return nil, fmt.Errorf("%w: engine %s configured twice", domain.ErrInvalidInput, s.Engine)
		}
		seen[s.Engine] = true

		e, err := NewChatEngine(s, extra...)
		if err != nil {
			return nil, err
		}
		engines = append(engines, e)
	}
	return engines, nil
}
