package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEngineConfig(t *testing.T) {
	cfg := DefaultEngineConfig()

	assert.Equal(t, 4, cfg.TotalEngines())
	assert.Equal(t, []Engine{EngineChatGPT, EngineGemini, EnginePerplexity, EngineClaude}, cfg.Engines())
	assert.InDelta(t, 0.4, cfg.Weight(EngineChatGPT), 1e-9)
	assert.InDelta(t, 0.3, cfg.Weight(EngineGemini), 1e-9)
	assert.InDelta(t, 0.2, cfg.Weight(EnginePerplexity), 1e-9)
	assert.InDelta(t, 0.1, cfg.Weight(EngineClaude), 1e-9)
	assert.InDelta(t, 0.1, cfg.Weight(Engine("Copilot")), 1e-9)
	assert.Equal(t, 0.3, cfg.SentimentThreshold())
	assert.Equal(t, 5.0, cfg.FreshnessDecay())
	assert.Equal(t, 100.0, cfg.RankScale())
	assert.Equal(t, 3, cfg.TopAnswerCutoff())
	assert.Equal(t, 80, cfg.HighAuthority())
}

func TestEngineConfigIsImmutable(t *testing.T) {
	cfg := DefaultEngineConfig()

	engines := cfg.Engines()
	engines[0] = "Mutated"
	weights := cfg.Weights()
	weights[0].Weight = 99

	assert.Equal(t, EngineChatGPT, cfg.Engines()[0])
	assert.InDelta(t, 0.4, cfg.Weight(EngineChatGPT), 1e-9)
}

func TestNewEngineConfig(t *testing.T) {
	t.Run("options applied", func(t *testing.T) {
		cfg, err := NewEngineConfig(
			[]EngineWeight{{Engine: EngineChatGPT, Weight: 1}},
			WithUnknownEngineWeight(0),
			WithFreshnessDecay(3.33),
			WithRankScale(10),
			WithAuthorityReach(70, 10),
		)
		require.NoError(t, err)
		assert.Equal(t, 1, cfg.TotalEngines())
		assert.Equal(t, 0.0, cfg.Weight(EngineGemini))
		assert.Equal(t, 3.33, cfg.FreshnessDecay())
		assert.Equal(t, 10.0, cfg.RankScale())
		assert.Equal(t, 70, cfg.HighAuthority())
		assert.Equal(t, 10.0, cfg.AuthorityStep())
	})

	tests := []struct {
		name    string
		engines []EngineWeight
		opts    []EngineOption
	}{
		{"empty", nil, nil},
		{"duplicate", []EngineWeight{{EngineChatGPT, 0.5}, {EngineChatGPT, 0.5}}, nil},
		{"negative weight", []EngineWeight{{EngineChatGPT, -0.1}}, nil},
		{"blank engine", []EngineWeight{{"", 0.1}}, nil},
		{"zero rank scale", []EngineWeight{{EngineChatGPT, 1}}, []EngineOption{WithRankScale(0)}},
		{"threshold out of range", []EngineWeight{{EngineChatGPT, 1}}, []EngineOption{WithSentimentThreshold(2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngineConfig(tt.engines, tt.opts...)
			assert.True(t, errors.Is(err, ErrInvalidInput), "expected ErrInvalidInput, got %v", err)
		})
	}
}

func TestEngineOrder(t *testing.T) {
	cfg := DefaultEngineConfig()
	assert.Equal(t, 0, cfg.Order(EngineChatGPT))
	assert.Equal(t, 3, cfg.Order(EngineClaude))
	assert.Equal(t, 4, cfg.Order(Engine("Other")))
	assert.True(t, cfg.Tracks(EngineGemini))
	assert.False(t, cfg.Tracks(Engine("Other")))
}

func TestParseEngine(t *testing.T) {
	e, ok := ParseEngine(" chatgpt ")
	assert.True(t, ok)
	assert.Equal(t, EngineChatGPT, e)

	_, ok = ParseEngine("bard")
	assert.False(t, ok)
}
