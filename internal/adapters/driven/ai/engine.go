package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

// Ensure ChatEngine implements AnswerEngine
var _ driven.AnswerEngine = (*ChatEngine)(nil)

const defaultTimeout = 60 * time.Second

// ChatEngine asks one answer engine through its OpenAI-compatible
// chat completions endpoint.
type ChatEngine struct {
	engine domain.Engine
	model  string
	client openai.Client
}

// NewChatEngine creates an engine client. Empty base URL and model fall back
// to the engine's public defaults. Extra options are appended last.
func NewChatEngine(settings EngineSettings, extra ...option.RequestOption) (*ChatEngine, error) {
	settings = settings.withDefaults()
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: API key is required for %s", domain.ErrInvalidInput, settings.Engine)
	}
	if settings.BaseURL == "" || settings.Model == "" {
		return nil, fmt.Errorf("%w: base URL and model are required for %s", domain.ErrInvalidInput, settings.Engine)
	}

	opts := append([]option.RequestOption{
		option.WithAPIKey(settings.APIKey),
		option.WithBaseURL(settings.BaseURL),
		option.WithRequestTimeout(defaultTimeout),
	}, extra...)

	return &ChatEngine{
		engine: settings.Engine,
		model:  settings.Model,
		client: openai.NewClient(opts...),
	}, nil
}

// Engine returns the engine this client queries
func (e *ChatEngine) Engine() domain.Engine {
	return e.engine
}

// Model returns the model name being used
func (e *ChatEngine) Model() string {
	return e.model
}

// Answer sends the prompt as a single user message, the way a person would
// type it into the engine.
func (e *ChatEngine) Answer(ctx context.Context, prompt string) (string, error) {
	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", e.engine, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", e.engine)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%s returned an empty answer", e.engine)
	}
	return text, nil
}

// Ping lists models to verify the endpoint and key
func (e *ChatEngine) Ping(ctx context.Context) error {
	if _, err := e.client.Models.List(ctx); err != nil {
		return fmt.Errorf("%s ping: %w", e.engine, err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources of its own
func (e *ChatEngine) Close() error {
	return nil
}
