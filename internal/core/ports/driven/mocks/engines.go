package mocks

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

var (
	_ driven.AnswerEngine     = (*MockAnswerEngine)(nil)
	_ driven.AnswerAnalyzer   = (*MockAnswerAnalyzer)(nil)
	_ driven.CitationEnricher = (*MockCitationEnricher)(nil)
	_ driven.PromptFileParser = (*MockPromptFileParser)(nil)
	_ driven.Telemetry        = (*MockTelemetry)(nil)
)

// MockAnswerEngine returns canned answers per prompt text
type MockAnswerEngine struct {
	mu      sync.Mutex
	engine  domain.Engine
	Answers map[string]string
	Err     error
	Calls   int
}

func NewMockAnswerEngine(engine domain.Engine) *MockAnswerEngine {
	return &MockAnswerEngine{engine: engine, Answers: make(map[string]string)}
}

func (m *MockAnswerEngine) Engine() domain.Engine { return m.engine }

func (m *MockAnswerEngine) Answer(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	if a, ok := m.Answers[prompt]; ok {
		return a, nil
	}
	return fmt.Sprintf("%s answer to %q", m.engine, prompt), nil
}

func (m *MockAnswerEngine) Ping(ctx context.Context) error { return m.Err }

func (m *MockAnswerEngine) Close() error { return nil }

// MockAnswerAnalyzer returns a fixed analysis, or the result of AnalyzeFn
type MockAnswerAnalyzer struct {
	AnalyzeFn func(req domain.AnalysisRequest) (*domain.Analysis, error)
	Result    domain.Analysis
}

func (m *MockAnswerAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.Analysis, error) {
	if m.AnalyzeFn != nil {
		return m.AnalyzeFn(req)
	}
	out := m.Result
	out.Citations = append([]domain.CitationRef(nil), m.Result.Citations...)
	out.Mentions = append([]domain.CompetitorMention(nil), m.Result.Mentions...)
	return &out, nil
}

// MockCitationEnricher assigns a fixed authority and freshness
type MockCitationEnricher struct {
	Authority int
	Freshness int
	Err       error
}

func (m *MockCitationEnricher) Enrich(ctx context.Context, c *domain.CitingDomain) error {
	if m.Err != nil {
		return m.Err
	}
	c.DomainAuthority = m.Authority
	c.Freshness = m.Freshness
	return nil
}

// MockPromptFileParser splits lines and drops the header
type MockPromptFileParser struct {
	Exts []string
}

func (m *MockPromptFileParser) Extensions() []string { return m.Exts }

func (m *MockPromptFileParser) Parse(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(lines) <= 1 {
		return nil, nil
	}
	return lines[1:], nil
}

// MockTelemetry counts calls
type MockTelemetry struct {
	mu          sync.Mutex
	EngineCalls map[string]int
	Runs        int
	Rejected    map[string]int
}

func NewMockTelemetry() *MockTelemetry {
	return &MockTelemetry{EngineCalls: make(map[string]int), Rejected: make(map[string]int)}
}

func (m *MockTelemetry) EngineCall(engine domain.Engine, outcome string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EngineCalls[string(engine)+":"+outcome]++
}

func (m *MockTelemetry) AggregationRun(prompts int, d time.Duration, persisted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs++
}

func (m *MockTelemetry) RejectedRecords(kind string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rejected[kind] += n
}
