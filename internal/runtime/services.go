package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

// Services holds the answer engine clients and the answer analyzer.
// Clients can be replaced while the process runs; the prompt processor reads
// the current set on every run. Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	// order preserves registration order so engines are queried predictably
	order    []domain.Engine
	engines  map[domain.Engine]driven.AnswerEngine
	analyzer driven.AnswerAnalyzer
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config:  config,
		engines: make(map[domain.Engine]driven.AnswerEngine),
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// Engines returns the registered engine clients in registration order
func (s *Services) Engines() []driven.AnswerEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	engines := make([]driven.AnswerEngine, 0, len(s.order))
	for _, e := range s.order {
		engines = append(engines, s.engines[e])
	}
	return engines
}

// Analyzer returns the current analyzer (may be nil)
func (s *Services) Analyzer() driven.AnswerAnalyzer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analyzer
}

// SetEngine registers a client for its engine, closing any client it replaces.
func (s *Services) SetEngine(client driven.AnswerEngine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	engine := client.Engine()
	if old, ok := s.engines[engine]; ok {
		_ = old.Close()
	} else {
		s.order = append(s.order, engine)
	}
	s.engines[engine] = client
	s.config.SetEngineAvailable(engine, true)
}

// RemoveEngine closes and unregisters the client for engine
func (s *Services) RemoveEngine(engine domain.Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.engines[engine]
	if !ok {
		return
	}
	_ = client.Close()
	delete(s.engines, engine)
	for i, e := range s.order {
		if e == engine {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.config.SetEngineAvailable(engine, false)
}

// SetAnalyzer updates the answer analyzer. Updates config flags.
func (s *Services) SetAnalyzer(analyzer driven.AnswerAnalyzer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzer = analyzer
	s.config.SetAnalyzerAvailable(analyzer != nil)
}

// ValidateAndSetEngine pings the client before registering it.
// The client is closed when the ping fails.
func (s *Services) ValidateAndSetEngine(ctx context.Context, client driven.AnswerEngine) error {
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("%s: %w", client.Engine(), err)
	}
	s.SetEngine(client)
	return nil
}

// ValidateAndSetEngines registers every client that answers a ping and
// returns the failures keyed by engine.
func (s *Services) ValidateAndSetEngines(ctx context.Context, clients []driven.AnswerEngine) map[domain.Engine]error {
	failures := make(map[domain.Engine]error)
	for _, client := range clients {
		if err := s.ValidateAndSetEngine(ctx, client); err != nil {
			failures[client.Engine()] = err
		}
	}
	return failures
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.order {
		_ = s.engines[e].Close()
		s.config.SetEngineAvailable(e, false)
	}
	s.engines = make(map[domain.Engine]driven.AnswerEngine)
	s.order = nil
	s.analyzer = nil
	s.config.SetAnalyzerAvailable(false)

	return nil
}
