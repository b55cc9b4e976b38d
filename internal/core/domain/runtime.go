package domain

import (
	"sort"
	"sync"
)

// RuntimeConfig tracks which services are available at runtime.
// Backends are fixed at startup; engine and analyzer availability change as
// clients are validated or removed. Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	SessionBackend string // "redis" or "postgres"
	QueueBackend   string // "redis" or "postgres"

	engines           map[Engine]bool
	analyzerAvailable bool
}

// RuntimeStatus is a point-in-time view of a RuntimeConfig
type RuntimeStatus struct {
	SessionBackend    string   `json:"session_backend"`
	QueueBackend      string   `json:"queue_backend"`
	Engines           []Engine `json:"engines"`
	AnalyzerAvailable bool     `json:"analyzer_available"`
	CanProcess        bool     `json:"can_process"`
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(sessionBackend, queueBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		SessionBackend: sessionBackend,
		QueueBackend:   queueBackend,
		engines:        make(map[Engine]bool),
	}
}

// SetEngineAvailable marks an answer engine reachable or not
func (c *RuntimeConfig) SetEngineAvailable(engine Engine, available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if available {
		c.engines[engine] = true
		return
	}
	delete(c.engines, engine)
}

// EngineAvailable reports whether the engine has a validated client
func (c *RuntimeConfig) EngineAvailable(engine Engine) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.engines[engine]
}

// AvailableEngines returns the engines with a validated client, sorted by name
func (c *RuntimeConfig) AvailableEngines() []Engine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	engines := make([]Engine, 0, len(c.engines))
	for e := range c.engines {
		engines = append(engines, e)
	}
	sort.Slice(engines, func(i, j int) bool { return engines[i] < engines[j] })
	return engines
}

// AnalyzerAvailable returns whether the answer analyzer is configured
func (c *RuntimeConfig) AnalyzerAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.analyzerAvailable
}

// SetAnalyzerAvailable updates the analyzer availability flag
func (c *RuntimeConfig) SetAnalyzerAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.analyzerAvailable = available
}

// CanProcessPrompts returns true if at least one engine and the analyzer are available
func (c *RuntimeConfig) CanProcessPrompts() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.engines) > 0 && c.analyzerAvailable
}

// Status snapshots the configuration
func (c *RuntimeConfig) Status() RuntimeStatus {
	engines := c.AvailableEngines()
	analyzer := c.AnalyzerAvailable()
	return RuntimeStatus{
		SessionBackend:    c.SessionBackend,
		QueueBackend:      c.QueueBackend,
		Engines:           engines,
		AnalyzerAvailable: analyzer,
		CanProcess:        len(engines) > 0 && analyzer,
	}
}
