package driven

import (
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// Telemetry records operational metrics (Prometheus)
type Telemetry interface {
	// EngineCall records one upstream engine or analyzer call
	EngineCall(engine domain.Engine, outcome string, d time.Duration)

	// AggregationRun records one metrics calculation
	AggregationRun(prompts int, d time.Duration, persisted bool)

	// RejectedRecords counts answers or citations dropped by validation
	RejectedRecords(kind string, n int)
}
