package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

// Ensure Prometheus implements Telemetry
var _ driven.Telemetry = (*Prometheus)(nil)

const namespace = "acme_insight"

// Prometheus records service metrics in its own registry
type Prometheus struct {
	registry *prometheus.Registry

	engineCalls    *prometheus.CounterVec
	engineDuration *prometheus.HistogramVec
	runs           *prometheus.CounterVec
	runDuration    prometheus.Histogram
	runPrompts     prometheus.Histogram
	rejected       *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewPrometheus creates the collectors and registers them, together with
// the Go runtime and process collectors, on a fresh registry.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		engineCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "engine_calls_total",
				Help:      "Answer engine and analyzer calls by outcome",
			},
			[]string{"engine", "outcome"},
		),
		engineDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "engine_call_duration_seconds",
				Help:      "Time to answer and analyse one prompt on one engine",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
			},
			[]string{"engine"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "aggregation_runs_total",
				Help:      "Metric calculations by persistence result",
			},
			[]string{"persisted"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "aggregation_duration_seconds",
				Help:      "Metric calculation duration",
				Buckets:   prometheus.DefBuckets,
			},
		),
		runPrompts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "aggregation_prompts",
				Help:      "Processed prompts per metric calculation",
				Buckets:   []float64{0, 1, 10, 50, 100, 500, 1000},
			},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejected_records_total",
				Help:      "Answers or citations dropped by validation",
			},
			[]string{"kind"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.engineCalls, p.engineDuration,
		p.runs, p.runDuration, p.runPrompts,
		p.rejected,
		p.httpRequests, p.httpDuration,
	)
	return p
}

// EngineCall records one engine round trip
func (p *Prometheus) EngineCall(engine domain.Engine, outcome string, d time.Duration) {
	p.engineCalls.WithLabelValues(string(engine), outcome).Inc()
	p.engineDuration.WithLabelValues(string(engine)).Observe(d.Seconds())
}

// AggregationRun records one metric calculation
func (p *Prometheus) AggregationRun(prompts int, d time.Duration, persisted bool) {
	p.runs.WithLabelValues(strconv.FormatBool(persisted)).Inc()
	p.runDuration.Observe(d.Seconds())
	p.runPrompts.Observe(float64(prompts))
}

// RejectedRecords counts records dropped by validation
func (p *Prometheus) RejectedRecords(kind string, n int) {
	if n <= 0 {
		return
	}
	p.rejected.WithLabelValues(kind).Add(float64(n))
}

// HTTPRequest records one served request. route is the mux pattern, not the
// raw path, to keep label cardinality bounded.
func (p *Prometheus) HTTPRequest(method, route string, status int, d time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
