// Package metrics is the brand visibility aggregation engine.
//
// It turns a frozen set of prompts, engine answers and citations into
// prompt-level rollups, the composite MetricSnapshot, competitor and topic
// breakdowns, and deltas against the previous run. Every function here is
// pure: no I/O, no shared state, safe to call concurrently for different owners.
package metrics
