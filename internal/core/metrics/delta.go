package metrics

import (
	"math"
	"strconv"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// HistoryState is the delta tracker's state for one owner
type HistoryState int

const (
	// NoHistory: no snapshot stored yet, every delta is 0
	NoHistory HistoryState = iota
	// HasHistory: at least one snapshot stored, deltas are against the latest one
	HasHistory
)

func (s HistoryState) String() string {
	if s == HasHistory {
		return "has_history"
	}
	return "no_history"
}

// DeltaTracker computes deltas against the most recent stored record per metric type
type DeltaTracker struct {
	latest map[domain.MetricType]domain.MetricRecord
}

// NewDeltaTracker indexes the previous records, keeping the newest one per type.
func NewDeltaTracker(previous []domain.MetricRecord) *DeltaTracker {
	latest := make(map[domain.MetricType]domain.MetricRecord)
	for _, r := range previous {
		cur, ok := latest[r.Type]
		if !ok || r.CreatedAt.After(cur.CreatedAt) {
			latest[r.Type] = r
		}
	}
	return &DeltaTracker{latest: latest}
}

// State reports whether any previous record exists.
func (t *DeltaTracker) State() HistoryState {
	if len(t.latest) == 0 {
		return NoHistory
	}
	return HasHistory
}

// Previous returns the most recent stored record for a metric type.
func (t *DeltaTracker) Previous(mt domain.MetricType) (domain.MetricRecord, bool) {
	r, ok := t.latest[mt]
	return r, ok
}

// Apply sets Delta on each record: current minus the latest previous value of
// the same type, or 0 when that type has no history.
func (t *DeltaTracker) Apply(records []domain.MetricRecord) []domain.MetricRecord {
	out := make([]domain.MetricRecord, len(records))
	for i, r := range records {
		r.Delta = 0
		if prev, ok := t.latest[r.Type]; ok {
			r.Delta = r.Value - prev.Value
		}
		out[i] = r
	}
	return out
}

// FormatDelta renders a delta for display: "+2", "-1.5%", "0".
func FormatDelta(value float64, isPercentage bool) string {
	v := math.Round(value*10) / 10
	if v == 0 {
		v = 0 // drop negative zero
	}
	prefix := ""
	if v > 0 {
		prefix = "+"
	}
	suffix := ""
	if isPercentage {
		suffix = "%"
	}
	return prefix + strconv.FormatFloat(v, 'f', -1, 64) + suffix
}
