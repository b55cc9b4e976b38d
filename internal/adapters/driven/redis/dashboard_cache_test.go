package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

func TestDashboardCache_RoundTrip(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewDashboardCache(client)
	ctx := context.Background()

	if _, err := cache.Get(ctx, "owner-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected miss, got %v", err)
	}

	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := &domain.Dashboard{
		Brand: "AcmeCRM",
		Metrics: map[domain.MetricType]domain.MetricRecord{
			domain.MetricVisibilityScore: {
				OwnerID: "owner-1",
				Type:    domain.MetricVisibilityScore,
				Value:   65,
				Delta:   5,
				Metadata: domain.VisibilityMetadata{
					Brand:          "AcmeCRM",
					PromptCoverage: 50,
				},
			},
		},
		Sparkline: map[domain.MetricType][]float64{
			domain.MetricVisibilityScore: {60, 65},
		},
		UpdatedAt: &updated,
	}

	if err := cache.Set(ctx, "owner-1", d, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := cache.Get(ctx, "owner-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	rec := got.Metrics[domain.MetricVisibilityScore]
	if rec.Value != 65 || rec.Delta != 5 {
		t.Errorf("unexpected record %+v", rec)
	}
	md, ok := rec.Metadata.(domain.VisibilityMetadata)
	if !ok {
		t.Fatalf("metadata type = %T, want VisibilityMetadata", rec.Metadata)
	}
	if md.PromptCoverage != 50 {
		t.Errorf("prompt coverage = %v", md.PromptCoverage)
	}
	if len(got.Sparkline[domain.MetricVisibilityScore]) != 2 {
		t.Errorf("sparkline = %v", got.Sparkline)
	}
	if got.UpdatedAt == nil || !got.UpdatedAt.Equal(updated) {
		t.Errorf("updated at = %v", got.UpdatedAt)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := cache.Get(ctx, "owner-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected entry to expire, got %v", err)
	}
}

func TestDashboardCache_Invalidate(t *testing.T) {
	client, _ := setupTestRedis(t)
	cache := NewDashboardCache(client)
	ctx := context.Background()

	_ = cache.Set(ctx, "owner-1", &domain.Dashboard{Brand: "AcmeCRM"}, 0)
	_ = cache.Set(ctx, "owner-2", &domain.Dashboard{Brand: "Other"}, 0)

	if err := cache.Invalidate(ctx, "owner-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := cache.Get(ctx, "owner-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected miss after invalidate, got %v", err)
	}
	if d, err := cache.Get(ctx, "owner-2"); err != nil || d.Brand != "Other" {
		t.Errorf("other owner affected: %v, %v", d, err)
	}
}

func TestDashboardCache_CorruptEntry(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewDashboardCache(client)

	_ = mr.Set(dashboardPrefix+"owner-1", "not json")
	if _, err := cache.Get(context.Background(), "owner-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("corrupt entry should read as a miss, got %v", err)
	}
	if mr.Exists(dashboardPrefix + "owner-1") {
		t.Error("corrupt entry should be dropped")
	}
}
