package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DashboardCache = (*DashboardCache)(nil)

const dashboardPrefix = "acme:dashboard:"

// DashboardCache stores each owner's rendered dashboard as JSON with a TTL.
type DashboardCache struct {
	client *redis.Client
}

// NewDashboardCache creates a new Redis-backed DashboardCache
func NewDashboardCache(client *redis.Client) *DashboardCache {
	return &DashboardCache{client: client}
}

// Get returns domain.ErrNotFound on a miss
func (c *DashboardCache) Get(ctx context.Context, ownerID string) (*domain.Dashboard, error) {
	data, err := c.client.Get(ctx, dashboardPrefix+ownerID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard: %w", err)
	}

	var d domain.Dashboard
	if err := json.Unmarshal(data, &d); err != nil {
		// A payload from an older layout is treated as a miss
		_ = c.client.Del(ctx, dashboardPrefix+ownerID).Err()
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

// Set stores the dashboard. A zero ttl keeps it until invalidated.
func (c *DashboardCache) Set(ctx context.Context, ownerID string, d *domain.Dashboard, ttl time.Duration) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal dashboard: %w", err)
	}
	if err := c.client.Set(ctx, dashboardPrefix+ownerID, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set dashboard: %w", err)
	}
	return nil
}

// Invalidate drops the owner's cached dashboard
func (c *DashboardCache) Invalidate(ctx context.Context, ownerID string) error {
	return c.client.Del(ctx, dashboardPrefix+ownerID).Err()
}
