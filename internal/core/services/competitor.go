package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driving"
)

// Ensure competitorService implements CompetitorService
var _ driving.CompetitorService = (*competitorService)(nil)

type competitorService struct {
	store  driven.CompetitorStore
	cache  driven.DashboardCache
	logger *slog.Logger
}

// NewCompetitorService creates a new CompetitorService. The optional cache is
// invalidated whenever the competitor set changes.
func NewCompetitorService(store driven.CompetitorStore, cache driven.DashboardCache, logger *slog.Logger) driving.CompetitorService {
	if logger == nil {
		logger = slog.Default()
	}
	return &competitorService{store: store, cache: cache, logger: logger}
}

func (s *competitorService) Add(ctx context.Context, ownerID string, req driving.AddCompetitorRequest) (*domain.Competitor, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: competitor name is required", domain.ErrInvalidInput)
	}

	c := domain.NewCompetitor(ownerID, name, req.Domains)
	if len(c.Domains) == 0 {
		return nil, fmt.Errorf("%w: at least one competitor domain is required", domain.ErrInvalidInput)
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	s.invalidate(ctx, ownerID)
	return c, nil
}

func (s *competitorService) List(ctx context.Context, ownerID string) ([]*domain.Competitor, error) {
	return s.store.List(ctx, ownerID)
}

func (s *competitorService) Remove(ctx context.Context, ownerID, id string) error {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, ownerID)
	return nil
}

func (s *competitorService) invalidate(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", "owner_id", ownerID, "error", err)
	}
}
