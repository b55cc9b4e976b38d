package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/metrics"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driving"
)

// Ensure metricsService implements MetricsService
var _ driving.MetricsService = (*metricsService)(nil)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 365
	sparklinePoints     = 7
)

// MetricsServiceConfig holds the dependencies of the metrics service.
type MetricsServiceConfig struct {
	Answers     driven.AnswerStore
	Metrics     driven.MetricStore
	Competitors driven.CompetitorStore
	Users       driven.UserStore
	Cache       driven.DashboardCache // Optional
	Telemetry   driven.Telemetry      // Optional
	Engines     domain.EngineConfig
	CacheTTL    time.Duration // Default: 10m
	Logger      *slog.Logger
}

type metricsService struct {
	answers     driven.AnswerStore
	metrics     driven.MetricStore
	competitors driven.CompetitorStore
	users       driven.UserStore
	cache       driven.DashboardCache
	telemetry   driven.Telemetry
	cfg         domain.EngineConfig
	cacheTTL    time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewMetricsService creates the service that runs and serves metric aggregation.
func NewMetricsService(cfg MetricsServiceConfig) driving.MetricsService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	engines := cfg.Engines
	if engines.TotalEngines() == 0 {
		engines = domain.DefaultEngineConfig()
	}
	return &metricsService{
		answers:     cfg.Answers,
		metrics:     cfg.Metrics,
		competitors: cfg.Competitors,
		users:       cfg.Users,
		cache:       cfg.Cache,
		telemetry:   cfg.Telemetry,
		cfg:         engines,
		cacheTTL:    ttl,
		logger:      logger,
		now:         time.Now,
	}
}

// snapshotInput is the validated record set of one owner
type snapshotInput struct {
	brand   metrics.Brand
	records []domain.PromptWithAnswers
	result  metrics.Result
	clean   metrics.Sanitized
}

func (s *metricsService) load(ctx context.Context, ownerID string) (*snapshotInput, error) {
	user, err := s.users.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	raw, err := s.answers.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}

	clean := metrics.Sanitize(raw)
	for _, r := range clean.RejectedAnswers {
		s.logger.Warn("answer rejected",
			"owner_id", ownerID, "prompt_id", r.PromptID, "answer_id", r.AnswerID,
			"engine", r.Engine, "error", r.Err)
	}
	for _, r := range clean.RejectedCitations {
		s.logger.Warn("citation rejected",
			"owner_id", ownerID, "answer_id", r.AnswerID, "domain", r.Domain, "error", r.Err)
	}
	if s.telemetry != nil {
		s.telemetry.RejectedRecords("answer", len(clean.RejectedAnswers))
		s.telemetry.RejectedRecords("citation", len(clean.RejectedCitations))
	}

	return &snapshotInput{
		brand:   metrics.Brand{Name: user.BrandName, Domains: user.BrandDomains},
		records: clean.Records,
		result:  metrics.Aggregate(s.cfg, clean.Records, s.now()),
		clean:   clean,
	}, nil
}

// Calculate runs one aggregation and appends its records to the history.
func (s *metricsService) Calculate(ctx context.Context, ownerID string) (*domain.MetricsRun, error) {
	start := time.Now()

	in, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	snapshot := in.result.Snapshot
	runID := domain.GenerateID()
	records := metrics.Records(ownerID, in.brand.Name, runID, snapshot, snapshot.ComputedAt)

	previous, err := s.metrics.Latest(ctx, ownerID)
	if err != nil {
		// Deltas fall back to 0, the run itself is still valid
		s.logger.Warn("failed to load previous metrics", "owner_id", ownerID, "error", err)
		previous = nil
	}
	tracker := metrics.NewDeltaTracker(previous)
	records = tracker.Apply(records)

	run := &domain.MetricsRun{
		RunID:             runID,
		OwnerID:           ownerID,
		Brand:             in.brand.Name,
		Snapshot:          snapshot,
		Records:           records,
		Prompts:           in.result.Prompts,
		RejectedAnswers:   len(in.clean.RejectedAnswers),
		RejectedCitations: len(in.clean.RejectedCitations),
	}

	if err := s.metrics.SaveRun(ctx, records); err != nil {
		s.logger.Error("failed to persist metrics run",
			"owner_id", ownerID, "run_id", runID, "error", err)
		s.recordRun(len(in.records), start, false)
		return run, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	run.Persisted = true
	s.recordRun(len(in.records), start, true)

	s.logger.Info("metrics calculated",
		"owner_id", ownerID,
		"run_id", runID,
		"history", tracker.State().String(),
		"prompts", snapshot.TotalPrompts,
		"visibility_score", snapshot.VisibilityScore,
		"duration", time.Since(start),
	)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, ownerID); err != nil {
			s.logger.Warn("failed to invalidate dashboard cache", "owner_id", ownerID, "error", err)
		}
		if _, err := s.Dashboard(ctx, ownerID); err != nil {
			s.logger.Warn("failed to warm dashboard cache", "owner_id", ownerID, "error", err)
		}
	}

	return run, nil
}

func (s *metricsService) recordRun(prompts int, start time.Time, persisted bool) {
	if s.telemetry != nil {
		s.telemetry.AggregationRun(prompts, time.Since(start), persisted)
	}
}

// Dashboard serves the latest run, from cache when possible.
func (s *metricsService) Dashboard(ctx context.Context, ownerID string) (*domain.Dashboard, error) {
	if s.cache != nil {
		if d, err := s.cache.Get(ctx, ownerID); err == nil {
			return d, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("dashboard cache read failed", "owner_id", ownerID, "error", err)
		}
	}

	user, err := s.users.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	latest, err := s.metrics.Latest(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load latest metrics: %w", err)
	}

	d := &domain.Dashboard{
		Brand:     user.BrandName,
		Metrics:   make(map[domain.MetricType]domain.MetricRecord, len(domain.AllMetricTypes())),
		Sparkline: make(map[domain.MetricType][]float64),
	}

	// Zero metrics until the first run completes
	for _, mt := range domain.AllMetricTypes() {
		d.Metrics[mt] = domain.MetricRecord{OwnerID: ownerID, Type: mt}
	}
	if len(latest) == 0 {
		return d, nil
	}

	for _, r := range latest {
		d.Metrics[r.Type] = r
		if d.UpdatedAt == nil || r.CreatedAt.After(*d.UpdatedAt) {
			at := r.CreatedAt
			d.UpdatedAt = &at
		}
	}
	for _, mt := range domain.AllMetricTypes() {
		points, err := s.History(ctx, ownerID, mt, sparklinePoints)
		if err != nil {
			s.logger.Warn("failed to load sparkline", "owner_id", ownerID, "metric", mt, "error", err)
			continue
		}
		values := make([]float64, len(points))
		for i, p := range points {
			values[i] = p.Value
		}
		d.Sparkline[mt] = values
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, ownerID, d, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", "owner_id", ownerID, "error", err)
		}
	}
	return d, nil
}

// History returns metric values oldest first.
func (s *metricsService) History(ctx context.Context, ownerID string, metricType domain.MetricType, limit int) ([]domain.MetricPoint, error) {
	if _, err := domain.ParseMetricType(string(metricType)); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := s.metrics.History(ctx, ownerID, metricType, limit)
	if err != nil {
		return nil, fmt.Errorf("load metric history: %w", err)
	}
	if len(records) > limit {
		records = records[:limit]
	}

	points := make([]domain.MetricPoint, len(records))
	for i, r := range records {
		points[len(records)-1-i] = domain.MetricPoint{Value: r.Value, CreatedAt: r.CreatedAt}
	}
	return points, nil
}

func (s *metricsService) Prompts(ctx context.Context, ownerID string) ([]domain.PromptMetrics, error) {
	in, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return in.result.Prompts, nil
}

func (s *metricsService) Competitive(ctx context.Context, ownerID string) (*domain.CompetitiveReport, error) {
	in, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.competitive(ctx, ownerID, in)
}

func (s *metricsService) competitive(ctx context.Context, ownerID string, in *snapshotInput) (*domain.CompetitiveReport, error) {
	competitors, err := s.competitors.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load competitors: %w", err)
	}
	report := metrics.AnalyzeCompetitors(in.brand, competitors, in.records, in.result.Prompts)
	return &report, nil
}

func (s *metricsService) Topics(ctx context.Context, ownerID string) (*domain.TopicReport, error) {
	in, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	report := metrics.Topics(s.cfg, in.records, in.result.Prompts)
	return &report, nil
}

func (s *metricsService) Gaps(ctx context.Context, ownerID string) ([]domain.GapFlag, error) {
	in, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	report, err := s.competitive(ctx, ownerID, in)
	if err != nil {
		return nil, err
	}
	return metrics.DetectGaps(in.result.Snapshot, report), nil
}
