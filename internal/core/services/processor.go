package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"golang.org/x/time/rate"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driving"
	"github.com/preetbuilds/discoverr-acme-insight/internal/runtime"
)

// Ensure promptProcessor implements PromptProcessor
var _ driving.PromptProcessor = (*promptProcessor)(nil)

// Excerpt window around the first brand mention, in characters
const (
	highlightBefore = 50
	highlightAfter  = 100
)

// Outcome labels for engine call telemetry
const (
	outcomeOK       = "ok"
	outcomeError    = "error"
	outcomeAnalysis = "analysis_error"
)

// ProcessorConfig holds the dependencies of the prompt processor.
type ProcessorConfig struct {
	Prompts     driven.PromptStore
	Answers     driven.AnswerStore
	Users       driven.UserStore
	Competitors driven.CompetitorStore
	Engines     []driven.AnswerEngine
	Analyzer    driven.AnswerAnalyzer
	Runtime     *runtime.Services       // Optional: when set, engines and analyzer are read from it on every run
	Enricher    driven.CitationEnricher // Optional: citations keep zero authority/freshness without it
	TaskQueue   driven.TaskQueue        // Optional: enqueues calculate_metrics after a run
	Telemetry   driven.Telemetry        // Optional

	// RequestsPerSecond limits engine calls across all engines (0 = unlimited)
	RequestsPerSecond float64
	Burst             int
	Logger            *slog.Logger
}

type promptProcessor struct {
	prompts     driven.PromptStore
	answers     driven.AnswerStore
	users       driven.UserStore
	competitors driven.CompetitorStore
	engines     []driven.AnswerEngine
	analyzer    driven.AnswerAnalyzer
	runtime     *runtime.Services
	enricher    driven.CitationEnricher
	queue       driven.TaskQueue
	telemetry   driven.Telemetry
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// NewPromptProcessor creates the upstream producer that fills answers and citations.
func NewPromptProcessor(cfg ProcessorConfig) driving.PromptProcessor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &promptProcessor{
		prompts:     cfg.Prompts,
		answers:     cfg.Answers,
		users:       cfg.Users,
		competitors: cfg.Competitors,
		engines:     cfg.Engines,
		analyzer:    cfg.Analyzer,
		runtime:     cfg.Runtime,
		enricher:    cfg.Enricher,
		queue:       cfg.TaskQueue,
		telemetry:   cfg.Telemetry,
		limiter:     limiter,
		logger:      logger,
	}
}

// Process queries every engine for each prompt. A failed engine call or
// analysis skips that (prompt, engine) pair only. On cancellation no further
// prompts are started; answers already saved are kept.
func (p *promptProcessor) Process(ctx context.Context, ownerID string, promptIDs []string) (*domain.ProcessReport, error) {
	engines, analyzer := p.current()
	if len(engines) == 0 || analyzer == nil {
		return nil, domain.ErrEngineUnavailable
	}
	start := time.Now()

	user, err := p.users.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if user.BrandName == "" {
		return nil, fmt.Errorf("%w: brand name not configured", domain.ErrInvalidInput)
	}

	prompts, err := p.load(ctx, ownerID, promptIDs)
	if err != nil {
		return nil, err
	}

	var competitorNames []string
	if p.competitors != nil {
		competitors, err := p.competitors.List(ctx, ownerID)
		if err != nil {
			p.logger.Warn("failed to load competitors", "owner_id", ownerID, "error", err)
		}
		for _, c := range competitors {
			competitorNames = append(competitorNames, c.Name)
		}
	}

	report := &domain.ProcessReport{Prompts: len(prompts)}
	for _, prompt := range prompts {
		if ctx.Err() != nil {
			break
		}

		saved := 0
		for _, engine := range engines {
			answer, rejected, err := p.answer(ctx, engine, analyzer, user, competitorNames, prompt)
			report.RejectedCitations += rejected
			if err != nil {
				report.FailedCalls++
				p.logger.Warn("engine answer skipped",
					"prompt_id", prompt.ID, "engine", engine.Engine(), "error", err)
				continue
			}

			if err := p.answers.Save(ctx, answer); err != nil {
				if errors.Is(err, domain.ErrAlreadyExists) {
					saved++
					continue
				}
				report.FailedCalls++
				p.logger.Error("failed to save answer",
					"prompt_id", prompt.ID, "engine", engine.Engine(), "error", err)
				continue
			}
			saved++
			report.Answers++
		}

		if saved == 0 {
			report.Failed++
			continue
		}
		if err := p.prompts.MarkProcessed(ctx, prompt.ID); err != nil {
			p.logger.Error("failed to mark prompt processed", "prompt_id", prompt.ID, "error", err)
			report.Failed++
			continue
		}
		report.Processed++
	}
	report.Duration = time.Since(start)

	p.logger.Info("prompts processed",
		"owner_id", ownerID,
		"prompts", report.Prompts,
		"processed", report.Processed,
		"failed", report.Failed,
		"answers", report.Answers,
		"failed_calls", report.FailedCalls,
		"duration", report.Duration,
	)

	if report.Processed > 0 && p.queue != nil {
		// Use a fresh context so a cancelled run still schedules aggregation
		// of what it saved.
		enqueueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := p.queue.Enqueue(enqueueCtx, domain.NewCalculateMetricsTask(ownerID)); err != nil {
			p.logger.Warn("failed to enqueue metrics calculation", "owner_id", ownerID, "error", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (p *promptProcessor) current() ([]driven.AnswerEngine, driven.AnswerAnalyzer) {
	if p.runtime != nil {
		return p.runtime.Engines(), p.runtime.Analyzer()
	}
	return p.engines, p.analyzer
}

func (p *promptProcessor) load(ctx context.Context, ownerID string, ids []string) ([]*domain.Prompt, error) {
	if len(ids) == 0 {
		unprocessed := false
		return p.prompts.List(ctx, ownerID, driven.PromptFilter{Processed: &unprocessed})
	}
	return p.prompts.ListByIDs(ctx, ownerID, ids)
}

// answer runs one (prompt, engine) pair through the engine, the analyzer and
// the citation enricher. It returns the number of citations dropped.
func (p *promptProcessor) answer(
	ctx context.Context,
	engine driven.AnswerEngine,
	analyzer driven.AnswerAnalyzer,
	user *domain.User,
	competitors []string,
	prompt *domain.Prompt,
) (*domain.Answer, int, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	callStart := time.Now()
	text, err := engine.Answer(ctx, prompt.Text)
	if err != nil {
		p.observe(engine.Engine(), outcomeError, callStart)
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrEngineUnavailable, err)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}
	analysis, err := analyzer.Analyze(ctx, domain.AnalysisRequest{
		Brand:        user.BrandName,
		BrandDomains: user.BrandDomains,
		Competitors:  competitors,
		Prompt:       prompt.Text,
		Answer:       text,
	})
	if err != nil {
		p.observe(engine.Engine(), outcomeAnalysis, callStart)
		return nil, 0, err
	}
	p.observe(engine.Engine(), outcomeOK, callStart)

	answer := &domain.Answer{
		ID:          domain.GenerateID(),
		PromptID:    prompt.ID,
		Engine:      engine.Engine(),
		Snippet:     text,
		Highlighted: Highlight(text, user.BrandName),
		Rank:        analysis.Rank,
		Sentiment:   analysis.Sentiment,
		Mentions:    analysis.Mentions,
		CreatedAt:   time.Now(),
	}
	if !answer.Mentioned() {
		answer.Sentiment = 0
	}
	if err := answer.Validate(); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrMalformedAnalysis, err)
	}

	rejected := 0
	for _, ref := range analysis.Citations {
		c := domain.CitingDomain{
			ID:       domain.GenerateID(),
			AnswerID: answer.ID,
			Domain:   domain.NormalizeDomain(ref.Domain),
			URL:      ref.URL,
			Type:     ref.Type,
		}
		if c.Type == "" {
			c.Type = domain.DomainEarned
		}
		if c.URL == "" && c.Domain != "" {
			c.URL = "https://" + c.Domain
		}
		if p.enricher != nil {
			if err := p.enricher.Enrich(ctx, &c); err != nil {
				p.logger.Debug("citation enrichment failed", "domain", c.Domain, "error", err)
			}
		}
		if err := c.Validate(); err != nil {
			rejected++
			p.logger.Warn("citation rejected", "prompt_id", prompt.ID, "domain", c.Domain, "error", err)
			continue
		}
		answer.Citations = append(answer.Citations, c)
	}
	return answer, rejected, nil
}

func (p *promptProcessor) observe(engine domain.Engine, outcome string, start time.Time) {
	if p.telemetry != nil {
		p.telemetry.EngineCall(engine, outcome, time.Since(start))
	}
}

// Highlight returns the excerpt around the first case-insensitive mention of
// brand: up to 50 characters before it and 100 characters from its start.
// Returns "" when the brand is not mentioned.
func Highlight(text, brand string) string {
	if brand == "" {
		return ""
	}
	runes := []rune(text)
	needle := []rune(brand)
	idx := indexFold(runes, needle)
	if idx < 0 {
		return ""
	}
	start := max(0, idx-highlightBefore)
	end := min(len(runes), idx+highlightAfter)
	return string(runes[start:end])
}

func indexFold(haystack, needle []rune) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, r := range needle {
			if unicode.ToLower(haystack[i+j]) != unicode.ToLower(r) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
