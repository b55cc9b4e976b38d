package http

import (
	"errors"
	"net/http"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driving"
)

// handleCalculateMetrics godoc
// @Summary      Calculate metrics
// @Description  Aggregate every processed prompt into a new metrics run. When storing the run fails the computed run is still returned with persisted=false.
// @Tags         Metrics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.MetricsRun
// @Failure      500  {object}  ErrorResponse  "Calculation failed"
// @Router       /api/v1/metrics/calculate [post]
func (s *Server) handleCalculateMetrics(w http.ResponseWriter, r *http.Request) {
	run, err := s.svc.Metrics.Calculate(r.Context(), GetAuthContext(r.Context()).UserID)
	if err != nil && !(errors.Is(err, domain.ErrPersistence) && run != nil) {
		s.serviceError(w, r, err, "failed to calculate metrics")
		return
	}
	if err != nil {
		s.logger.Warn("metrics run not persisted", "run_id", run.RunID, "error", err)
	}
	writeJSON(w, http.StatusOK, run)
}

// handleDashboard godoc
// @Summary      Dashboard metrics
// @Description  Latest value, delta and sparkline of every headline metric. Zero-valued before the first run.
// @Tags         Metrics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Dashboard
// @Router       /api/v1/metrics [get]
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.svc.Metrics.Dashboard(r.Context(), GetAuthContext(r.Context()).UserID)
	if err != nil {
		s.serviceError(w, r, err, "failed to load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// handleMetricHistory godoc
// @Summary      Metric history
// @Description  Past values of one metric, oldest first
// @Tags         Metrics
// @Produce      json
// @Security     BearerAuth
// @Param        type   path      string  true   "Metric type"  Enums(visibility_score, overall_ranking, top_answer_rate, sentiment_score, citation_count, air)
// @Param        limit  query     int     false  "Max points (default 30, max 365)"
// @Success      200    {array}   domain.MetricPoint
// @Failure      400    {object}  ErrorResponse  "Unknown metric type"
// @Router       /api/v1/metrics/history/{type} [get]
func (s *Server) handleMetricHistory(w http.ResponseWriter, r *http.Request) {
	metricType, err := domain.ParseMetricType(r.PathValue("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, _, ok := pagination(r, 30, 365)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	points, err := s.svc.Metrics.History(r.Context(), GetAuthContext(r.Context()).UserID, metricType, limit)
	if err != nil {
		s.serviceError(w, r, err, "failed to load history")
		return
	}
	if points == nil {
		points = []domain.MetricPoint{}
	}
	writeJSON(w, http.StatusOK, points)
}

// handlePromptMetrics godoc
// @Summary      Prompt metrics
// @Description  Per-prompt visibility, rank, sentiment, citations and freshness
// @Tags         Metrics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.PromptMetrics
// @Router       /api/v1/metrics/prompts [get]
func (s *Server) handlePromptMetrics(w http.ResponseWriter, r *http.Request) {
	prompts, err := s.svc.Metrics.Prompts(r.Context(), GetAuthContext(r.Context()).UserID)
	if err != nil {
		s.serviceError(w, r, err, "failed to load prompt metrics")
		return
	}
	if prompts == nil {
		prompts = []domain.PromptMetrics{}
	}
	writeJSON(w, http.StatusOK, prompts)
}

// handleGaps godoc
// @Summary      Content gaps
// @Description  Snapshot-level gap flags: low coverage or authority, competitors ahead, few earned citations, stale sources
// @Tags         Metrics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.GapFlag
// @Router       /api/v1/metrics/gaps [get]
func (s *Server) handleGaps(w http.ResponseWriter, r *http.Request) {
	gaps, err := s.svc.Metrics.Gaps(r.Context(), GetAuthContext(r.Context()).UserID)
	if err != nil {
		s.serviceError(w, r, err, "failed to load gaps")
		return
	}
	if gaps == nil {
		gaps = []domain.GapFlag{}
	}
	writeJSON(w, http.StatusOK, gaps)
}

// handleTopics godoc
// @Summary      Topic analysis
// @Description  Visibility and competitor presence grouped by prompt category
// @Tags         Metrics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.TopicReport
// @Router       /api/v1/topics [get]
func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Metrics.Topics(r.Context(), GetAuthContext(r.Context()).UserID)
	if err != nil {
		s.serviceError(w, r, err, "failed to load topics")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Competitor endpoints

// handleListCompetitors godoc
// @Summary      List competitors
// @Tags         Competitors
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Competitor
// @Router       /api/v1/competitors [get]
func (s *Server) handleListCompetitors(w http.ResponseWriter, r *http.Request) {
	competitors, err := s.svc.Competitors.List(r.Context(), GetAuthContext(r.Context()).UserID)
	if err != nil {
		s.serviceError(w, r, err, "failed to list competitors")
		return
	}
	if competitors == nil {
		competitors = []*domain.Competitor{}
	}
	writeJSON(w, http.StatusOK, competitors)
}

// handleAddCompetitor godoc
// @Summary      Add competitor
// @Tags         Competitors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.AddCompetitorRequest  true  "Competitor"
// @Success      201      {object}  domain.Competitor
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      409      {object}  ErrorResponse  "Competitor already tracked"
// @Router       /api/v1/competitors [post]
func (s *Server) handleAddCompetitor(w http.ResponseWriter, r *http.Request) {
	var req driving.AddCompetitorRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	competitor, err := s.svc.Competitors.Add(r.Context(), GetAuthContext(r.Context()).UserID, req)
	if err != nil {
		s.serviceError(w, r, err, "failed to add competitor")
		return
	}
	writeJSON(w, http.StatusCreated, competitor)
}

// handleRemoveCompetitor godoc
// @Summary      Remove competitor
// @Tags         Competitors
// @Security     BearerAuth
// @Param        id   path  string  true  "Competitor ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse  "Competitor not found"
// @Router       /api/v1/competitors/{id} [delete]
func (s *Server) handleRemoveCompetitor(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Competitors.Remove(r.Context(), GetAuthContext(r.Context()).UserID, r.PathValue("id")); err != nil {
		s.serviceError(w, r, err, "failed to remove competitor")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCompetitiveAnalysis godoc
// @Summary      Competitive analysis
// @Description  Share of voice, average rank and citation share of the brand against each competitor
// @Tags         Competitors
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.CompetitiveReport
// @Router       /api/v1/competitors/analysis [get]
func (s *Server) handleCompetitiveAnalysis(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Metrics.Competitive(r.Context(), GetAuthContext(r.Context()).UserID)
	if err != nil {
		s.serviceError(w, r, err, "failed to load competitive analysis")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
