package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// RequestRecorder receives one observation per served request
type RequestRecorder interface {
	HTTPRequest(method, route string, status int, d time.Duration)
}

// Services bundles the driving ports the API exposes
type Services struct {
	Auth        driving.AuthService
	Users       driving.UserService
	Ingestion   driving.IngestionService
	Prompts     driving.PromptService
	Competitors driving.CompetitorService
	Metrics     driving.MetricsService
	Schedules   driving.ScheduleService // Optional: schedule admin routes 404 without it
}

// Infra bundles infrastructure the API reports on
type Infra struct {
	TaskQueue      driven.TaskQueue
	DB             Pinger          // PostgreSQL health check
	Redis          Pinger          // Redis health check (optional)
	MetricsHandler http.Handler    // Prometheus exposition (optional)
	Recorder       RequestRecorder // Optional
	Runtime        *domain.RuntimeConfig
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	svc   Services
	infra Infra

	maxUploadBytes int64
	allowedOrigins []string
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	MaxUploadBytes int64
	AllowedOrigins []string
	Logger         *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		MaxUploadBytes: 10 << 20,
	}
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, svc Services, infra Infra) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}

	s := &Server{
		router:         http.NewServeMux(),
		version:        cfg.Version,
		logger:         logger,
		svc:            svc,
		infra:          infra,
		maxUploadBytes: cfg.MaxUploadBytes,
		allowedOrigins: cfg.AllowedOrigins,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // synchronous metric runs
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// Handler returns the router wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	if len(s.allowedOrigins) > 0 {
		h = NewCORSMiddleware(s.allowedOrigins).Handler(h)
	}
	h = NewLoggingMiddleware(s.logger, s.router, s.infra.Recorder).Handler(h)
	return NewRecoveryMiddleware(s.logger).Handler(h)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	auth := NewAuthMiddleware(s.svc.Auth)
	authed := func(h http.HandlerFunc) http.Handler {
		return auth.Authenticate(h)
	}
	writer := func(h http.HandlerFunc) http.Handler {
		return auth.Authenticate(auth.RequireWriter(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return auth.Authenticate(auth.RequireAdmin(h))
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	if s.infra.MetricsHandler != nil {
		s.router.Handle("GET /metrics", s.infra.MetricsHandler)
	}

	// Auth endpoints
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	s.router.HandleFunc("POST /api/v1/auth/refresh", s.handleRefresh)
	s.router.HandleFunc("POST /api/v1/setup", s.handleSetup)
	s.router.Handle("POST /api/v1/auth/logout", authed(s.handleLogout))

	// Users and brand
	s.router.Handle("GET /api/v1/me", authed(s.handleGetMe))
	s.router.Handle("PUT /api/v1/me/brand", writer(s.handleUpdateBrand))
	s.router.Handle("GET /api/v1/users", admin(s.handleListUsers))
	s.router.Handle("POST /api/v1/users", admin(s.handleCreateUser))
	s.router.Handle("DELETE /api/v1/users/{id}", admin(s.handleDeleteUser))

	// Prompts
	s.router.Handle("POST /api/v1/prompts/upload", writer(s.handleUploadPrompts))
	s.router.Handle("POST /api/v1/prompts/process", writer(s.handleProcessPrompts))
	s.router.Handle("GET /api/v1/prompts", authed(s.handleListPrompts))
	s.router.Handle("GET /api/v1/prompts/{id}", authed(s.handleGetPrompt))
	s.router.Handle("DELETE /api/v1/prompts/{id}", writer(s.handleDeletePrompt))

	// Metrics
	s.router.Handle("POST /api/v1/metrics/calculate", writer(s.handleCalculateMetrics))
	s.router.Handle("GET /api/v1/metrics", authed(s.handleDashboard))
	s.router.Handle("GET /api/v1/metrics/history/{type}", authed(s.handleMetricHistory))
	s.router.Handle("GET /api/v1/metrics/prompts", authed(s.handlePromptMetrics))
	s.router.Handle("GET /api/v1/metrics/gaps", authed(s.handleGaps))
	s.router.Handle("GET /api/v1/topics", authed(s.handleTopics))

	// Competitors
	s.router.Handle("GET /api/v1/competitors", authed(s.handleListCompetitors))
	s.router.Handle("POST /api/v1/competitors", writer(s.handleAddCompetitor))
	s.router.Handle("DELETE /api/v1/competitors/{id}", writer(s.handleRemoveCompetitor))
	s.router.Handle("GET /api/v1/competitors/analysis", authed(s.handleCompetitiveAnalysis))

	if s.infra.Runtime != nil {
		s.router.Handle("GET /api/v1/capabilities", authed(s.handleCapabilities))
	}

	// Tasks
	s.router.Handle("GET /api/v1/tasks", authed(s.handleListTasks))
	s.router.Handle("GET /api/v1/tasks/{id}", authed(s.handleGetTask))

	// Admin
	s.router.Handle("GET /api/v1/admin/queue", admin(s.handleQueueStats))
	if s.svc.Schedules != nil {
		s.router.Handle("GET /api/v1/admin/schedules", admin(s.handleListSchedules))
		s.router.Handle("POST /api/v1/admin/schedules/{id}/trigger", admin(s.handleTriggerSchedule))
		s.router.Handle("POST /api/v1/admin/schedules/{id}/enable", admin(s.handleEnableSchedule))
		s.router.Handle("POST /api/v1/admin/schedules/{id}/disable", admin(s.handleDisableSchedule))
	}
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM, then shuts
// down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
