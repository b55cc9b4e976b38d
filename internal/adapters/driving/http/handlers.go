package http

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
)

// ErrorResponse is the body of every non-2xx reply
// @Description Error body
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse acknowledges an action with no payload
// @Description Acknowledgement
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadyResponse reports the state of each dependency
// @Description Readiness with per-dependency status
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

// VersionResponse carries the build version
// @Description Build version
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// handleHealth godoc
// @Summary      Health check
// @Description  Liveness check. Does not touch dependencies.
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings PostgreSQL, Redis and the task queue
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Pinger{}
	if s.infra.DB != nil {
		checks["postgres"] = s.infra.DB
	}
	if s.infra.Redis != nil {
		checks["redis"] = s.infra.Redis
	}
	if s.infra.TaskQueue != nil {
		checks["queue"] = s.infra.TaskQueue
	}

	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string, len(checks))}
	status := http.StatusOK
	for name, p := range checks {
		if err := p.Ping(r.Context()); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Build version of the running server
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// handleLogin godoc
// @Summary      User login
// @Description  Exchange email and password for an access token and a refresh token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.LoginRequest  true  "Login credentials"
// @Success      200      {object}  domain.LoginResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid credentials or account disabled"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /api/v1/auth/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.UserAgent = r.UserAgent()
	req.IPAddress = clientIP(r)

	resp, err := s.svc.Auth.Authenticate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, domain.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "account disabled")
		default:
			s.serviceError(w, r, err, "authentication failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRefresh godoc
// @Summary      Refresh token
// @Description  Spend a refresh token on a new session
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.RefreshRequest  true  "Refresh token"
// @Success      200      {object}  domain.LoginResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Invalid refresh token"
// @Router       /api/v1/auth/refresh [post]
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.svc.Auth.RefreshToken(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLogout godoc
// @Summary      Logout user
// @Description  End the session behind the bearer token
// @Tags         Authentication
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  StatusResponse
// @Router       /api/v1/auth/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := extractBearerToken(r); token != "" {
		if err := s.svc.Auth.Logout(r.Context(), token); err != nil {
			s.logger.Warn("logout failed", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleSetup godoc
// @Summary      Initial setup
// @Description  Create the initial admin user. Only allowed while no users exist.
// @Tags         Setup
// @Accept       json
// @Produce      json
// @Param        request  body      domain.CreateUserRequest  true  "Admin user details"
// @Success      201      {object}  domain.UserSummary
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      403      {object}  ErrorResponse  "Setup already complete"
// @Router       /api/v1/setup [post]
func (s *Server) handleSetup(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.svc.Users.Setup(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			writeError(w, http.StatusForbidden, "setup already complete")
			return
		}
		s.serviceError(w, r, err, "setup failed")
		return
	}
	writeJSON(w, http.StatusCreated, user.ToSummary())
}

// handleGetMe godoc
// @Summary      Get current user
// @Description  Get the authenticated user's profile and tracked brand
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.UserSummary
// @Failure      401  {object}  ErrorResponse  "Unauthorized"
// @Failure      404  {object}  ErrorResponse  "User not found"
// @Router       /api/v1/me [get]
func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	user, err := s.svc.Users.Get(r.Context(), authCtx.UserID)
	if err != nil {
		s.serviceError(w, r, err, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, user.ToSummary())
}

// handleUpdateBrand godoc
// @Summary      Update tracked brand
// @Description  Set the brand name and owned domains metrics are computed for
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.UpdateBrandRequest  true  "Brand settings"
// @Success      200      {object}  domain.UserSummary
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Router       /api/v1/me/brand [put]
func (s *Server) handleUpdateBrand(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateBrandRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.svc.Users.UpdateBrand(r.Context(), GetAuthContext(r.Context()).UserID, req)
	if err != nil {
		s.serviceError(w, r, err, "failed to update brand")
		return
	}
	writeJSON(w, http.StatusOK, user.ToSummary())
}

// handleListUsers godoc
// @Summary      List all users
// @Description  Every account with its role and tracked brand (admin only)
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.UserSummary
// @Failure      403  {object}  ErrorResponse  "Forbidden - admin only"
// @Router       /api/v1/users [get]
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.Users.List(r.Context())
	if err != nil {
		s.serviceError(w, r, err, "failed to list users")
		return
	}

	summaries := make([]*domain.UserSummary, len(users))
	for i, u := range users {
		summaries[i] = u.ToSummary()
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleCreateUser godoc
// @Summary      Create user
// @Description  Add an admin, analyst or viewer account (admin only)
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.CreateUserRequest  true  "User details"
// @Success      201      {object}  domain.UserSummary
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      409      {object}  ErrorResponse  "Email already registered"
// @Router       /api/v1/users [post]
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.svc.Users.Create(r.Context(), req)
	if err != nil {
		s.serviceError(w, r, err, "failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, user.ToSummary())
}

// handleDeleteUser godoc
// @Summary      Delete user
// @Description  Delete a user and everything they own (admin only)
// @Tags         Users
// @Security     BearerAuth
// @Param        id   path  string  true  "User ID"
// @Success      204
// @Failure      400  {object}  ErrorResponse  "Cannot delete yourself"
// @Failure      404  {object}  ErrorResponse  "User not found"
// @Router       /api/v1/users/{id} [delete]
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == GetAuthContext(r.Context()).UserID {
		writeError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	if err := s.svc.Users.Delete(r.Context(), id); err != nil {
		s.serviceError(w, r, err, "failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Helpers

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// decodeJSON decodes the body into v, writing a 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// serviceError maps domain errors to HTTP statuses. Client errors carry the
// error text; server errors carry fallback and are logged.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrProcessingInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrEngineUnavailable):
		writeError(w, http.StatusServiceUnavailable, "answer engine unavailable")
	default:
		s.logger.Error(fallback, "request_id", RequestID(r.Context()), "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// pagination reads limit and offset query parameters
func pagination(r *http.Request, defaultLimit, maxLimit int) (limit, offset int, ok bool) {
	limit, offset = defaultLimit, 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, false
		}
		limit = min(n, maxLimit)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}

// clientIP is the peer address without port. Proxy headers are not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
