package http

import (
	"net/http"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

// Task endpoints

// handleListTasks godoc
// @Summary      List tasks
// @Description  Background tasks of the caller, newest first
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter on status"  Enums(pending, processing, completed, failed)
// @Param        limit   query     int     false  "Max results (default 20, max 100)"
// @Param        offset  query     int     false  "Results to skip"
// @Success      200     {array}   domain.Task
// @Router       /api/v1/tasks [get]
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(r, 20, 100)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit or offset")
		return
	}

	tasks, err := s.infra.TaskQueue.ListTasks(r.Context(), driven.TaskFilter{
		OwnerID: GetAuthContext(r.Context()).UserID,
		Status:  domain.TaskStatus(r.URL.Query().Get("status")),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		s.serviceError(w, r, err, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// handleGetTask godoc
// @Summary      Get task
// @Description  Status of one background task. Admins may read any task.
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  domain.Task
// @Failure      404  {object}  ErrorResponse  "Task not found"
// @Router       /api/v1/tasks/{id} [get]
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.infra.TaskQueue.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, r, err, "failed to get task")
		return
	}

	authCtx := GetAuthContext(r.Context())
	if task.OwnerID != authCtx.UserID && !authCtx.IsAdmin() {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Admin endpoints

// handleQueueStats godoc
// @Summary      Queue statistics
// @Description  Task counts by status and age of the oldest pending task (admin only)
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  driven.QueueStats
// @Router       /api/v1/admin/queue [get]
func (s *Server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.infra.TaskQueue.Stats(r.Context())
	if err != nil {
		s.serviceError(w, r, err, "failed to read queue stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleListSchedules godoc
// @Summary      List schedules
// @Description  Recurring tasks such as the periodic metrics refresh (admin only)
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.ScheduledTask
// @Router       /api/v1/admin/schedules [get]
func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.svc.Schedules.ListScheduledTasks(r.Context())
	if err != nil {
		s.serviceError(w, r, err, "failed to list schedules")
		return
	}
	if schedules == nil {
		schedules = []*domain.ScheduledTask{}
	}
	writeJSON(w, http.StatusOK, schedules)
}

// handleTriggerSchedule godoc
// @Summary      Trigger schedule
// @Description  Enqueue a scheduled task now, outside its interval (admin only)
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Schedule ID"
// @Success      202  {object}  TaskResponse
// @Failure      404  {object}  ErrorResponse  "Schedule not found"
// @Router       /api/v1/admin/schedules/{id}/trigger [post]
func (s *Server) handleTriggerSchedule(w http.ResponseWriter, r *http.Request) {
	task, err := s.svc.Schedules.TriggerNow(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, r, err, "failed to trigger schedule")
		return
	}
	writeJSON(w, http.StatusAccepted, TaskResponse{TaskID: task.ID, Status: string(task.Status)})
}

// handleEnableSchedule godoc
// @Summary      Enable schedule
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Schedule ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "Schedule not found"
// @Router       /api/v1/admin/schedules/{id}/enable [post]
func (s *Server) handleEnableSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Schedules.EnableScheduledTask(r.Context(), r.PathValue("id")); err != nil {
		s.serviceError(w, r, err, "failed to enable schedule")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "enabled"})
}

// handleDisableSchedule godoc
// @Summary      Disable schedule
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Schedule ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "Schedule not found"
// @Router       /api/v1/admin/schedules/{id}/disable [post]
func (s *Server) handleDisableSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Schedules.DisableScheduledTask(r.Context(), r.PathValue("id")); err != nil {
		s.serviceError(w, r, err, "failed to disable schedule")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "disabled"})
}

// handleCapabilities godoc
// @Summary      Runtime capabilities
// @Description  Backends in use and which answer engines passed their connectivity check
// @Tags         System
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.RuntimeStatus
// @Router       /api/v1/capabilities [get]
func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.infra.Runtime.Status())
}
