package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/preetbuilds/discoverr-acme-insight/internal/core/domain"
	"github.com/preetbuilds/discoverr-acme-insight/internal/core/ports/driven"
)

// ProcessPromptsRequest selects prompts to (re)process
// @Description Prompt ids to process; empty means every unprocessed prompt
type ProcessPromptsRequest struct {
	PromptIDs []string `json:"prompt_ids"`
}

// TaskResponse acknowledges queued work
// @Description Queued task reference
type TaskResponse struct {
	TaskID string `json:"task_id" example:"0f8fad5b-d9cb-469f-a165-70867728950e"`
	Status string `json:"status" example:"pending"`
}

// handleUploadPrompts godoc
// @Summary      Upload prompts
// @Description  Upload a CSV or XLSX file. The first column of every row after the header becomes a prompt; processing is queued.
// @Tags         Prompts
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file      formData  file    true   "CSV or XLSX file"
// @Param        category  formData  string  false  "Category assigned to every prompt"
// @Success      201       {object}  domain.IngestionReport
// @Failure      400       {object}  ErrorResponse  "Unsupported, unreadable or empty file"
// @Failure      413       {object}  ErrorResponse  "File too large"
// @Router       /api/v1/prompts/upload [post]
func (s *Server) handleUploadPrompts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	category := strings.TrimSpace(r.FormValue("category"))
	report, err := s.svc.Ingestion.Upload(r.Context(), GetAuthContext(r.Context()).UserID, header.Filename, file, category)
	if err != nil {
		s.serviceError(w, r, err, "failed to upload prompts")
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// handleProcessPrompts godoc
// @Summary      Process prompts
// @Description  Queue prompts for answering by every engine. Already processed prompts are cleared and processed again.
// @Tags         Prompts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      ProcessPromptsRequest  false  "Prompt ids"
// @Success      202      {object}  TaskResponse
// @Failure      404      {object}  ErrorResponse  "Prompt not found"
// @Router       /api/v1/prompts/process [post]
func (s *Server) handleProcessPrompts(w http.ResponseWriter, r *http.Request) {
	var req ProcessPromptsRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	task, err := s.svc.Prompts.Reprocess(r.Context(), GetAuthContext(r.Context()).UserID, req.PromptIDs)
	if err != nil {
		s.serviceError(w, r, err, "failed to queue processing")
		return
	}
	writeJSON(w, http.StatusAccepted, TaskResponse{TaskID: task.ID, Status: string(task.Status)})
}

// handleListPrompts godoc
// @Summary      List prompts
// @Description  List the caller's tracked prompts
// @Tags         Prompts
// @Produce      json
// @Security     BearerAuth
// @Param        processed  query     bool    false  "Filter on processed state"
// @Param        category   query     string  false  "Filter on category"
// @Param        limit      query     int     false  "Max results (default 50, max 500)"
// @Param        offset     query     int     false  "Results to skip"
// @Success      200        {array}   domain.Prompt
// @Failure      400        {object}  ErrorResponse  "Invalid query"
// @Router       /api/v1/prompts [get]
func (s *Server) handleListPrompts(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pagination(r, 50, 500)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit or offset")
		return
	}

	filter := driven.PromptFilter{
		Category: r.URL.Query().Get("category"),
		Limit:    limit,
		Offset:   offset,
	}
	if v := r.URL.Query().Get("processed"); v != "" {
		processed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid processed filter")
			return
		}
		filter.Processed = &processed
	}

	prompts, err := s.svc.Prompts.List(r.Context(), GetAuthContext(r.Context()).UserID, filter)
	if err != nil {
		s.serviceError(w, r, err, "failed to list prompts")
		return
	}
	if prompts == nil {
		prompts = []*domain.Prompt{}
	}
	writeJSON(w, http.StatusOK, prompts)
}

// handleGetPrompt godoc
// @Summary      Get prompt
// @Description  Get a prompt with every engine answer and its citations
// @Tags         Prompts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Prompt ID"
// @Success      200  {object}  domain.PromptWithAnswers
// @Failure      404  {object}  ErrorResponse  "Prompt not found"
// @Router       /api/v1/prompts/{id} [get]
func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	prompt, err := s.svc.Prompts.Get(r.Context(), GetAuthContext(r.Context()).UserID, r.PathValue("id"))
	if err != nil {
		s.serviceError(w, r, err, "failed to get prompt")
		return
	}
	writeJSON(w, http.StatusOK, prompt)
}

// handleDeletePrompt godoc
// @Summary      Delete prompt
// @Description  Delete a prompt together with its answers and citations
// @Tags         Prompts
// @Security     BearerAuth
// @Param        id   path  string  true  "Prompt ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse  "Prompt not found"
// @Router       /api/v1/prompts/{id} [delete]
func (s *Server) handleDeletePrompt(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Prompts.Delete(r.Context(), GetAuthContext(r.Context()).UserID, r.PathValue("id")); err != nil {
		s.serviceError(w, r, err, "failed to delete prompt")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
