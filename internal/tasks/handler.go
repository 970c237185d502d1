package tasks

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/careline/triage/internal/pipeline"
	"github.com/careline/triage/pkg/handlers"
	"github.com/careline/triage/pkg/pagination"
	"github.com/careline/triage/pkg/routes"
)

// Handler provides HTTP endpoints for task operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// ProcessRequest is the JSON body for the process endpoint.
type ProcessRequest struct {
	Transcript   string     `json:"transcript"`
	TranscriptID *uuid.UUID `json:"transcript_id"`
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// CompletedResponse is the body returned for a completed pipeline run.
type CompletedResponse struct {
	Status        string                `json:"status"`
	TaskID        *uuid.UUID            `json:"task_id"`
	Task          *pipeline.TaskPayload `json:"task"`
	PolicyVersion string                `json:"policy_version"`
}

// RejectedResponse is the body returned for a rejected pipeline run.
type RejectedResponse struct {
	Status            string                     `json:"status"`
	RejectionReason   string                     `json:"rejection_reason"`
	RejectionCategory pipeline.RejectionCategory `json:"rejection_category"`
	PolicyVersion     string                     `json:"policy_version"`
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "tasks"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for task endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/tasks",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/stats", Handler: h.Stats},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "/process", Handler: h.Process},
			{Method: "POST", Pattern: "/process/{transcriptId}", Handler: h.ProcessStored},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
		},
	}
}

// Process runs the pipeline against transcript text supplied in the request
// body. A completed run returns 200 with the persisted task; a QA rejection
// returns 422 with the documented reason; pipeline failures return their
// classified error kind.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Process(r.Context(), req.Transcript, req.TranscriptID)
	if err != nil {
		h.respondPipelineError(w, err)
		return
	}

	h.respondResult(w, result)
}

// ProcessStored runs the pipeline against a previously stored transcript.
func (h *Handler) ProcessStored(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("transcriptId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	result, err := h.sys.ProcessStored(r.Context(), id)
	if err != nil {
		h.respondPipelineError(w, err)
		return
	}

	h.respondResult(w, result)
}

func (h *Handler) respondResult(w http.ResponseWriter, result *pipeline.Result) {
	switch result.Verdict {
	case pipeline.VerdictRejected:
		handlers.RespondJSON(w, http.StatusUnprocessableEntity, RejectedResponse{
			Status:            string(pipeline.VerdictRejected),
			RejectionReason:   result.Rejection.Reason,
			RejectionCategory: result.Rejection.Category,
			PolicyVersion:     result.PolicyVersion,
		})
	default:
		handlers.RespondJSON(w, http.StatusOK, CompletedResponse{
			Status:        string(pipeline.VerdictCompleted),
			TaskID:        result.TaskID,
			Task:          result.Task,
			PolicyVersion: result.PolicyVersion,
		})
	}
}

func (h *Handler) respondPipelineError(w http.ResponseWriter, err error) {
	status := MapHTTPStatus(err)
	if status == http.StatusUnprocessableEntity || status == http.StatusNotFound {
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	h.logger.Error("pipeline request failed", "error", err, "kind", pipeline.Kind(err))

	handlers.RespondJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  pipeline.Kind(err),
	})
}

// List returns a paginated list of tasks with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single task by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	task, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, task)
}

// Stats returns aggregate task counts by status and priority level.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.sys.Stats(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, stats)
}

// Search accepts a JSON body with pagination and filter criteria and returns matching tasks.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
