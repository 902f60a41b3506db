package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/alertledger/internal/api/dto"
	"github.com/eshaffer321/alertledger/internal/infrastructure/storage"
)

// RunsHandler handles ingest run-related HTTP requests.
type RunsHandler struct {
	*Base
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(repo storage.Repository) *RunsHandler {
	return &RunsHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/runs - returns recent runs, newest first.
func (h *RunsHandler) List(c *gin.Context) {
	params := dto.DefaultRunListParams()
	params.Limit = ParseIntParam(c, "limit", params.Limit)

	runs, err := h.repo.ListRuns(c.Request.Context(), params.Limit)
	if err != nil {
		h.WriteError(c, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.RunListResponse{
		Runs:  make([]dto.RunResponse, 0, len(runs)),
		Count: len(runs),
	}

	for _, run := range runs {
		response.Runs = append(response.Runs, toRunResponse(run))
	}

	h.WriteJSON(c, http.StatusOK, response)
}

// Get handles GET /api/runs/:id - returns a single run by ID.
func (h *RunsHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("run ID is required"))
		return
	}

	run, err := h.repo.GetRun(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		h.WriteError(c, http.StatusNotFound, dto.NotFoundError("run"))
		return
	}
	if err != nil {
		h.WriteError(c, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(c, http.StatusOK, toRunResponse(*run))
}

// toRunResponse converts a storage Run to an API response.
func toRunResponse(run storage.Run) dto.RunResponse {
	response := dto.RunResponse{
		ID:           run.ID,
		Source:       run.Source,
		StartedAt:    run.StartedAt.UTC().Format(time.RFC3339),
		DryRun:       run.DryRun,
		Status:       run.Status,
		ErrorMessage: run.ErrorMessage,
		RowCount:     run.RowCount,
		Stats:        run.Stats,
	}
	if run.CompletedAt != nil {
		response.CompletedAt = run.CompletedAt.UTC().Format(time.RFC3339)
	}
	return response
}
