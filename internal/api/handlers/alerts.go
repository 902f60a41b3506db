package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/alertledger/internal/api/dto"
	"github.com/eshaffer321/alertledger/internal/application/service"
	"github.com/eshaffer321/alertledger/internal/domain/message"
	"github.com/eshaffer321/alertledger/internal/domain/rules"
)

// Ingester turns alert messages into ledger rows.
type Ingester interface {
	Ingest(ctx context.Context, req service.IngestRequest) (*service.IngestResult, error)
}

// AlertsHandler handles incoming alert webhooks.
type AlertsHandler struct {
	*Base
	ingester Ingester
	logger   *slog.Logger
}

// NewAlertsHandler creates a new alerts handler.
func NewAlertsHandler(ingester Ingester, logger *slog.Logger) *AlertsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertsHandler{
		Base:     &Base{},
		ingester: ingester,
		logger:   logger,
	}
}

// Create handles POST /api/alerts - parses the alerts and returns the rows
// produced per channel. ?dry_run=true skips persistence.
func (h *AlertsHandler) Create(c *gin.Context) {
	var req dto.AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}

	result, err := h.ingester.Ingest(c.Request.Context(), service.IngestRequest{
		Messages: req.Bodies(),
		DryRun:   req.DryRun || ParseBoolParam(c, "dry_run", false),
		Source:   service.SourceAPI,
	})
	if err != nil {
		h.writeIngestError(c, err)
		return
	}

	h.WriteJSON(c, http.StatusOK, dto.AlertResponse{
		RunID:    result.RunID,
		DryRun:   result.DryRun,
		Channels: result.Channels,
		Stats:    result.Stats,
	})
}

func (h *AlertsHandler) writeIngestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, message.ErrNoTextFound):
		h.WriteError(c, http.StatusUnprocessableEntity, dto.NoTextError(err.Error()))
	case errors.Is(err, rules.ErrRuleTableUnavailable):
		h.WriteError(c, http.StatusServiceUnavailable, dto.RulesUnavailableError())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.WriteError(c, http.StatusRequestTimeout, dto.RequestCancelledError())
	default:
		h.logger.Error("alert ingest failed", "error", err)
		h.WriteError(c, http.StatusInternalServerError, dto.InternalError())
	}
}
