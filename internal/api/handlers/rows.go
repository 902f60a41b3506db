package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/alertledger/internal/api/dto"
	"github.com/eshaffer321/alertledger/internal/infrastructure/storage"
)

// RowsHandler handles stored ledger row requests.
type RowsHandler struct {
	*Base
}

// NewRowsHandler creates a new rows handler.
func NewRowsHandler(repo storage.Repository) *RowsHandler {
	return &RowsHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/rows - returns stored rows, oldest first.
func (h *RowsHandler) List(c *gin.Context) {
	params := dto.DefaultRowListParams()
	params.Channel = c.Query("channel")
	params.RunID = c.Query("run_id")
	params.Limit = ParseIntParam(c, "limit", params.Limit)
	params.Offset = ParseIntParam(c, "offset", params.Offset)

	if params.Limit < 0 || params.Offset < 0 {
		h.WriteError(c, http.StatusBadRequest, dto.ValidationError("limit and offset must not be negative"))
		return
	}

	result, err := h.repo.ListRows(c.Request.Context(), storage.RowFilter{
		Channel: params.Channel,
		RunID:   params.RunID,
		Limit:   params.Limit,
		Offset:  params.Offset,
	})
	if err != nil {
		h.WriteError(c, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.RowListResponse{
		Rows:       make([]dto.RowResponse, 0, len(result.Rows)),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	}
	for _, row := range result.Rows {
		response.Rows = append(response.Rows, toRowResponse(row))
	}

	h.WriteJSON(c, http.StatusOK, response)
}

// toRowResponse converts a storage Row to an API response.
func toRowResponse(row storage.Row) dto.RowResponse {
	return dto.RowResponse{
		ID:            row.ID,
		RunID:         row.RunID,
		Channel:       row.Channel,
		Position:      row.Position,
		Date:          row.Date,
		Payee:         row.Payee,
		RawPayee:      row.RawPayee,
		Description:   row.Description,
		Category:      row.Category,
		Amount:        row.Amount,
		PaymentMethod: row.PaymentMethod,
		Business:      row.Business,
		Shared:        row.Shared,
		CreatedAt:     row.CreatedAt.UTC().Format(time.RFC3339),
	}
}
