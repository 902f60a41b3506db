package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/alertledger/internal/api/dto"
	"github.com/eshaffer321/alertledger/internal/infrastructure/storage"
)

// StatsHandler handles stats-related HTTP requests.
type StatsHandler struct {
	*Base
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(repo storage.Repository) *StatsHandler {
	return &StatsHandler{
		Base: NewBase(repo),
	}
}

// Get handles GET /api/stats - returns aggregate statistics.
func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.repo.GetStats(c.Request.Context())
	if err != nil {
		h.WriteError(c, http.StatusInternalServerError, dto.InternalError())
		return
	}

	// Convert channel stats map to a sorted slice for easier frontend consumption
	channels := make([]dto.ChannelStatsResponse, 0, len(stats.ChannelStats))
	for channel, cStats := range stats.ChannelStats {
		channels = append(channels, dto.ChannelStatsResponse{
			Channel:    channel,
			Rows:       cStats.Rows,
			SharedRows: cStats.SharedRows,
		})
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].Channel < channels[j].Channel })

	response := dto.StatsResponse{
		TotalRuns:    stats.TotalRuns,
		FailedRuns:   stats.FailedRuns,
		DryRuns:      stats.DryRuns,
		TotalRows:    stats.TotalRows,
		ChannelStats: channels,
	}
	if stats.LastRunAt != nil {
		response.LastRunAt = stats.LastRunAt.UTC().Format(time.RFC3339)
	}

	h.WriteJSON(c, http.StatusOK, response)
}
