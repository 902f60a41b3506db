package dto

import (
	"encoding/json"
	"time"

	"github.com/eshaffer321/alertledger/internal/application/pipeline"
	"github.com/eshaffer321/alertledger/internal/domain/ledger"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// AlertResponse is returned after ingesting alerts. Rows are keyed by
// channel; each row is a fixed-width array.
type AlertResponse struct {
	RunID    string                        `json:"run_id"`
	DryRun   bool                          `json:"dry_run"`
	Channels map[string][]ledger.OutputRow `json:"channels"`
	Stats    pipeline.Stats                `json:"stats"`
}

// RowResponse represents a stored ledger row.
type RowResponse struct {
	ID            int64  `json:"id"`
	RunID         string `json:"run_id"`
	Channel       string `json:"channel"`
	Position      int    `json:"position"`
	Date          string `json:"date"`
	Payee         string `json:"payee"`
	RawPayee      string `json:"raw_payee,omitempty"`
	Description   string `json:"description,omitempty"`
	Category      string `json:"category"`
	Amount        string `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	Business      bool   `json:"business"`
	Shared        bool   `json:"shared"`
	CreatedAt     string `json:"created_at"`
}

// RowListResponse is returned when listing rows.
type RowListResponse struct {
	Rows       []RowResponse `json:"rows"`
	TotalCount int           `json:"total_count"`
	Limit      int           `json:"limit"`
	Offset     int           `json:"offset"`
}

// RunResponse represents an ingest run in API responses.
type RunResponse struct {
	ID           string          `json:"id"`
	Source       string          `json:"source"`
	StartedAt    string          `json:"started_at"`
	CompletedAt  string          `json:"completed_at,omitempty"`
	DryRun       bool            `json:"dry_run"`
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	RowCount     int             `json:"row_count"`
	Stats        json.RawMessage `json:"stats,omitempty"`
}

// RunListResponse is returned when listing runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// ChannelStatsResponse holds row counts for one channel.
type ChannelStatsResponse struct {
	Channel    string `json:"channel"`
	Rows       int    `json:"rows"`
	SharedRows int    `json:"shared_rows"`
}

// StatsResponse is returned by the stats endpoint.
type StatsResponse struct {
	TotalRuns    int                    `json:"total_runs"`
	FailedRuns   int                    `json:"failed_runs"`
	DryRuns      int                    `json:"dry_runs"`
	TotalRows    int                    `json:"total_rows"`
	LastRunAt    string                 `json:"last_run_at,omitempty"`
	ChannelStats []ChannelStatsResponse `json:"channel_stats"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
