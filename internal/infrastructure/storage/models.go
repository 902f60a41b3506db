package storage

import (
	"encoding/json"
	"time"

	"github.com/eshaffer321/alertledger/internal/domain/ledger"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one ingest invocation
type Run struct {
	ID           string          `json:"id"`
	Source       string          `json:"source"` // "api", "cli"
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	DryRun       bool            `json:"dry_run"`
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	RowCount     int             `json:"row_count"`
	Stats        json.RawMessage `json:"stats,omitempty"` // pipeline counters as stored
}

// Row is a persisted ledger row
type Row struct {
	ID            int64     `json:"id"`
	RunID         string    `json:"run_id"`
	Channel       string    `json:"channel"`
	Position      int       `json:"position"`
	Date          string    `json:"date"`
	Payee         string    `json:"payee"`
	RawPayee      string    `json:"raw_payee"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Amount        string    `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	Business      bool      `json:"business"`
	Shared        bool      `json:"shared"`
	CreatedAt     time.Time `json:"created_at"`
}

// RowFromRecord converts a pipeline record for storage
func RowFromRecord(channel string, rec ledger.TransactionRecord) Row {
	return Row{
		Channel:       channel,
		Date:          rec.Date,
		Payee:         rec.CanonicalPayee,
		RawPayee:      rec.RawPayee,
		Description:   rec.Description,
		Category:      rec.Category,
		Amount:        rec.Amount,
		PaymentMethod: rec.PaymentMethod,
		Business:      rec.Business,
		Shared:        rec.Shared,
	}
}

// Output returns the row in the sheet layout
func (r Row) Output() ledger.OutputRow {
	return ledger.OutputRow{
		Date:          r.Date,
		Payee:         r.Payee,
		Description:   r.Description,
		Category:      r.Category,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		Business:      r.Business,
		Shared:        r.Shared,
	}
}

// Stats contains aggregate counts over the ledger sink
type Stats struct {
	TotalRuns    int                     `json:"total_runs"`
	FailedRuns   int                     `json:"failed_runs"`
	DryRuns      int                     `json:"dry_runs"`
	TotalRows    int                     `json:"total_rows"`
	ChannelStats map[string]ChannelStats `json:"channel_stats"`
	LastRunAt    *time.Time              `json:"last_run_at,omitempty"`
}

// ChannelStats contains per-channel counts
type ChannelStats struct {
	Rows       int `json:"rows"`
	SharedRows int `json:"shared_rows"`
}
