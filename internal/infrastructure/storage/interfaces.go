package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("not found")

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, in-memory)
// and makes testing with mocks straightforward.
type Repository interface {
	RunRepository
	RowRepository
	Close() error
}

// RunRepository handles ingest run tracking
type RunRepository interface {
	// SaveRun inserts a run or updates the existing run with the same ID
	SaveRun(ctx context.Context, run *Run) error

	// GetRun retrieves a run by ID, or ErrNotFound
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns the most recent runs first
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// RowRepository handles the ledger sink
type RowRepository interface {
	// AppendRows stores rows produced by a run, keeping their order
	AppendRows(ctx context.Context, runID string, rows []Row) error

	// ListRows returns rows matching the filter in production order
	ListRows(ctx context.Context, filter RowFilter) (*RowListResult, error)

	// GetStats returns aggregate counts
	GetStats(ctx context.Context) (*Stats, error)
}

// RowFilter defines filters for listing rows
type RowFilter struct {
	Channel string // Filter by channel (empty = all)
	RunID   string // Filter by run (empty = all)
	Limit   int    // Max results (0 = default 50)
	Offset  int    // Pagination offset
}

// Paging bounds for ListRows
const (
	DefaultRowLimit = 50
	MaxRowLimit     = 500
)

// Normalize clamps the paging fields to their allowed range.
func (f RowFilter) Normalize() RowFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultRowLimit
	}
	if f.Limit > MaxRowLimit {
		f.Limit = MaxRowLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// RowListResult contains paginated row results
type RowListResult struct {
	Rows       []Row `json:"rows"`
	TotalCount int   `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
