package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access for runs and ledger rows.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// one connection keeps PRAGMA settings and avoids SQLITE_BUSY between writers
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Storage{db: db}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SchemaVersion returns the applied migration version
func (s *Storage) SchemaVersion(ctx context.Context) (int64, error) {
	return schemaVersion(ctx, s.db)
}

// SaveRun inserts or updates a run
func (s *Storage) SaveRun(ctx context.Context, run *Run) error {
	stats := string(run.Stats)
	if stats == "" {
		stats = "{}"
	}

	var completedAt any
	if run.CompletedAt != nil {
		completedAt = *run.CompletedAt
	}

	query := `
	INSERT INTO runs
	(id, source, started_at, completed_at, dry_run, status, error_message, row_count, stats_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		completed_at = excluded.completed_at,
		status = excluded.status,
		error_message = excluded.error_message,
		row_count = excluded.row_count,
		stats_json = excluded.stats_json
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.Source,
		run.StartedAt,
		completedAt,
		run.DryRun,
		run.Status,
		run.ErrorMessage,
		run.RowCount,
		stats,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

const runColumns = `id, source, started_at, completed_at, dry_run, status, error_message, row_count, stats_json`

// GetRun retrieves a run by ID
func (s *Storage) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns recent runs, newest first
func (s *Storage) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var run Run
	var completedAt sql.NullTime
	var stats string

	err := sc.Scan(
		&run.ID,
		&run.Source,
		&run.StartedAt,
		&completedAt,
		&run.DryRun,
		&run.Status,
		&run.ErrorMessage,
		&run.RowCount,
		&stats,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if stats != "" && json.Valid([]byte(stats)) {
		run.Stats = json.RawMessage(stats)
	}
	return &run, nil
}

// AppendRows stores rows in a single transaction. Position is the index in rows.
func (s *Storage) AppendRows(ctx context.Context, runID string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO ledger_rows
	(run_id, channel, position, date, payee, raw_payee, description, category,
	 amount, payment_method, business, shared, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for i, r := range rows {
		_, err := stmt.ExecContext(ctx,
			runID,
			r.Channel,
			i,
			r.Date,
			r.Payee,
			r.RawPayee,
			r.Description,
			r.Category,
			r.Amount,
			r.PaymentMethod,
			r.Business,
			r.Shared,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert row %d for run %s: %w", i, runID, err)
		}
	}

	return tx.Commit()
}

// ListRows returns rows matching the filter, oldest first
func (s *Storage) ListRows(ctx context.Context, filter RowFilter) (*RowListResult, error) {
	filter = filter.Normalize()

	var where []string
	var args []any
	if filter.Channel != "" {
		where = append(where, "channel = ?")
		args = append(args, filter.Channel)
	}
	if filter.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, filter.RunID)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_rows`+clause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	query := `
	SELECT id, run_id, channel, position, date, payee, raw_payee, description, category,
	       amount, payment_method, business, shared, created_at
	FROM ledger_rows` + clause + `
	ORDER BY id ASC
	LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := &RowListResult{
		Rows:       make([]Row, 0),
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	for rows.Next() {
		var r Row
		err := rows.Scan(
			&r.ID,
			&r.RunID,
			&r.Channel,
			&r.Position,
			&r.Date,
			&r.Payee,
			&r.RawPayee,
			&r.Description,
			&r.Category,
			&r.Amount,
			&r.PaymentMethod,
			&r.Business,
			&r.Shared,
			&r.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, r)
	}

	return result, rows.Err()
}

// GetStats returns aggregate counts over runs and rows
func (s *Storage) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ChannelStats: make(map[string]ChannelStats),
	}

	var lastRun sql.NullString
	err := s.db.QueryRowContext(ctx, `
	SELECT
		COUNT(*),
		COUNT(CASE WHEN status = 'failed' THEN 1 END),
		COUNT(CASE WHEN dry_run = 1 THEN 1 END),
		MAX(started_at)
	FROM runs
	`).Scan(&stats.TotalRuns, &stats.FailedRuns, &stats.DryRuns, &lastRun)
	if err != nil {
		return nil, fmt.Errorf("failed to query run stats: %w", err)
	}
	if lastRun.Valid {
		if t, ok := parseTimestamp(lastRun.String); ok {
			stats.LastRunAt = &t
		}
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT channel, COUNT(*), COUNT(CASE WHEN shared = 1 THEN 1 END)
	FROM ledger_rows
	GROUP BY channel
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query channel stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var channel string
		var cs ChannelStats
		if err := rows.Scan(&channel, &cs.Rows, &cs.SharedRows); err != nil {
			return nil, err
		}
		stats.ChannelStats[channel] = cs
		stats.TotalRows += cs.Rows
	}

	return stats, rows.Err()
}

// parseTimestamp reads the formats go-sqlite3 writes for time.Time values.
// Aggregates like MAX() lose the column type, so they come back as text.
func parseTimestamp(s string) (time.Time, bool) {
	layouts := []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05",
		time.RFC3339Nano,
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
