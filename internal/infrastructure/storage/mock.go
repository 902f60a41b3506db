package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	mu     sync.Mutex
	runs   map[string]*Run
	rows   []Row
	nextID int64

	// Hooks for test assertions
	SaveRunCalls    int
	AppendRowsCalls int
	LastSavedRun    *Run

	// Error injection for testing error paths
	SaveRunErr    error
	GetRunErr     error
	ListRunsErr   error
	AppendRowsErr error
	ListRowsErr   error
	GetStatsErr   error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs:   make(map[string]*Run),
		nextID: 1,
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// SaveRun stores a copy of the run
func (m *MockRepository) SaveRun(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveRunCalls++
	if m.SaveRunErr != nil {
		return m.SaveRunErr
	}
	copied := *run
	m.runs[run.ID] = &copied
	m.LastSavedRun = &copied
	return nil
}

// GetRun returns a stored run
func (m *MockRepository) GetRun(_ context.Context, id string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetRunErr != nil {
		return nil, m.GetRunErr
	}
	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	copied := *run
	return &copied, nil
}

// ListRuns returns stored runs, newest first
func (m *MockRepository) ListRuns(_ context.Context, limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListRunsErr != nil {
		return nil, m.ListRunsErr
	}
	runs := make([]Run, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, *r)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// AppendRows stores rows in memory
func (m *MockRepository) AppendRows(_ context.Context, runID string, rows []Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendRowsCalls++
	if m.AppendRowsErr != nil {
		return m.AppendRowsErr
	}
	now := time.Now().UTC()
	for i, r := range rows {
		r.ID = m.nextID
		r.RunID = runID
		r.Position = i
		r.CreatedAt = now
		m.nextID++
		m.rows = append(m.rows, r)
	}
	return nil
}

// ListRows filters and pages the stored rows
func (m *MockRepository) ListRows(_ context.Context, filter RowFilter) (*RowListResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListRowsErr != nil {
		return nil, m.ListRowsErr
	}
	filter = filter.Normalize()

	matched := make([]Row, 0)
	for _, r := range m.rows {
		if filter.Channel != "" && r.Channel != filter.Channel {
			continue
		}
		if filter.RunID != "" && r.RunID != filter.RunID {
			continue
		}
		matched = append(matched, r)
	}

	result := &RowListResult{
		Rows:       make([]Row, 0),
		TotalCount: len(matched),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if filter.Offset < len(matched) {
		end := filter.Offset + filter.Limit
		if end > len(matched) {
			end = len(matched)
		}
		result.Rows = append(result.Rows, matched[filter.Offset:end]...)
	}
	return result, nil
}

// GetStats computes counts over the stored data
func (m *MockRepository) GetStats(_ context.Context) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetStatsErr != nil {
		return nil, m.GetStatsErr
	}
	stats := &Stats{ChannelStats: make(map[string]ChannelStats)}
	for _, r := range m.runs {
		stats.TotalRuns++
		if r.Status == RunStatusFailed {
			stats.FailedRuns++
		}
		if r.DryRun {
			stats.DryRuns++
		}
		if stats.LastRunAt == nil || r.StartedAt.After(*stats.LastRunAt) {
			t := r.StartedAt
			stats.LastRunAt = &t
		}
	}
	for _, r := range m.rows {
		cs := stats.ChannelStats[r.Channel]
		cs.Rows++
		if r.Shared {
			cs.SharedRows++
		}
		stats.ChannelStats[r.Channel] = cs
		stats.TotalRows++
	}
	return stats, nil
}
