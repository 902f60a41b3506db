package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/alertledger/internal/domain/ledger"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(createTempDB(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRows() []Row {
	return []Row{
		RowFromRecord("sam", ledger.TransactionRecord{
			Date: "11/13/2025", Amount: "75.96", CanonicalPayee: "Costco", RawPayee: "COSTCO WHSE #1696",
			PaymentMethod: "Chase Card", Category: "Groceries", Shared: true, Description: "Warehouse run",
		}),
		RowFromRecord("alex", ledger.TransactionRecord{
			Date: "11/16/2025", Amount: "20.00", CanonicalPayee: "Andale Andale", RawPayee: "ANDALE ANDALE",
			PaymentMethod: "Savor Card", Category: "Restaurants", Shared: true,
		}),
		RowFromRecord("sam", ledger.TransactionRecord{
			Date: "11/20/2025", Amount: "15.99", CanonicalPayee: "Netflix", RawPayee: "NETFLIX.COM NETFLIX.COM CA",
			PaymentMethod: "Debit Card", Category: "Subscriptions", Business: true,
		}),
	}
}

func TestStorage_SaveAndGetRun(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	started := time.Date(2025, 11, 13, 3, 30, 0, 0, time.UTC)
	run := &Run{
		ID:        "run-1",
		Source:    "api",
		StartedAt: started,
		Status:    RunStatusRunning,
	}
	require.NoError(t, store.SaveRun(ctx, run))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "api", got.Source)
	assert.Equal(t, RunStatusRunning, got.Status)
	assert.True(t, started.Equal(got.StartedAt))
	assert.Nil(t, got.CompletedAt)

	// completing updates the same run
	completed := started.Add(2 * time.Second)
	run.CompletedAt = &completed
	run.Status = RunStatusCompleted
	run.RowCount = 3
	run.Stats = json.RawMessage(`{"messages":2,"produced":3}`)
	require.NoError(t, store.SaveRun(ctx, run))

	got, err = store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, got.Status)
	assert.Equal(t, 3, got.RowCount)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, completed.Equal(*got.CompletedAt))
	assert.JSONEq(t, `{"messages":2,"produced":3}`, string(got.Stats))
}

func TestStorage_GetRun_NotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_ListRuns(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	base := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveRun(ctx, &Run{ID: id, StartedAt: base.Add(time.Duration(i) * time.Hour), Status: RunStatusCompleted}))
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
}

func TestStorage_AppendAndListRows(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRun(ctx, &Run{ID: "run-1", StartedAt: time.Now(), Status: RunStatusRunning}))
	require.NoError(t, store.AppendRows(ctx, "run-1", sampleRows()))

	all, err := store.ListRows(ctx, RowFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.TotalCount)
	assert.Equal(t, DefaultRowLimit, all.Limit)
	require.Len(t, all.Rows, 3)
	assert.Equal(t, "Costco", all.Rows[0].Payee)
	assert.Equal(t, "COSTCO WHSE #1696", all.Rows[0].RawPayee)
	assert.Equal(t, 0, all.Rows[0].Position)
	assert.Equal(t, "run-1", all.Rows[0].RunID)
	assert.True(t, all.Rows[0].Shared)
	assert.True(t, all.Rows[2].Business)

	sam, err := store.ListRows(ctx, RowFilter{Channel: "sam"})
	require.NoError(t, err)
	assert.Equal(t, 2, sam.TotalCount)
	assert.Equal(t, "Netflix", sam.Rows[1].Payee)

	page, err := store.ListRows(ctx, RowFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "Andale Andale", page.Rows[0].Payee)

	output := all.Rows[0].Output()
	assert.Equal(t, "75.96", output.Amount)
	assert.Equal(t, "Chase Card", output.PaymentMethod)
}

func TestStorage_AppendRows_Empty(t *testing.T) {
	store := newTestStorage(t)
	assert.NoError(t, store.AppendRows(context.Background(), "no-such-run", nil))
}

func TestStorage_AppendRows_UnknownRun(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	err := store.AppendRows(ctx, "no-such-run", sampleRows())
	require.Error(t, err)

	// the transaction is rolled back as a whole
	result, err := store.ListRows(ctx, RowFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalCount)
}

func TestStorage_GetStats(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	started := time.Date(2025, 11, 13, 3, 30, 0, 0, time.UTC)
	require.NoError(t, store.SaveRun(ctx, &Run{ID: "ok", StartedAt: started, Status: RunStatusCompleted}))
	require.NoError(t, store.SaveRun(ctx, &Run{ID: "bad", StartedAt: started.Add(-time.Hour), Status: RunStatusFailed, DryRun: true}))
	require.NoError(t, store.AppendRows(ctx, "ok", sampleRows()))

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailedRuns)
	assert.Equal(t, 1, stats.DryRuns)
	assert.Equal(t, 3, stats.TotalRows)
	assert.Equal(t, ChannelStats{Rows: 2, SharedRows: 1}, stats.ChannelStats["sam"])
	assert.Equal(t, ChannelStats{Rows: 1, SharedRows: 1}, stats.ChannelStats["alex"])
	require.NotNil(t, stats.LastRunAt)
	assert.True(t, started.Equal(*stats.LastRunAt))
}

func TestRowFilter_Normalize(t *testing.T) {
	assert.Equal(t, DefaultRowLimit, RowFilter{}.Normalize().Limit)
	assert.Equal(t, MaxRowLimit, RowFilter{Limit: 10000}.Normalize().Limit)
	assert.Equal(t, 0, RowFilter{Offset: -5}.Normalize().Offset)
}

func TestMockRepository(t *testing.T) {
	repo := NewMockRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveRun(ctx, &Run{ID: "run-1", StartedAt: time.Now(), Status: RunStatusCompleted}))
	require.NoError(t, repo.AppendRows(ctx, "run-1", sampleRows()))

	result, err := repo.ListRows(ctx, RowFilter{Channel: "alex"})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "run-1", result.Rows[0].RunID)

	_, err = repo.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRows)
	assert.Equal(t, 1, repo.SaveRunCalls)
	assert.Equal(t, 1, repo.AppendRowsCalls)
}
