package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"catalog-sync/internal/types"
	"catalog-sync/inventory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	store, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDiff() *inventory.Diff {
	return &inventory.Diff{
		New:          []types.Product{{Name: "Delta"}},
		Updated:      []inventory.Change{{Product: types.Product{Name: "Alpha"}}},
		Unchanged:    4,
		TotalScraped: 6,
		Vendors:      []string{"msi-surfaces", "daltile"},
		Discontinued: []inventory.Record{
			{Key: "msi-surfaces-charlie", Vendor: "msi-surfaces", Name: "Charlie"},
			{Key: "daltile-arctic-white", Vendor: "daltile", Name: "Arctic White"},
		},
	}
}

func TestNewRun(t *testing.T) {
	started := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	run := NewRun("run-1", started, started.Add(time.Minute), testDiff(), "report.md")

	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, 6, run.Scraped)
	assert.Equal(t, 1, run.New)
	assert.Equal(t, 1, run.Updated)
	assert.Equal(t, 4, run.Unchanged)
	assert.Len(t, run.Discontinued, 2)
	assert.Equal(t, []string{"msi-surfaces", "daltile"}, run.Vendors)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	started := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	run := NewRun("run-1", started, started.Add(90*time.Second), testDiff(), "out/report.md")

	require.NoError(t, store.SaveRun(ctx, run))

	got, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, started.Equal(got.StartedAt))
	assert.True(t, started.Add(90*time.Second).Equal(got.FinishedAt))
	assert.Equal(t, run.Vendors, got.Vendors)
	assert.Equal(t, 6, got.Scraped)
	assert.Equal(t, "out/report.md", got.ReportPath)
	// ordered by vendor then name
	require.Len(t, got.Discontinued, 2)
	assert.Equal(t, "Arctic White", got.Discontinued[0].Name)
	assert.Equal(t, "Charlie", got.Discontinued[1].Name)
}

func TestSQLiteStore_DuplicateRun(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	run := NewRun("run-1", time.Now(), time.Now(), &inventory.Diff{}, "")

	require.NoError(t, store.SaveRun(ctx, run))
	assert.Error(t, store.SaveRun(ctx, run))
}

func TestSQLiteStore_GetRun_NotFound(t *testing.T) {
	_, err := openTestStore(t).GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_RecentRuns(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		started := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.SaveRun(ctx, NewRun(id, started, started, &inventory.Diff{}, "")))
	}

	runs, err := store.RecentRuns(ctx, 2)

	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "third", runs[0].ID)
	assert.Equal(t, "second", runs[1].ID)
	assert.Empty(t, runs[0].Vendors)
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
