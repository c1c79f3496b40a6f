package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('runs','trades','equity')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["runs"])
	assert.True(t, found["trades"])
	assert.True(t, found["equity"])
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.RecordTrade(TradeRecord{TradeID: "T1", RunID: "R1", Side: "long", Reason: "signal"}))
	require.NoError(t, j.Close())

	j2, err := NewSQLite(path)
	require.NoError(t, err)
	defer j2.Close()

	got, err := j2.GetTrade("T1")
	require.NoError(t, err)
	assert.Equal(t, "R1", got.RunID)
}

func TestSQLiteRecordEquity(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	snap := EquitySnapshot{
		RunID:        "R1",
		Time:         ts,
		Price:        101.5,
		Balance:      800,
		Equity:       1015,
		MarginUsed:   200,
		MarginStatus: 83.5,
		UnrealizedPL: 215,
		RealizedPL:   -3,
		Side:         "long",
		MarginCall:   true,
	}
	require.NoError(t, j.RecordEquity(snap))

	got, err := j.ListEquityByRun(context.Background(), "R1")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.True(t, got[0].Time.Equal(ts))
	got[0].Time = ts
	assert.Equal(t, snap, got[0])
}

func TestSQLiteRecordEquityBatch(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	day0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	var snaps []EquitySnapshot
	for i := 0; i < 50; i++ {
		snaps = append(snaps, EquitySnapshot{
			RunID:  "R1",
			Time:   day0.AddDate(0, 0, i),
			Equity: 1000 + float64(i),
			Side:   "flat",
		})
	}
	require.NoError(t, j.RecordEquityBatch(snaps))

	got, err := j.ListEquityByRun(context.Background(), "R1")
	require.NoError(t, err)
	require.Len(t, got, 50)
	for i, e := range got {
		assert.Equal(t, 1000+float64(i), e.Equity)
	}

	other, err := j.ListEquityByRun(context.Background(), "R2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSQLiteDuplicateTradeRejected(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	rec := TradeRecord{TradeID: "T1", RunID: "R1", Side: "long", Reason: "signal"}
	require.NoError(t, j.RecordTrade(rec))
	assert.Error(t, j.RecordTrade(rec))
}
