package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrade(runID, id string, open time.Time, days int, pl float64) TradeRecord {
	return TradeRecord{
		RunID:      runID,
		TradeID:    id,
		Side:       "long",
		Reason:     "signal",
		Quantity:   10,
		EntryPrice: 100,
		ExitPrice:  100 + pl/10,
		OpenTime:   open,
		CloseTime:  open.AddDate(0, 0, days),
		GrossPL:    pl,
		RealizedPL: pl,
		Margin:     200,
	}
}

func TestGetTrade(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	open := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	expected := TradeRecord{
		RunID:      "R1",
		TradeID:    "T123",
		Side:       "short",
		Reason:     "stop-out",
		Quantity:   12.5,
		EntryPrice: 99.98,
		ExitPrice:  140,
		OpenTime:   open,
		CloseTime:  open.AddDate(0, 0, 3),
		GrossPL:    -500.25,
		SwapFees:   -0.75,
		FXFees:     0,
		RealizedPL: -500.25,
		Margin:     249.95,
	}
	require.NoError(t, j.RecordTrade(expected))

	actual, err := j.GetTrade("T123")
	require.NoError(t, err)

	assert.True(t, actual.OpenTime.Equal(expected.OpenTime))
	assert.True(t, actual.CloseTime.Equal(expected.CloseTime))
	actual.OpenTime, actual.CloseTime = expected.OpenTime, expected.CloseTime
	assert.Equal(t, expected, actual)
}

func TestGetTradeNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetTrade("nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "not found")
}

func TestListTradesByRun(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	day0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "B", day0.AddDate(0, 0, 5), 2, -20)))
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "A", day0, 1, 50)))
	require.NoError(t, j.RecordTrade(sampleTrade("R2", "C", day0, 1, 10)))

	got, err := j.ListTradesByRun(context.Background(), "R1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].TradeID)
	assert.Equal(t, "B", got[1].TradeID)

	none, err := j.ListTradesByRun(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListTradesClosedBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	day0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "T1", day0, 1, 10)))  // closes Jan 2
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "T2", day0, 5, 20)))  // closes Jan 6
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "T3", day0, 10, 30))) // closes Jan 11

	got, err := j.ListTradesClosedBetween(day0.AddDate(0, 0, 1), day0.AddDate(0, 0, 10))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "T1", got[0].TradeID)
	assert.Equal(t, "T2", got[1].TradeID)
}

func sampleRun(id string, created time.Time) RunRecord {
	return RunRecord{
		RunID:        id,
		Created:      created,
		Dataset:      "bars.csv",
		Config:       []byte(`{"leverage":5}`),
		Start:        time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC),
		Bars:         124,
		Trades:       7,
		Wins:         4,
		Losses:       3,
		StartEquity:  10000,
		EndEquity:    11250.5,
		NetPL:        1250.5,
		ReturnPct:    12.505,
		WinRate:      4.0 / 7.0,
		ProfitFactor: 1.8,
		MaxDDPct:     6.2,
		Sharpe:       1.1,
		StopOuts:     1,
		MarginCalls:  2,
		SwapFees:     -12.5,
		FXFees:       30,
		Notes:        []string{"first", "second"},
	}
}

func TestRecordAndGetRun(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()
	ctx := context.Background()

	created := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	want := sampleRun("R1", created)
	require.NoError(t, j.RecordRun(ctx, want))

	got, err := j.GetRun(ctx, "R1")
	require.NoError(t, err)

	assert.True(t, got.Created.Equal(want.Created))
	assert.True(t, got.Start.Equal(want.Start))
	assert.True(t, got.End.Equal(want.End))
	got.Created, got.Start, got.End = want.Created, want.Start, want.End
	assert.Equal(t, want, got)

	// Re-recording replaces the row.
	want.Notes = nil
	want.Config = nil
	require.NoError(t, j.RecordRun(ctx, want))
	got, err = j.GetRun(ctx, "R1")
	require.NoError(t, err)
	assert.Nil(t, got.Notes)
	assert.Nil(t, got.Config)
}

func TestGetRunNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRunsNewestFirst(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()
	ctx := context.Background()

	base := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordRun(ctx, sampleRun("OLD", base)))
	require.NoError(t, j.RecordRun(ctx, sampleRun("NEW", base.Add(time.Hour))))

	runs, err := j.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "NEW", runs[0].RunID)
	assert.Equal(t, "OLD", runs[1].RunID)
}

func TestExportRunOrg(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()
	ctx := context.Background()

	run := sampleRun("R1", time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, j.RecordRun(ctx, run))
	require.NoError(t, j.RecordTrade(sampleTrade("R1", "01HZZZZZZZTRADE001", run.Start, 3, 42)))

	out, err := j.ExportRunOrg(ctx, "R1")
	require.NoError(t, err)
	assert.Contains(t, out, ":RUN_ID:      R1")
	assert.Contains(t, out, "** Trade: LONG signal (TRADE001)")
	assert.Contains(t, out, ":REALIZED_PL: 42.00")

	_, err = j.ExportRunOrg(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
