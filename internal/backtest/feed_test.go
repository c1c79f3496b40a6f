package backtest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/cfdsim/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

const sampleBars = `date,price,signal
2024-01-02,100,flat
2024-01-03,101.5,long
2024-01-04,99,buy
2024-01-05T00:00:00Z,98,-1
2024-01-06,97,
`

func TestLoadBars(t *testing.T) {
	t.Parallel()

	bars, err := LoadBars(strings.NewReader(sampleBars), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, bars, 5)

	want := []market.Bar{
		{Date: day(0), Price: 100, Signal: market.Flat},
		{Date: day(1), Price: 101.5, Signal: market.Long},
		{Date: day(2), Price: 99, Signal: market.Long},
		{Date: day(3), Price: 98, Signal: market.Short},
		{Date: day(4), Price: 97, Signal: market.Flat},
	}
	for i := range want {
		assert.True(t, want[i].Date.Equal(bars[i].Date), "bar %d date", i)
		assert.Equal(t, want[i].Price, bars[i].Price, "bar %d price", i)
		assert.Equal(t, want[i].Signal, bars[i].Signal, "bar %d signal", i)
	}
}

func TestLoadBarsRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		from, to time.Time
		want     int
	}{
		{"open", time.Time{}, time.Time{}, 5},
		{"from inclusive", day(1), time.Time{}, 4},
		{"to exclusive", time.Time{}, day(3), 3},
		{"window", day(1), day(3), 2},
		{"empty window", day(10), time.Time{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars, err := LoadBars(strings.NewReader(sampleBars), tt.from, tt.to)
			require.NoError(t, err)
			assert.Len(t, bars, tt.want)
		})
	}
}

func TestLoadBarsSkipsBlankDates(t *testing.T) {
	t.Parallel()

	in := "date,price,signal\n2024-01-02,100,long\n,,\n2024-01-03,101,flat\n"
	bars, err := LoadBars(strings.NewReader(in), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, bars, 2)
}

func TestLoadBarsHeaderOnly(t *testing.T) {
	t.Parallel()

	bars, err := LoadBars(strings.NewReader("date,price,signal\n"), time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestLoadBarsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		errIs   error
		errText string
	}{
		{"empty file", "", nil, "read bars"},
		{"bad date", "date,price,signal\n2024-01-02,100,flat\n01/03/2024,100,flat\n", nil, "line 3: bad date"},
		{"bad signal", "date,price,signal\n2024-01-02,100,maybe\n", nil, "line 2: unknown signal"},
		{"bad price", "date,price,signal\n2024-01-02,abc,flat\n", nil, "read bars"},
		{"zero price", "date,price,signal\n2024-01-02,0,flat\n", market.ErrBadPrice, ""},
		{"out of order", "date,price,signal\n2024-01-03,100,flat\n2024-01-02,100,flat\n", market.ErrBadOrder, ""},
		{"duplicate date", "date,price,signal\n2024-01-02,100,flat\n2024-01-02,101,flat\n", market.ErrBadOrder, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBars(strings.NewReader(tt.in), time.Time{}, time.Time{})
			require.Error(t, err)
			if tt.errIs != nil {
				assert.True(t, errors.Is(err, tt.errIs), "got %v", err)
			}
			if tt.errText != "" {
				assert.Contains(t, err.Error(), tt.errText)
			}
		})
	}
}

func TestLoadBarsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleBars), 0644))

	bars, err := LoadBarsFile(path, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, bars, 5)

	_, err = LoadBarsFile(filepath.Join(t.TempDir(), "missing.csv"), time.Time{}, time.Time{})
	assert.Error(t, err)
}

func TestParseAndFormatDate(t *testing.T) {
	t.Parallel()

	d, err := parseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", formatDate(d))

	ts, err := parseDate("2024-03-01T15:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T15:30:00Z", formatDate(ts))

	_, err = parseDate("March 1st")
	assert.Error(t, err)
}

func TestInRange(t *testing.T) {
	t.Parallel()

	assert.True(t, inRange(day(1), time.Time{}, time.Time{}))
	assert.True(t, inRange(day(1), day(1), day(2)))
	assert.False(t, inRange(day(2), day(1), day(2)))
	assert.False(t, inRange(day(0), day(1), time.Time{}))
}
