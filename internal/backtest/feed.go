package backtest

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rustyeddy/cfdsim/market"
)

// barRow is one line of a bars CSV:
//
//	date,price,signal
//
// date is YYYY-MM-DD or RFC3339; signal is long/short/flat (or buy/sell,
// 1/-1/0) and may be left empty for flat.
type barRow struct {
	Date   string  `csv:"date"`
	Price  float64 `csv:"price"`
	Signal string  `csv:"signal"`
}

// LoadBarsFile opens path and loads it with LoadBars.
func LoadBarsFile(path string, from, to time.Time) ([]market.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bars, err := LoadBars(f, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// LoadBars reads a bars CSV, keeps the rows whose date is within
// [from, to) (zero bounds are open) and validates the result.
func LoadBars(r io.Reader, from, to time.Time) ([]market.Bar, error) {
	var rows []*barRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("read bars: %w", err)
	}

	bars := make([]market.Bar, 0, len(rows))
	for i, row := range rows {
		// Header is line 1.
		line := i + 2

		ds := strings.TrimSpace(row.Date)
		if ds == "" {
			continue
		}
		date, err := parseDate(ds)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !inRange(date, from, to) {
			continue
		}

		sig, err := market.ParseSide(row.Signal)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		bars = append(bars, market.Bar{Date: date, Price: row.Price, Signal: sig})
	}

	if err := market.ValidateBars(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q: want YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}

// formatDate is the inverse of parseDate: plain dates stay plain.
func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 && t.Location() == time.UTC {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
