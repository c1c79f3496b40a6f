package market

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrBadPrice  = errors.New("price must be positive and finite")
	ErrBadOrder  = errors.New("bars must be strictly ascending by date")
	ErrBadSignal = errors.New("invalid signal")
)

// Bar is one simulated period: a date, the price the account is marked at,
// and the side the strategy wants to hold after this bar.
type Bar struct {
	Date   time.Time
	Price  float64
	Signal Side
}

// ValidPrice reports whether p can be used to mark or fill a position.
func ValidPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}

// ValidateBars checks the input contract of a simulation: positive finite
// prices, known signals, and strictly ascending dates without duplicates.
func ValidateBars(bars []Bar) error {
	for i, b := range bars {
		if !ValidPrice(b.Price) {
			return fmt.Errorf("bar %d (%s): %w: %v", i, b.Date.Format(time.DateOnly), ErrBadPrice, b.Price)
		}
		if !b.Signal.Valid() {
			return fmt.Errorf("bar %d (%s): %w: %d", i, b.Date.Format(time.DateOnly), ErrBadSignal, int8(b.Signal))
		}
		if i > 0 && !b.Date.After(bars[i-1].Date) {
			return fmt.Errorf("bar %d (%s): %w", i, b.Date.Format(time.DateOnly), ErrBadOrder)
		}
	}
	return nil
}
