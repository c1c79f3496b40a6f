package risk

// Long pays up by half the spread, short receives down by half.
// Example: price 100, spread 10 bps -> long enters at 100.05, short at 99.95.

import (
	"math"

	"github.com/rustyeddy/cfdsim/market"
)

type Inputs struct {
	Equity    float64
	Fraction  float64 // share of equity committed as margin, 0.2
	Leverage  float64 // 5 -> 1:5
	Price     float64
	SpreadBps float64 // round trip, in basis points
	Side      market.Side
}

type Result struct {
	Quantity   float64
	EntryPrice float64
	Exposure   float64 // Margin * Leverage, notional at the bar price
	Margin     float64 // Equity * Fraction
}

// HalfSpread returns the fractional price adjustment applied on entry.
func HalfSpread(spreadBps float64) float64 {
	return spreadBps / 10_000 / 2
}

// EntryPrice adjusts price by half the spread against the trader.
func EntryPrice(price, spreadBps float64, side market.Side) float64 {
	return price * (1 + side.Sign()*HalfSpread(spreadBps))
}

// Calculate sizes a new position: margin = equity * fraction,
// exposure = margin * leverage, quantity = exposure / price. The spread
// only moves the entry price; the margin locked is exactly equity * fraction.
func Calculate(in Inputs) Result {
	if in.Leverage <= 0 || in.Price <= 0 || in.Equity <= 0 || in.Fraction <= 0 {
		return Result{}
	}

	margin := in.Equity * in.Fraction
	exposure := margin * in.Leverage
	qty := exposure / in.Price
	if math.IsNaN(qty) || math.IsInf(qty, 0) {
		return Result{}
	}

	return Result{
		Quantity:   qty,
		EntryPrice: EntryPrice(in.Price, in.SpreadBps, in.Side),
		Exposure:   exposure,
		Margin:     margin,
	}
}

// UnrealizedPL is the price-driven P/L of quantity held on side since entry.
func UnrealizedPL(side market.Side, quantity, entry, mark float64) float64 {
	return side.Sign() * quantity * (mark - entry)
}
