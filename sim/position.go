package sim

import (
	"time"

	"github.com/rustyeddy/cfdsim/market"
	"github.com/rustyeddy/cfdsim/risk"
)

// Position is the single open exposure of an account. Its margin is fixed
// at open; only SwapAccrued and the unrealized P/L move while it is held.
type Position struct {
	ID         string
	Side       market.Side
	Quantity   float64
	EntryPrice float64 // bar price adjusted by half the spread
	Exposure   float64 // Margin * Leverage, at the bar price of the open
	Margin     float64 // equity * fraction at open
	EntryDate  time.Time

	SwapAccrued float64

	// Equity just before the position was opened. Recorded on the closing
	// trade for provenance, never used in settlement.
	EquityAtOpen float64
}

// UnrealizedPL marks p against price. A nil position has no P/L.
func (p *Position) UnrealizedPL(price float64) float64 {
	if p == nil {
		return 0
	}
	return risk.UnrealizedPL(p.Side, p.Quantity, p.EntryPrice, price)
}

// MarketExposure is the position value at price, used for financing.
func (p *Position) MarketExposure(price float64) float64 {
	if p == nil {
		return 0
	}
	return p.Quantity * price
}
