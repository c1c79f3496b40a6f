package sim

import (
	"time"

	"github.com/rustyeddy/cfdsim/market"
)

type CloseReason string

const (
	ReasonSignal  CloseReason = "signal"   // desired signal went flat
	ReasonFlip    CloseReason = "flip"     // closed to reverse into the other side
	ReasonStopOut CloseReason = "stop-out" // forced liquidation
)

// Trade is a completed round trip. Both legs are always populated.
type Trade struct {
	ID     string
	Side   market.Side
	Reason CloseReason

	Quantity   float64
	EntryDate  time.Time
	EntryPrice float64
	ExitDate   time.Time
	ExitPrice  float64

	GrossPL  float64 // price driven only
	SwapFees float64 // financing booked while held, signed
	FXFees   float64 // conversion fee charged on close
	NetPL    float64 // GrossPL - FXFees

	Margin       float64
	EquityBefore float64
	EquityAfter  float64
}

// Snapshot is the account state at the end of one bar.
type Snapshot struct {
	Date         time.Time
	Price        float64
	Equity       float64
	FreeCash     float64
	MarginUsed   float64
	MarginStatus float64
	UnrealizedPL float64
	RealizedPL   float64
	SwapTotal    float64
	FXTotal      float64
	Side         market.Side // Flat when no position is open
	Quantity     float64

	MarginCall bool
	StopOut    bool
}
