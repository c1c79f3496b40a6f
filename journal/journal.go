package journal

import "time"

// TradeRecord is one closed position as persisted by a journal backend.
type TradeRecord struct {
	RunID      string
	TradeID    string
	Side       string
	Reason     string
	Quantity   float64
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	GrossPL    float64
	SwapFees   float64
	FXFees     float64
	RealizedPL float64 // net of FX fees
	Margin     float64
}

// EquitySnapshot is the account at the end of one bar. Balance is free
// cash; MarginStatus is on the 0..100 scale.
type EquitySnapshot struct {
	RunID        string
	Time         time.Time
	Price        float64
	Balance      float64
	Equity       float64
	MarginUsed   float64
	MarginStatus float64
	UnrealizedPL float64
	RealizedPL   float64
	Side         string
	MarginCall   bool
	StopOut      bool
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// BatchRecorder is implemented by backends that can store a whole equity
// curve more cheaply than one row at a time.
type BatchRecorder interface {
	RecordEquityBatch([]EquitySnapshot) error
}
