package backtest

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/rustyeddy/cfdsim/sim"
)

type historyRow struct {
	Date         string  `csv:"date"`
	Price        float64 `csv:"price"`
	Equity       float64 `csv:"equity"`
	FreeCash     float64 `csv:"free_cash"`
	MarginUsed   float64 `csv:"margin_used"`
	MarginStatus float64 `csv:"margin_status"`
	UnrealizedPL float64 `csv:"unrealized_pl"`
	RealizedPL   float64 `csv:"realized_pl"`
	SwapTotal    float64 `csv:"swap_total"`
	FXTotal      float64 `csv:"fx_total"`
	Side         string  `csv:"side"`
	Quantity     float64 `csv:"quantity"`
	MarginCall   bool    `csv:"margin_call"`
	StopOut      bool    `csv:"stop_out"`
}

// WriteHistoryCSV writes one row per snapshot, header included.
func WriteHistoryCSV(w io.Writer, history []sim.Snapshot) error {
	rows := make([]*historyRow, len(history))
	for i, s := range history {
		rows[i] = &historyRow{
			Date:         formatDate(s.Date),
			Price:        s.Price,
			Equity:       s.Equity,
			FreeCash:     s.FreeCash,
			MarginUsed:   s.MarginUsed,
			MarginStatus: s.MarginStatus,
			UnrealizedPL: s.UnrealizedPL,
			RealizedPL:   s.RealizedPL,
			SwapTotal:    s.SwapTotal,
			FXTotal:      s.FXTotal,
			Side:         s.Side.String(),
			Quantity:     s.Quantity,
			MarginCall:   s.MarginCall,
			StopOut:      s.StopOut,
		}
	}
	return gocsv.Marshal(&rows, w)
}
