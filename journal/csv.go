package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

var (
	tradeHeader = []string{
		"run_id", "trade_id", "side", "reason", "quantity", "entry_price", "exit_price",
		"open_time", "close_time", "gross_pl", "swap_fees", "fx_fees", "realized_pl", "margin",
	}
	equityHeader = []string{
		"run_id", "time", "price", "balance", "equity", "margin_used", "margin_status",
		"unrealized_pl", "realized_pl", "side", "margin_call", "stop_out",
	}
)

type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		_ = tf.Close()
		return nil, err
	}

	j := &CSVJournal{
		trades: csv.NewWriter(tf),
		equity: csv.NewWriter(ef),
		tf:     tf,
		ef:     ef,
	}
	if err := j.write(j.trades, tradeHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	if err := j.write(j.equity, equityHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	return j.write(j.trades, []string{
		t.RunID,
		t.TradeID,
		t.Side,
		t.Reason,
		f(t.Quantity),
		f(t.EntryPrice),
		f(t.ExitPrice),
		t.OpenTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		f(t.GrossPL),
		f(t.SwapFees),
		f(t.FXFees),
		f(t.RealizedPL),
		f(t.Margin),
	})
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	return j.write(j.equity, equityRow(e))
}

// RecordEquityBatch writes all rows before flushing once.
func (j *CSVJournal) RecordEquityBatch(snaps []EquitySnapshot) error {
	for _, e := range snaps {
		if err := j.equity.Write(equityRow(e)); err != nil {
			return err
		}
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	if err := j.ef.Close(); err != nil {
		return err
	}
	return nil
}

func (j *CSVJournal) write(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func equityRow(e EquitySnapshot) []string {
	return []string{
		e.RunID,
		e.Time.Format(time.RFC3339),
		f(e.Price),
		f(e.Balance),
		f(e.Equity),
		f(e.MarginUsed),
		f(e.MarginStatus),
		f(e.UnrealizedPL),
		f(e.RealizedPL),
		e.Side,
		strconv.FormatBool(e.MarginCall),
		strconv.FormatBool(e.StopOut),
	}
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
