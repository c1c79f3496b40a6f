package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

const insertTrade = `
	INSERT INTO trades
	(trade_id, run_id, side, reason, quantity, entry_price, exit_price, open_time, close_time,
	 gross_pl, swap_fees, fx_fees, realized_pl, margin)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertEquity = `
	INSERT INTO equity
	(run_id, time, price, balance, equity, margin_used, margin_status, unrealized_pl, realized_pl,
	 side, margin_call, stop_out)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(insertTrade,
		t.TradeID, t.RunID, t.Side, t.Reason, t.Quantity, t.EntryPrice, t.ExitPrice,
		t.OpenTime, t.CloseTime, t.GrossPL, t.SwapFees, t.FXFees, t.RealizedPL, t.Margin,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(insertEquity, equityArgs(e)...)
	return err
}

// RecordEquityBatch inserts snaps in a single transaction.
func (j *SQLite) RecordEquityBatch(snaps []EquitySnapshot) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(insertEquity)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range snaps {
		if _, err := stmt.Exec(equityArgs(e)...); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func equityArgs(e EquitySnapshot) []any {
	return []any{
		e.RunID, e.Time, e.Price, e.Balance, e.Equity, e.MarginUsed, e.MarginStatus,
		e.UnrealizedPL, e.RealizedPL, e.Side, e.MarginCall, e.StopOut,
	}
}

// RecordRun stores the summary row for a run. Recording the same RunID
// twice replaces the earlier row.
func (j *SQLite) RecordRun(ctx context.Context, r RunRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
		(run_id, created, dataset, config, start_date, end_date, bars, trades, wins, losses,
		 start_equity, end_equity, net_pl, return_pct, win_rate, profit_factor, max_dd_pct, sharpe,
		 stop_outs, margin_calls, swap_fees, fx_fees, protection_credit, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Dataset, string(r.Config), r.Start, r.End, r.Bars, r.Trades, r.Wins, r.Losses,
		r.StartEquity, r.EndEquity, r.NetPL, r.ReturnPct, r.WinRate, r.ProfitFactor, r.MaxDDPct, r.Sharpe,
		r.StopOuts, r.MarginCalls, r.SwapFees, r.FXFees, r.ProtectionCredit, strings.Join(r.Notes, "\n"),
	)
	return err
}

// ExportRunOrg loads a run and its trades and returns the Org block.
func (j *SQLite) ExportRunOrg(ctx context.Context, runID string) (string, error) {
	run, err := j.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRun(ctx, runID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if err := run.WriteOrg(&b); err != nil {
		return "", err
	}
	if len(trades) > 0 {
		b.WriteString("\n")
		b.WriteString(FormatTradesOrg(trades))
	}
	return b.String(), nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
