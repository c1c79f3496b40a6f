package backtest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rustyeddy/cfdsim/journal"
	"github.com/rustyeddy/cfdsim/sim"
)

// Record streams the trades and equity curve of res into j, tagged with
// runID. Backends that implement journal.BatchRecorder get the whole curve
// in one call.
func Record(j journal.Journal, runID string, res sim.Result) error {
	for _, t := range res.Trades {
		if err := j.RecordTrade(TradeRecord(runID, t)); err != nil {
			return fmt.Errorf("record trade %s: %w", t.ID, err)
		}
	}

	snaps := make([]journal.EquitySnapshot, len(res.History))
	for i, s := range res.History {
		snaps[i] = EquitySnapshot(runID, s)
	}

	if b, ok := j.(journal.BatchRecorder); ok {
		if err := b.RecordEquityBatch(snaps); err != nil {
			return fmt.Errorf("record equity: %w", err)
		}
		return nil
	}
	for _, s := range snaps {
		if err := j.RecordEquity(s); err != nil {
			return fmt.Errorf("record equity %s: %w", formatDate(s.Time), err)
		}
	}
	return nil
}

func TradeRecord(runID string, t sim.Trade) journal.TradeRecord {
	return journal.TradeRecord{
		RunID:      runID,
		TradeID:    t.ID,
		Side:       t.Side.String(),
		Reason:     string(t.Reason),
		Quantity:   t.Quantity,
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
		OpenTime:   t.EntryDate,
		CloseTime:  t.ExitDate,
		GrossPL:    t.GrossPL,
		SwapFees:   t.SwapFees,
		FXFees:     t.FXFees,
		RealizedPL: t.NetPL,
		Margin:     t.Margin,
	}
}

func EquitySnapshot(runID string, s sim.Snapshot) journal.EquitySnapshot {
	return journal.EquitySnapshot{
		RunID:        runID,
		Time:         s.Date,
		Price:        s.Price,
		Balance:      s.FreeCash,
		Equity:       s.Equity,
		MarginUsed:   s.MarginUsed,
		MarginStatus: s.MarginStatus,
		UnrealizedPL: s.UnrealizedPL,
		RealizedPL:   s.RealizedPL,
		Side:         s.Side.String(),
		MarginCall:   s.MarginCall,
		StopOut:      s.StopOut,
	}
}

// RunRecord builds the runs-table row for a finished simulation.
func RunRecord(runID, dataset string, cfg sim.Config, s Summary, created time.Time) (journal.RunRecord, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return journal.RunRecord{}, fmt.Errorf("marshal broker config: %w", err)
	}

	r := journal.RunRecord{
		RunID:            runID,
		Created:          created,
		Dataset:          dataset,
		Config:           raw,
		Start:            s.Start,
		End:              s.End,
		Bars:             s.Bars,
		Trades:           s.Trades,
		Wins:             s.Wins,
		Losses:           s.Losses,
		StartEquity:      s.InitialEquity,
		EndEquity:        s.FinalEquity,
		NetPL:            s.NetPL,
		ReturnPct:        s.ReturnPct,
		WinRate:          s.WinRate,
		ProfitFactor:     s.ProfitFactor,
		MaxDDPct:         s.MaxDrawdown * 100,
		Sharpe:           s.Sharpe,
		StopOuts:         s.StopOuts,
		MarginCalls:      s.MarginCalls,
		SwapFees:         s.SwapFees,
		FXFees:           s.FXFees,
		ProtectionCredit: s.ProtectionCredit,
	}
	if s.ProtectionCredit > 0 {
		r.Notes = append(r.Notes, fmt.Sprintf("negative balance protection absorbed %.2f", s.ProtectionCredit))
	}
	if s.StopOuts > 0 {
		r.Notes = append(r.Notes, fmt.Sprintf("%d stop-out(s) at stop_out_level %.2f", s.StopOuts, cfg.StopOutLevel))
	}
	return r, nil
}
