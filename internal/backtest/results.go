package backtest

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/rustyeddy/cfdsim/market"
	"github.com/rustyeddy/cfdsim/sim"
	"gonum.org/v1/gonum/stat"
)

// TradingDays annualizes per-bar Sharpe ratios.
const TradingDays = 252

// Summary is the statistics view of a sim.Result.
type Summary struct {
	InitialEquity float64
	FinalEquity   float64
	NetPL         float64
	ReturnPct     float64

	Bars          int
	BarsInMarket  int
	ExposureRatio float64

	// Trade P/L counts the FX fee and the swap booked while it was open.
	Trades       int
	Wins         int
	Losses       int
	WinRate      float64
	GrossProfit  float64
	GrossLoss    float64 // positive
	ProfitFactor float64 // 0 when there were no losing trades
	AvgWin       float64
	AvgLoss      float64 // positive

	MaxDrawdown float64 // 0..1
	MeanReturn  float64 // per bar
	StdReturn   float64
	Sharpe      float64 // annualized, 0 when undefined

	StopOuts         int
	MarginCalls      int
	SwapFees         float64
	FXFees           float64
	ProtectionCredit float64

	Start time.Time
	End   time.Time
}

// TradePL is what a trade contributed to the account over its life.
func TradePL(t sim.Trade) float64 {
	return t.NetPL + t.SwapFees
}

func Summarize(res sim.Result) Summary {
	s := Summary{
		InitialEquity:    res.InitialEquity,
		FinalEquity:      res.FinalEquity,
		NetPL:            res.FinalEquity - res.InitialEquity,
		Bars:             len(res.History),
		Trades:           len(res.Trades),
		MaxDrawdown:      res.MaxDrawdown,
		StopOuts:         res.StopOutEvents,
		MarginCalls:      res.MarginCallEvents,
		SwapFees:         res.SwapFeesTotal,
		FXFees:           res.FXFeesTotal,
		ProtectionCredit: res.ProtectionCredit,
		Start:            res.FirstDate,
		End:              res.LastDate,
	}
	if res.InitialEquity > 0 {
		s.ReturnPct = s.NetPL / res.InitialEquity * 100
	}

	for _, snap := range res.History {
		if snap.Side != market.Flat {
			s.BarsInMarket++
		}
	}
	if s.Bars > 0 {
		s.ExposureRatio = float64(s.BarsInMarket) / float64(s.Bars)
	}

	for _, t := range res.Trades {
		pl := TradePL(t)
		switch {
		case pl > 0:
			s.Wins++
			s.GrossProfit += pl
		case pl < 0:
			s.Losses++
			s.GrossLoss -= pl
		}
	}
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades)
	}
	if s.Wins > 0 {
		s.AvgWin = s.GrossProfit / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = s.GrossLoss / float64(s.Losses)
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	}

	returns := barReturns(res.InitialEquity, res.EquityCurve())
	if len(returns) >= 2 {
		s.MeanReturn, s.StdReturn = stat.MeanStdDev(returns, nil)
		if s.StdReturn > 0 {
			s.Sharpe = s.MeanReturn / s.StdReturn * math.Sqrt(TradingDays)
		}
	} else if len(returns) == 1 {
		s.MeanReturn = returns[0]
	}
	return s
}

// barReturns are simple returns between consecutive equity values, starting
// from the initial equity. Steps from a non-positive base are skipped.
func barReturns(initial float64, curve []float64) []float64 {
	out := make([]float64, 0, len(curve))
	prev := initial
	for _, eq := range curve {
		if prev > 0 {
			out = append(out, eq/prev-1)
		}
		prev = eq
	}
	return out
}

func PrintSummary(w io.Writer, runID string, s Summary) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Simulation Result")
	fmt.Fprintln(w, "==================================================")

	if runID != "" {
		fmt.Fprintf(w, "Run ID:        %s\n", runID)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	if s.Bars > 0 {
		fmt.Fprintf(w, "Start:         %s\n", formatDate(s.Start))
		fmt.Fprintf(w, "End:           %s\n", formatDate(s.End))
	}
	fmt.Fprintf(w, "Bars:          %d\n", s.Bars)
	fmt.Fprintf(w, "In Market:     %d (%.1f%%)\n", s.BarsInMarket, s.ExposureRatio*100)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", s.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", s.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", s.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", s.WinRate*100)
	if s.Wins > 0 {
		fmt.Fprintf(w, "Avg Win:       %.2f\n", s.AvgWin)
	}
	if s.Losses > 0 {
		fmt.Fprintf(w, "Avg Loss:      %.2f\n", s.AvgLoss)
	}
	if s.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", s.ProfitFactor)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Equity:  %.2f\n", s.InitialEquity)
	fmt.Fprintf(w, "End Equity:    %.2f\n", s.FinalEquity)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", s.NetPL)
	fmt.Fprintf(w, "Return:        %.2f%%\n", s.ReturnPct)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", s.MaxDrawdown*100)
	fmt.Fprintf(w, "Sharpe:        %.2f\n", s.Sharpe)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Risk & Costs")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Margin Calls:  %d\n", s.MarginCalls)
	fmt.Fprintf(w, "Stop-outs:     %d\n", s.StopOuts)
	fmt.Fprintf(w, "Swap Fees:     %.2f\n", s.SwapFees)
	fmt.Fprintf(w, "FX Fees:       %.2f\n", s.FXFees)
	if s.ProtectionCredit > 0 {
		fmt.Fprintf(w, "Neg. Balance:  %.2f written off\n", s.ProtectionCredit)
	}

	fmt.Fprintln(w)
}
