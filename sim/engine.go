package sim

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/rustyeddy/cfdsim/internal/id"
	"github.com/rustyeddy/cfdsim/market"
	"github.com/rustyeddy/cfdsim/risk"
)

// Engine runs a single-position CFD account over a bar series. It holds
// only the immutable broker terms, so one Engine can drive any number of
// independent runs, including concurrently.
type Engine struct {
	cfg   Config
	log   *slog.Logger
	newID func() string
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithIDGenerator replaces the ULID source for trade IDs, mostly for tests
// that want stable output.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) {
		if f != nil {
			e.newID = f
		}
	}
}

func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:   cfg,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID: id.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// State is everything carried from one bar to the next.
type State struct {
	Account  Account
	Position *Position

	MarginCalls int
	StopOuts    int
}

// Side of the open position, Flat when there is none.
func (s State) Side() market.Side {
	if s.Position == nil {
		return market.Flat
	}
	return s.Position.Side
}

// Equity is free cash plus the unrealized P/L of the open position at price.
func (s State) Equity(price float64) float64 {
	return s.Account.FreeCash + s.Position.UnrealizedPL(price)
}

func (s State) clone() State {
	if s.Position != nil {
		p := *s.Position
		s.Position = &p
	}
	return s
}

// StepResult is what a single bar produces besides the next state.
type StepResult struct {
	Snapshot   Snapshot
	Trade      *Trade
	MarginCall bool
	StopOut    bool
}

// Start returns the flat state an account begins a run in.
func (e *Engine) Start(initialEquity float64) State {
	return State{Account: Account{FreeCash: initialEquity}}
}

type action int

const (
	actHold action = iota
	actOpen
	actClose
	actFlip
)

// decide maps (current side, desired signal) onto the transition to take.
func decide(current, desired market.Side) action {
	switch current {
	case market.Flat:
		switch desired {
		case market.Long, market.Short:
			return actOpen
		default:
			return actHold
		}
	case market.Long:
		switch desired {
		case market.Flat:
			return actClose
		case market.Short:
			return actFlip
		default:
			return actHold
		}
	case market.Short:
		switch desired {
		case market.Flat:
			return actClose
		case market.Long:
			return actFlip
		default:
			return actHold
		}
	}
	return actHold
}

// Step advances s by one bar and returns the new state. The input state is
// not modified.
//
// Order within a bar: mark to market, stop-out / margin-call check,
// financing, signal action, snapshot.
func (e *Engine) Step(s State, bar market.Bar) (State, StepResult) {
	next := s.clone()
	var res StepResult

	status := MarginStatus(next.Equity(bar.Price), next.Account.MarginUsed)
	if next.Position != nil {
		switch {
		case status <= e.cfg.StopOutLevel*100:
			t := e.closePosition(&next, bar, ReasonStopOut)
			res.Trade = &t
			res.StopOut = true
			next.StopOuts++
			e.log.Warn("stop-out",
				"date", bar.Date.Format(time.DateOnly),
				"price", bar.Price,
				"side", t.Side.String(),
				"margin_status", status,
				"gross_pl", t.GrossPL,
				"free_cash", next.Account.FreeCash)

		case status < e.cfg.MarginCallLevel*100:
			res.MarginCall = true
			next.MarginCalls++
			e.log.Debug("margin call",
				"date", bar.Date.Format(time.DateOnly),
				"price", bar.Price,
				"margin_status", status)
		}
	}

	if next.Position != nil {
		e.accrueFinancing(&next, bar.Price)
	}

	switch decide(next.Side(), bar.Signal) {
	case actOpen:
		e.openPosition(&next, bar, bar.Signal)
	case actClose:
		t := e.closePosition(&next, bar, ReasonSignal)
		res.Trade = &t
	case actFlip:
		t := e.closePosition(&next, bar, ReasonFlip)
		res.Trade = &t
		e.openPosition(&next, bar, bar.Signal)
	case actHold:
	}

	res.Snapshot = e.snapshot(next, bar, res)
	return next, res
}

func (e *Engine) snapshot(s State, bar market.Bar, res StepResult) Snapshot {
	unrealized := s.Position.UnrealizedPL(bar.Price)
	equity := s.Account.FreeCash + unrealized

	snap := Snapshot{
		Date:         bar.Date,
		Price:        bar.Price,
		Equity:       equity,
		FreeCash:     s.Account.FreeCash,
		MarginUsed:   s.Account.MarginUsed,
		MarginStatus: MarginStatus(equity, s.Account.MarginUsed),
		UnrealizedPL: unrealized,
		RealizedPL:   s.Account.RealizedPL,
		SwapTotal:    s.Account.SwapTotal,
		FXTotal:      s.Account.FXTotal,
		Side:         s.Side(),
		MarginCall:   res.MarginCall,
		StopOut:      res.StopOut,
	}
	if s.Position != nil {
		snap.Quantity = s.Position.Quantity
	}
	return snap
}

// openPosition sizes and opens a position on side. It is a no-op when
// risk.CheckOpen rejects the size.
func (e *Engine) openPosition(s *State, bar market.Bar, side market.Side) bool {
	equity := s.Equity(bar.Price)
	size := risk.Calculate(risk.Inputs{
		Equity:    equity,
		Fraction:  e.cfg.PositionFraction,
		Leverage:  e.cfg.Leverage,
		Price:     bar.Price,
		SpreadBps: e.cfg.SpreadBps,
		Side:      side,
	})

	if d := risk.CheckOpen(size, s.Account.FreeCash); !d.Allowed {
		e.log.Debug("open rejected",
			"date", bar.Date.Format(time.DateOnly),
			"side", side.String(),
			"code", d.Code(),
			"margin", size.Margin,
			"free_cash", s.Account.FreeCash)
		return false
	}

	s.Account.FreeCash -= size.Margin
	s.Account.MarginUsed = size.Margin
	s.Position = &Position{
		ID:           e.newID(),
		Side:         side,
		Quantity:     size.Quantity,
		EntryPrice:   size.EntryPrice,
		Exposure:     size.Exposure,
		Margin:       size.Margin,
		EntryDate:    bar.Date,
		EquityAtOpen: equity,
	}
	return true
}

// closePosition exits the open position at the bar price without spread.
// Signal closes and flips pay the FX fee; stop-outs do not.
func (e *Engine) closePosition(s *State, bar market.Bar, reason CloseReason) Trade {
	p := s.Position
	gross := p.UnrealizedPL(bar.Price)

	var fx float64
	if reason != ReasonStopOut {
		fx = math.Abs(gross) * e.cfg.FXFeeRate
	}

	s.Account.RealizedPL += gross - fx
	s.Account.FXTotal += fx
	s.Account.MarginUsed = 0
	if credit := s.Account.settle(p.Margin + gross - fx); credit > 0 {
		e.log.Info("negative balance written off",
			"date", bar.Date.Format(time.DateOnly),
			"credit", credit,
			"reason", string(reason))
	}
	s.Position = nil

	return Trade{
		ID:           p.ID,
		Side:         p.Side,
		Reason:       reason,
		Quantity:     p.Quantity,
		EntryDate:    p.EntryDate,
		EntryPrice:   p.EntryPrice,
		ExitDate:     bar.Date,
		ExitPrice:    bar.Price,
		GrossPL:      gross,
		SwapFees:     p.SwapAccrued,
		FXFees:       fx,
		NetPL:        gross - fx,
		Margin:       p.Margin,
		EquityBefore: p.EquityAtOpen,
		EquityAfter:  s.Account.FreeCash,
	}
}

// accrueFinancing books one bar of swap on the open position.
func (e *Engine) accrueFinancing(s *State, price float64) {
	p := s.Position
	rate := e.cfg.SwapLongRate
	if p.Side == market.Short {
		rate = e.cfg.SwapShortRate
	}

	fee := p.MarketExposure(price) * rate
	if fee == 0 {
		return
	}

	p.SwapAccrued += fee
	s.Account.RealizedPL += fee
	s.Account.SwapTotal += fee
	s.Account.settle(fee)
}

// Result is the outcome of a complete run.
type Result struct {
	InitialEquity float64
	FinalEquity   float64

	History []Snapshot
	Trades  []Trade

	MaxDrawdown      float64
	MarginCallEvents int
	StopOutEvents    int
	SwapFeesTotal    float64
	FXFeesTotal      float64
	RealizedPL       float64
	ProtectionCredit float64

	// Zero when the run had no bars.
	FirstDate time.Time
	LastDate  time.Time

	// Position still open after the last bar, nil when flat.
	OpenPosition *Position
}

// EquityCurve returns the equity of every snapshot in order.
func (r Result) EquityCurve() []float64 {
	out := make([]float64, len(r.History))
	for i, s := range r.History {
		out[i] = s.Equity
	}
	return out
}

// Run simulates bars in order starting from a flat account holding
// initialEquity. Inputs are checked up front; once the loop starts a run
// always completes.
func (e *Engine) Run(initialEquity float64, bars []market.Bar) (Result, error) {
	if !market.ValidPrice(initialEquity) {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidEquity, initialEquity)
	}
	for i, b := range bars {
		if !market.ValidPrice(b.Price) {
			return Result{}, fmt.Errorf("bar %d: %w: %v", i, ErrInvalidPrice, b.Price)
		}
		if !b.Signal.Valid() {
			return Result{}, fmt.Errorf("bar %d: %w", i, ErrInvalidSignal)
		}
	}

	res := Result{
		InitialEquity: initialEquity,
		FinalEquity:   initialEquity,
		History:       make([]Snapshot, 0, len(bars)),
	}

	s := e.Start(initialEquity)
	for _, b := range bars {
		var step StepResult
		s, step = e.Step(s, b)
		res.History = append(res.History, step.Snapshot)
		if step.Trade != nil {
			res.Trades = append(res.Trades, *step.Trade)
		}
	}

	if n := len(res.History); n > 0 {
		res.FinalEquity = res.History[n-1].Equity
		res.FirstDate = res.History[0].Date
		res.LastDate = res.History[n-1].Date
	}
	res.MaxDrawdown = MaxDrawdown(res.EquityCurve())
	res.MarginCallEvents = s.MarginCalls
	res.StopOutEvents = s.StopOuts
	res.SwapFeesTotal = s.Account.SwapTotal
	res.FXFeesTotal = s.Account.FXTotal
	res.RealizedPL = s.Account.RealizedPL
	res.ProtectionCredit = s.Account.ProtectionCredit
	res.OpenPosition = s.Position

	e.log.Info("simulation complete",
		"bars", len(bars),
		"trades", len(res.Trades),
		"initial_equity", res.InitialEquity,
		"final_equity", res.FinalEquity,
		"max_drawdown", res.MaxDrawdown,
		"stop_outs", res.StopOutEvents,
		"margin_calls", res.MarginCallEvents)

	return res, nil
}
