package backtest

import (
	"context"
	"runtime"

	"github.com/rustyeddy/cfdsim/market"
	"github.com/rustyeddy/cfdsim/sim"
	"golang.org/x/sync/errgroup"
)

// Grid lists the values to try on each axis. An empty axis keeps the base
// config's value.
type Grid struct {
	Leverages     []float64
	StopOutLevels []float64
}

type Point struct {
	Leverage     float64
	StopOutLevel float64
}

// Points expands the grid leverage-major.
func (g Grid) Points(base sim.Config) []Point {
	levs := g.Leverages
	if len(levs) == 0 {
		levs = []float64{base.Leverage}
	}
	sos := g.StopOutLevels
	if len(sos) == 0 {
		sos = []float64{base.StopOutLevel}
	}

	out := make([]Point, 0, len(levs)*len(sos))
	for _, l := range levs {
		for _, so := range sos {
			out = append(out, Point{Leverage: l, StopOutLevel: so})
		}
	}
	return out
}

// SweepResult is one grid point. Err is set when the point's config was
// rejected; the other points still run.
type SweepResult struct {
	Point
	Config  sim.Config
	Result  sim.Result
	Summary Summary
	Err     error
}

// Sweep runs every grid point against the same bars with at most workers
// simulations in flight (<= 0 means one per CPU). Results come back in
// grid order regardless of completion order.
func Sweep(ctx context.Context, base sim.Config, grid Grid, equity float64, bars []market.Bar, workers int, opts ...sim.Option) ([]SweepResult, error) {
	points := grid.Points(base)
	out := make([]SweepResult, len(points))

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p := range points {
		i, p := i, p
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			cfg := base
			cfg.Leverage = p.Leverage
			cfg.StopOutLevel = p.StopOutLevel
			out[i] = SweepResult{Point: p, Config: cfg}

			eng, err := sim.NewEngine(cfg, opts...)
			if err != nil {
				out[i].Err = err
				return nil
			}
			res, err := eng.Run(equity, bars)
			if err != nil {
				out[i].Err = err
				return nil
			}
			out[i].Result = res
			out[i].Summary = Summarize(res)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
