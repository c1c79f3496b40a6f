package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rustyeddy/cfdsim/config"
	"github.com/rustyeddy/cfdsim/internal/backtest"
	"github.com/rustyeddy/cfdsim/internal/id"
	"github.com/rustyeddy/cfdsim/internal/metrics"
	"github.com/rustyeddy/cfdsim/journal"
	"github.com/rustyeddy/cfdsim/sim"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Compare leverage and stop-out settings over the same bars",
	Long: `Sweep runs one simulation per leverage/stop-out combination against the
bars named in the config and prints a comparison table. The grid comes from
the sweep section of the config unless overridden by flags.

Example:
  cfdsim sweep -f simulation.yaml
  cfdsim sweep -f simulation.yaml --leverage 2,5,10,30 --stop-out 0.5 --workers 4`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

var (
	sweepConfigPath  string
	sweepBarsPath    string
	sweepWorkers     int
	sweepLeverages   []float64
	sweepStopOuts    []float64
	sweepMetricsPath string
	sweepRecord      bool
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVarP(&sweepConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	sweepCmd.Flags().StringVar(&sweepBarsPath, "bars", "", "bars CSV (overrides data.bars_file)")
	sweepCmd.Flags().IntVarP(&sweepWorkers, "workers", "w", 0, "parallel simulations (overrides sweep.workers, 0 = one per CPU)")
	sweepCmd.Flags().Float64SliceVar(&sweepLeverages, "leverage", nil, "leverages to try (overrides sweep.leverages)")
	sweepCmd.Flags().Float64SliceVar(&sweepStopOuts, "stop-out", nil, "stop-out levels to try (overrides sweep.stop_out_levels)")
	sweepCmd.Flags().StringVar(&sweepMetricsPath, "metrics", "", "write Prometheus metrics to this textfile")
	sweepCmd.Flags().BoolVar(&sweepRecord, "record", false, "store every run in the SQLite journal (journal.db_path)")
	_ = sweepCmd.MarkFlagRequired("config")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(sweepConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	bars, dataset, err := loadBars(cfg, sweepBarsPath)
	if err != nil {
		return err
	}

	grid := backtest.Grid{
		Leverages:     cfg.Sweep.Leverages,
		StopOutLevels: cfg.Sweep.StopOutLevels,
	}
	if cmd.Flags().Changed("leverage") {
		grid.Leverages = sweepLeverages
	}
	if cmd.Flags().Changed("stop-out") {
		grid.StopOutLevels = sweepStopOuts
	}
	workers := cfg.Sweep.Workers
	if cmd.Flags().Changed("workers") {
		workers = sweepWorkers
	}

	fmt.Printf("Sweeping %d configurations over %d bars from %s\n\n",
		len(grid.Points(cfg.Broker)), len(bars), dataset)

	results, err := backtest.Sweep(cmd.Context(), cfg.Broker, grid, cfg.Account.InitialEquity, bars, workers,
		sim.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	printSweep(results)

	if sweepRecord {
		if err := recordSweep(cmd, cfg, dataset, results); err != nil {
			return err
		}
	}

	if sweepMetricsPath != "" {
		m := metrics.NewRecorder()
		for _, r := range results {
			if r.Err == nil {
				m.Observe(r.Result)
			}
		}
		if err := m.WriteTextfile(sweepMetricsPath); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		fmt.Printf("Metrics written to: %s\n", sweepMetricsPath)
	}
	return nil
}

func printSweep(results []backtest.SweepResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "LEVERAGE\tSTOP-OUT\tFINAL EQUITY\tRETURN\tMAX DD\tTRADES\tMARGIN CALLS\tSTOP-OUTS\t")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "1:%g\t%.0f%%\t%s\t\t\t\t\t\t\n", r.Leverage, r.StopOutLevel*100, r.Err)
			continue
		}
		s := r.Summary
		fmt.Fprintf(w, "1:%g\t%.0f%%\t%.2f\t%.2f%%\t%.2f%%\t%d\t%d\t%d\t\n",
			r.Leverage, r.StopOutLevel*100, s.FinalEquity, s.ReturnPct, s.MaxDrawdown*100,
			s.Trades, s.MarginCalls, s.StopOuts)
	}
	_ = w.Flush()
	fmt.Println()
}

// recordSweep stores each successful point as its own run.
func recordSweep(cmd *cobra.Command, cfg *config.Config, dataset string, results []backtest.SweepResult) error {
	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	n := 0
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		runID := id.New()
		if err := backtest.Record(j, runID, r.Result); err != nil {
			return err
		}
		rec, err := backtest.RunRecord(runID, dataset, r.Config, r.Summary, time.Now().UTC())
		if err != nil {
			return err
		}
		rec.Notes = append(rec.Notes, fmt.Sprintf("sweep point: leverage 1:%g, stop-out %.0f%%", r.Leverage, r.StopOutLevel*100))
		if err := j.RecordRun(cmd.Context(), rec); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		n++
	}
	fmt.Printf("Recorded %d runs to: %s\n", n, cfg.Journal.DBPath)
	return nil
}
