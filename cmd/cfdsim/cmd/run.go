package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rustyeddy/cfdsim/config"
	"github.com/rustyeddy/cfdsim/internal/backtest"
	"github.com/rustyeddy/cfdsim/internal/id"
	"github.com/rustyeddy/cfdsim/internal/metrics"
	"github.com/rustyeddy/cfdsim/journal"
	"github.com/rustyeddy/cfdsim/market"
	"github.com/rustyeddy/cfdsim/sim"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation from a config file",
	Long: `Run a CFD account simulation over a bars CSV using the settings from a
configuration file.

The bars file has a date,price,signal header; signal is long, short or flat.
Trades and the per-bar equity curve go to the configured journal.

Example:
  cfdsim run -f simulation.yaml
  cfdsim run -f simulation.yaml --bars spx.csv --history equity.csv --org run.org`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runConfigPath  string
	runBarsPath    string
	runHistoryPath string
	runOrgPath     string
	runMetricsPath string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.Flags().StringVar(&runBarsPath, "bars", "", "bars CSV (overrides data.bars_file)")
	runCmd.Flags().StringVar(&runHistoryPath, "history", "", "write the per-bar snapshot history to this CSV")
	runCmd.Flags().StringVar(&runOrgPath, "org", "", "write an Org-mode run report to this file")
	runCmd.Flags().StringVar(&runMetricsPath, "metrics", "", "write Prometheus metrics to this textfile")
	_ = runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	bars, dataset, err := loadBars(cfg, runBarsPath)
	if err != nil {
		return err
	}

	b := cfg.Broker
	fmt.Printf("Running simulation with config: %s\n", runConfigPath)
	fmt.Printf("  Account: %s (Equity: %.2f %s)\n", cfg.Account.ID, cfg.Account.InitialEquity, cfg.Account.Currency)
	fmt.Printf("  Broker: 1:%g, margin call %.0f%%, stop-out %.0f%%, position %.0f%%\n",
		b.Leverage, b.MarginCallLevel*100, b.StopOutLevel*100, b.PositionFraction*100)
	fmt.Printf("  Bars: %d from %s\n", len(bars), dataset)
	fmt.Println()

	engine, err := sim.NewEngine(cfg.Broker, sim.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	res, err := engine.Run(cfg.Account.InitialEquity, bars)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}

	runID := id.New()
	summary := backtest.Summarize(res)
	backtest.PrintSummary(os.Stdout, runID, summary)

	if p := res.OpenPosition; p != nil {
		fmt.Printf("Open position: %s %.4f @ %.4f (margin %.2f)\n\n", p.Side, p.Quantity, p.EntryPrice, p.Margin)
	}

	rec, err := backtest.RunRecord(runID, dataset, cfg.Broker, summary, time.Now().UTC())
	if err != nil {
		return err
	}

	if err := journalRun(cmd.Context(), cfg, runID, res, rec); err != nil {
		return err
	}

	if runHistoryPath != "" {
		if err := writeHistory(runHistoryPath, res.History); err != nil {
			return fmt.Errorf("write history: %w", err)
		}
		fmt.Printf("History written to: %s\n", runHistoryPath)
	}

	if runOrgPath != "" {
		if err := rec.WriteOrgFile(runOrgPath); err != nil {
			return fmt.Errorf("write org report: %w", err)
		}
		fmt.Printf("Org report written to: %s\n", runOrgPath)
	}

	if runMetricsPath != "" {
		m := metrics.NewRecorder()
		m.Observe(res)
		if err := m.WriteTextfile(runMetricsPath); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		fmt.Printf("Metrics written to: %s\n", runMetricsPath)
	}
	return nil
}

// loadBars reads the bars file named by override or the config, limited to
// the configured date range.
func loadBars(cfg *config.Config, override string) ([]market.Bar, string, error) {
	path := cfg.Data.BarsFile
	if override != "" {
		path = override
	}
	if path == "" {
		return nil, "", fmt.Errorf("no bars file: set data.bars_file or pass --bars")
	}

	from, to, err := cfg.Data.Range()
	if err != nil {
		return nil, "", err
	}
	bars, err := backtest.LoadBarsFile(path, from, to)
	if err != nil {
		return nil, "", fmt.Errorf("load bars: %w", err)
	}
	return bars, filepath.Base(path), nil
}

// journalRun stores one run in the configured journal. Only SQLite keeps
// the run summary row.
func journalRun(ctx context.Context, cfg *config.Config, runID string, res sim.Result, rec journal.RunRecord) error {
	switch cfg.Journal.Type {
	case "csv":
		j, err := journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
		if err != nil {
			return fmt.Errorf("create journal: %w", err)
		}
		if err := backtest.Record(j, runID, res); err != nil {
			_ = j.Close()
			return err
		}
		if err := j.Close(); err != nil {
			return fmt.Errorf("close journal: %w", err)
		}
		fmt.Printf("Results saved to:\n  - %s\n  - %s\n", cfg.Journal.TradesFile, cfg.Journal.EquityFile)

	case "sqlite":
		j, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("create journal: %w", err)
		}
		defer j.Close()

		if err := backtest.Record(j, runID, res); err != nil {
			return err
		}
		if err := j.RecordRun(ctx, rec); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		fmt.Printf("Results saved to: %s (run %s)\n", cfg.Journal.DBPath, runID)
	}
	return nil
}

func writeHistory(path string, history []sim.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := backtest.WriteHistoryCSV(f, history); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
