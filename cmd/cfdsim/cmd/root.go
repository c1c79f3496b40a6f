package cmd

import (
	"io"
	"log/slog"

	"github.com/rustyeddy/cfdsim/config"
	"github.com/rustyeddy/cfdsim/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cfdsim",
	Short: "A leveraged CFD account simulator",
	Long: `cfdsim replays a daily price series with long/short/flat signals through
a single-position leveraged CFD account.

It models:
  - Margin locking and release with a fixed leverage
  - Half-spread entry costs and FX conversion fees on close
  - Daily swap financing for long and short positions
  - Margin calls, stop-outs and negative balance protection
  - Drawdown and trade statistics, journaled to CSV or SQLite`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = syncLog()
	},
}

var (
	logLevel string
	logJSON  bool

	logger  = slog.New(slog.NewTextHandler(io.Discard, nil))
	syncLog = func() error { return nil }
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write JSON logs")
}

// setupLogging builds the process logger from the flags, falling back to
// cfg.Log when a config was loaded. Without either, only warnings show.
func setupLogging(cfg *config.Config) error {
	level, prod := "warn", logJSON
	if cfg != nil {
		if cfg.Log.Level != "" {
			level = cfg.Log.Level
		}
		prod = prod || cfg.Log.Production
	}
	if logLevel != "" {
		level = logLevel
	}

	l, sync, err := logging.New(level, prod)
	if err != nil {
		return err
	}
	logger, syncLog = l, sync
	return nil
}
