package cmd

import (
	"fmt"

	"github.com/rustyeddy/cfdsim/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage configuration files for simulations.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Any setting can be overridden from the environment with a CFDSIM_ prefix,
for example CFDSIM_BROKER_LEVERAGE=10.

Examples:
  cfdsim config init -o my-config.yaml
  cfdsim config validate -f my-config.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings.

Example:
  cfdsim config init -o simulation.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded.

Example:
  cfdsim config validate -f simulation.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "simulation.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	_ = configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configInitOutput)
	fmt.Println("\nEdit the file and run with:")
	fmt.Printf("  cfdsim run -f %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	b := cfg.Broker
	fmt.Printf("✓ Configuration valid: %s\n", configValidatePath)
	fmt.Printf("  Account: %s (%.2f %s)\n", cfg.Account.ID, cfg.Account.InitialEquity, cfg.Account.Currency)
	fmt.Printf("  Broker: 1:%g leverage, margin call %.0f%%, stop-out %.0f%%, position %.0f%%\n",
		b.Leverage, b.MarginCallLevel*100, b.StopOutLevel*100, b.PositionFraction*100)
	fmt.Printf("  Costs: spread %.1f bps, FX fee %.2f%%, swap long %.4f%% short %.4f%%\n",
		b.SpreadBps, b.FXFeeRate*100, b.SwapLongRate*100, b.SwapShortRate*100)
	fmt.Printf("  Data: %s\n", cfg.Data.BarsFile)
	fmt.Printf("  Journal: %s\n", cfg.Journal.Type)
	return nil
}
