package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/rustyeddy/bandtrader/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage configuration files for backtest runs.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file
  schema   - Print the JSON schema of the configuration file

Examples:
  bandtrader config init -o xau.yaml
  bandtrader config validate -f xau.yaml
  bandtrader config schema > bandtrader.schema.json`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings.

Example:
  bandtrader config init -o xau.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded.

Example:
  bandtrader config validate -f xau.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the configuration JSON schema",
	Args:  cobra.NoArgs,
	RunE:  runConfigSchema,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configSchemaCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "bandtrader.yaml", "output config file path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(out, "\nSet data.path and run with:")
	fmt.Fprintf(out, "  bandtrader run -c %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(out, "  Account: %s %.2f at %.0fx, margin ratio %.2f\n",
		cfg.Account.Instrument, cfg.Account.Balance, cfg.Account.Leverage, cfg.Account.MarginRatio)
	fmt.Fprintf(out, "  Strategy: %s (RSI %g/%g, target %s)\n",
		cfg.Strategy.Name, cfg.Strategy.Oversold, cfg.Strategy.Overbought, cfg.Strategy.Target)
	fmt.Fprintf(out, "  Stop: %s %g, trigger %s\n", cfg.Execution.Stop, cfg.Execution.StopOffset, cfg.Execution.Trigger)
	fmt.Fprintf(out, "  Journal: %s\n", cfg.Journal.Type)
	return nil
}

func runConfigSchema(cmd *cobra.Command, args []string) error {
	b, err := json.MarshalIndent(config.Schema(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
