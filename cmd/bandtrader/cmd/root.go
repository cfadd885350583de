package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bandtrader",
	Short: "RSI/Bollinger mean-reversion backtester",
	Long: `Bandtrader replays historical candles through an RSI and Bollinger Band
mean-reversion strategy on a single leveraged instrument.

It provides tools for:
  - Backtesting with a spread-aware execution model
  - Margin and leverage accounting with one position at a time
  - Fixed-percentage or band-relative stop losses
  - Managing trade journals and run reports

Complete documentation is available at https://github.com/rustyeddy/bandtrader`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lvl, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(lvl).
			With().Timestamp().Logger()
		return nil
	},
}

var (
	logLevel string
	logger   = zerolog.Nop()
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}
