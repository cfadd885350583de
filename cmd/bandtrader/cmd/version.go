package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the bandtrader CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "bandtrader version %s\n", version)
		fmt.Fprintln(out, "RSI/Bollinger mean-reversion backtester")
		fmt.Fprintln(out, "https://github.com/rustyeddy/bandtrader")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
