package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/bandtrader/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query trade journal data",
	Long: `Query and display backtest runs and trades from a SQLite journal.

Subcommands:
  runs   - List recent backtest runs
  show   - Print a run with its trades as Org
  trades - List the trades of a run
  trade  - Get details of a specific trade by ID
  day    - List trades closed on a specific day

Examples:
  bandtrader journal runs
  bandtrader journal show <run-id>
  bandtrader journal trade <trade-id>
  bandtrader journal day 2024-01-15`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent backtest runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a backtest run and its trades as Org",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades <run-id>",
	Short: "List the trades of a backtest run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrades,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var (
	journalDBPath string
	journalLimit  int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./bandtrader.sqlite", "path to SQLite journal DB")
	journalRunsCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "number of runs to list")
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListBacktestRuns(cmd.Context(), journalLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %s  %-28s %-8s trades=%-4d net=%9.2f ret=%7.2f%% dd=%6.2f%%\n",
			r.RunID,
			r.Created.Format("2006-01-02 15:04"),
			r.Strategy,
			r.Instrument,
			r.Trades,
			r.NetPL,
			r.ReturnPct,
			r.MaxDDPct,
		)
	}
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	org, err := j.ExportBacktestOrg(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("export run: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), org)
	return nil
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runID := args[0]
	recs, err := j.ListTradesByRunID(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	stats, err := j.RunTradeStats(runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, journal.FormatTradesOrg(recs))
	fmt.Fprintf(out, "Trades: %d  Gross profit: %.2f  Gross loss: %.2f  Profit factor: %.2f\n",
		stats.Trades, stats.GrossProfit, stats.GrossLoss, stats.ProfitFactor())
	return nil
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradeOrg(rec))
	return nil
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	// candle timestamps are UTC
	start, end, err := dayBounds(time.UTC, args[0])
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.ListTradesClosedBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), journal.FormatTradesOrg(recs))
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.Add(24 * time.Hour)
	return start, end, nil
}
