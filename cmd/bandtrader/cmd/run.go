package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/bandtrader/backtest"
	"github.com/rustyeddy/bandtrader/config"
	"github.com/rustyeddy/bandtrader/indicators"
	"github.com/rustyeddy/bandtrader/journal"
	"github.com/rustyeddy/bandtrader/market"
	"github.com/rustyeddy/bandtrader/market/data"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest over a candle file",
	Long: `Run loads candles, attaches RSI and Bollinger Bands, and replays them
through the configured strategy. The summary is printed when the run ends.

Supported candle files: tab, comma or semicolon separated exports with a
Date/Timestamp or time column, optionally UTF-16 encoded or compressed
with xz, lzma or gzip.

Examples:
  bandtrader run -c xau.yaml
  bandtrader run --data data/xauusd_m5.tsv --trigger intrabar
  bandtrader run -c xau.yaml --db runs.sqlite --org-dir reports`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

var (
	runConfigPath string
	runDataPath   string
	runFrom       string
	runTo         string
	runTrigger    string
	runDBPath     string
	runOrgDir     string
	runNoProgress bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to config file (defaults when empty)")
	runCmd.Flags().StringVar(&runDataPath, "data", "", "candle file, overrides data.path")
	runCmd.Flags().StringVar(&runFrom, "from", "", "first day to replay (YYYY-MM-DD), overrides data.from")
	runCmd.Flags().StringVar(&runTo, "to", "", "day to stop before (YYYY-MM-DD), overrides data.to")
	runCmd.Flags().StringVar(&runTrigger, "trigger", "", "stop trigger (close, intrabar), overrides execution.trigger")
	runCmd.Flags().StringVarP(&runDBPath, "db", "d", "", "SQLite journal, overrides the journal section")
	runCmd.Flags().StringVar(&runOrgDir, "org-dir", "", "directory for the Org run report, overrides journal.org_dir")
	runCmd.Flags().BoolVar(&runNoProgress, "no-progress", false, "hide the progress bar")
}

func runBacktest(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}
	if cfg.Data.Path == "" {
		return fmt.Errorf("no candle file: set data.path or pass --data")
	}

	opts, err := cfg.Data.LoadOptions()
	if err != nil {
		return err
	}
	candles, err := data.LoadCandles(cfg.Data.Path, opts)
	if err != nil {
		return fmt.Errorf("load candles: %w", err)
	}

	pipe, err := indicators.NewPipeline(cfg.PipelineConfig())
	if err != nil {
		return fmt.Errorf("indicators: %w", err)
	}
	bars, err := pipe.Enrich(candles)
	if err != nil {
		return fmt.Errorf("indicators: %w", err)
	}
	logger.Info().
		Int("candles", len(candles)).
		Int("bars", len(bars)).
		Str("data", cfg.Data.Path).
		Msg("candles loaded")

	ec, err := cfg.EngineConfig()
	if err != nil {
		return err
	}
	ec.RunID = journal.NewRunID()
	ec.Logger = logger.With().Str("run", ec.RunID).Logger()

	j, db, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := j.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close journal: %w", cerr)
		}
	}()
	ec.Journal = j

	var bar *progressbar.ProgressBar
	if !runNoProgress && len(bars) > 0 {
		bar = progressbar.NewOptions(len(bars),
			progressbar.OptionSetDescription("Backtesting "+ec.Instrument),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		ec.Progress = func(done int) { _ = bar.Set(done) }
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, runErr := backtest.Run(ctx, ec, bars)
	if bar != nil {
		_ = bar.Finish()
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("backtest: %w", runErr)
	}

	run := backtest.Summarize(ec.StartingBalance, res).BacktestRun(ec, res)
	run.Created = time.Now()
	run.Dataset = cfg.Data.Path
	run.Timeframe = cfg.Data.Timeframe
	if run.Timeframe == "" {
		if tf, err := market.InferTimeframe(candles); err == nil {
			run.Timeframe = tf
		}
	}
	if run.Config, err = json.Marshal(cfg); err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if runErr != nil {
		run.Notes = append(run.Notes, "interrupted: partial result")
	}

	if cfg.Journal.OrgDir != "" {
		if err := os.MkdirAll(cfg.Journal.OrgDir, 0755); err != nil {
			return fmt.Errorf("org dir: %w", err)
		}
		run.OrgPath = filepath.Join(cfg.Journal.OrgDir, "backtest-"+run.RunID+".org")
		if err := run.WriteBacktestOrg(); err != nil {
			return err
		}
	}
	if db != nil {
		if err := db.RecordBacktest(context.Background(), run); err != nil {
			return fmt.Errorf("record backtest: %w", err)
		}
	}

	backtest.PrintBacktestRun(cmd.OutOrStdout(), run)
	return runErr
}

// loadRunConfig reads the config file, if any, and applies flag overrides.
func loadRunConfig() (*config.Config, error) {
	cfg := config.Default()
	if runConfigPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(runConfigPath); err != nil {
			return nil, err
		}
	}

	if runDataPath != "" {
		cfg.Data.Path = runDataPath
	}
	if runFrom != "" {
		cfg.Data.From = runFrom
	}
	if runTo != "" {
		cfg.Data.To = runTo
	}
	if runTrigger != "" {
		cfg.Execution.Trigger = runTrigger
	}
	if runDBPath != "" {
		cfg.Journal = config.JournalConfig{Type: "sqlite", DBPath: runDBPath, OrgDir: cfg.Journal.OrgDir}
	}
	if runOrgDir != "" {
		cfg.Journal.OrgDir = runOrgDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openJournal returns the journal for jc. db is non-nil only for SQLite,
// which also stores the run summary.
func openJournal(jc config.JournalConfig) (j journal.Journal, db *journal.SQLite, err error) {
	switch jc.Type {
	case "csv":
		c, err := journal.NewCSV(jc.TradesFile, jc.EquityFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open csv journal: %w", err)
		}
		return c, nil, nil
	case "sqlite":
		s, err := journal.NewSQLite(jc.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open db: %w", err)
		}
		return s, s, nil
	default:
		return journal.Nop{}, nil, nil
	}
}
