package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

var (
	csvTradeHeader  = []string{"run_id", "trade_id", "instrument", "side", "units", "margin", "entry_price", "exit_price", "stop_loss", "open_time", "close_time", "realized_pl", "balance", "reason"}
	csvEquityHeader = []string{"run_id", "time", "balance", "equity", "margin_used", "free_margin"}
)

type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		_ = tf.Close()
		return nil, err
	}

	j := &CSVJournal{csv.NewWriter(tf), csv.NewWriter(ef), tf, ef}
	if err := j.write(j.trades, csvTradeHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	if err := j.write(j.equity, csvEquityHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.write(j.trades, []string{
		t.RunID,
		t.TradeID,
		t.Instrument,
		t.Side,
		f(t.Units),
		f(t.Margin),
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.StopLoss),
		t.OpenTime.UTC().Format(time.RFC3339),
		t.CloseTime.UTC().Format(time.RFC3339),
		f(t.RealizedPL),
		f(t.Balance),
		t.Reason,
	})
	if err != nil {
		return fmt.Errorf("csv trade %s: %w", t.TradeID, err)
	}
	return nil
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	err := j.write(j.equity, []string{
		e.RunID,
		e.Time.UTC().Format(time.RFC3339),
		f(e.Balance),
		f(e.Equity),
		f(e.MarginUsed),
		f(e.FreeMargin),
	})
	if err != nil {
		return fmt.Errorf("csv equity: %w", err)
	}
	return nil
}

func (j *CSVJournal) write(w *csv.Writer, rec []string) error {
	if err := w.Write(rec); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Close flushes both writers and closes both files, returning the first error.
func (j *CSVJournal) Close() error {
	j.trades.Flush()
	j.equity.Flush()

	var first error
	for _, err := range []error{
		j.trades.Error(),
		j.equity.Error(),
		j.tf.Close(),
		j.ef.Close(),
	} {
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
