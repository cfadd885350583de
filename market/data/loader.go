// Package data loads historical OHLC candles from delimited text exports.
package data

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/bandtrader/market"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Options narrows what LoadCandles returns.
//
// From is inclusive and To is exclusive; zero values disable the bound.
// Comma forces a delimiter; zero sniffs it from the first line.
type Options struct {
	From     time.Time
	To       time.Time
	Comma    rune
	Location *time.Location
}

// dateLayouts and timeLayouts cover MetaTrader, Dukascopy and ISO exports.
var dateLayouts = []string{
	"2006.01.02",
	"2006-01-02",
	"2006/01/02",
	"20060102",
}

var timeLayouts = []string{
	"15:04:05",
	"15:04",
	"150405",
}

var stampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006.01.02 15:04:05",
	"2006.01.02 15:04",
	"20060102 150405",
}

// Open opens path for reading, transparently decompressing .xz, .lzma and
// .gz files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var r io.Reader
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xz":
		r, err = xz.NewReader(bufio.NewReader(f))
	case ".lzma":
		r, err = lzma.NewReader(bufio.NewReader(f))
	case ".gz":
		r, err = gzip.NewReader(f)
	default:
		return f, nil
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &readCloser{Reader: r, f: f}, nil
}

type readCloser struct {
	io.Reader
	f *os.File
}

func (rc *readCloser) Close() error {
	return rc.f.Close()
}

// LoadCandles reads every candle in path.
func LoadCandles(path string, opts Options) ([]market.Candle, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	candles, err := ReadCandles(rc, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return candles, nil
}

// ReadCandles parses delimited OHLC rows. A header row is optional; without
// one the columns are taken as time,open,high,low,close[,volume]. UTF-8 and
// UTF-16 byte order marks are honoured. Timestamps must be strictly
// increasing.
func ReadCandles(r io.Reader, opts Options) ([]market.Candle, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	br := bufio.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	first, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	if strings.TrimSpace(first) == "" {
		return nil, nil
	}

	comma := opts.Comma
	if comma == 0 {
		comma = sniffComma(first)
	}

	cr := csv.NewReader(io.MultiReader(strings.NewReader(first), br))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	row, err := cr.Read()
	if err != nil {
		return nil, err
	}

	var (
		out  []market.Candle
		last time.Time
		line int
	)

	cols, isHeader := parseHeader(row)
	if isHeader {
		row = nil
		line = 1
	}
	for {
		line++
		if row == nil {
			row, err = cr.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}

		c, ok, err := parseRow(row, cols, loc)
		row = nil
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !ok {
			continue
		}
		if !last.IsZero() && !c.Time.After(last) {
			return nil, fmt.Errorf("line %d: timestamp %s is not after %s",
				line, c.Time.Format(time.RFC3339), last.Format(time.RFC3339))
		}
		last = c.Time
		if inRange(c.Time, opts.From, opts.To) {
			out = append(out, c)
		}
	}

	return out, nil
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

// sniffComma picks the most frequent of tab, semicolon and comma.
func sniffComma(line string) rune {
	best, bestN := ',', strings.Count(line, ",")
	for _, c := range []rune{'\t', ';'} {
		if n := strings.Count(line, string(c)); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}

// columns holds field positions; -1 marks an absent column.
type columns struct {
	date, clock, stamp int
	open, high, low    int
	close, volume      int
}

var positional = columns{date: -1, clock: -1, stamp: 0, open: 1, high: 2, low: 3, close: 4, volume: 5}

func parseHeader(row []string) (columns, bool) {
	cols := columns{date: -1, clock: -1, stamp: -1, open: -1, high: -1, low: -1, close: -1, volume: -1}
	for i, raw := range row {
		name := strings.ToLower(strings.Trim(strings.TrimSpace(raw), "<>\""))
		switch name {
		case "date", "day":
			cols.date = i
		case "timestamp", "time", "hour":
			cols.clock = i
		case "datetime", "date_time", "gmt time", "local time":
			cols.stamp = i
		case "open", "o":
			cols.open = i
		case "high", "h":
			cols.high = i
		case "low", "l":
			cols.low = i
		case "close", "c":
			cols.close = i
		case "volume", "vol", "tickvol", "tick_volume":
			if cols.volume == -1 {
				cols.volume = i
			}
		}
	}

	if cols.open == -1 || cols.high == -1 || cols.low == -1 || cols.close == -1 {
		return positional, false
	}

	// A lone "time" column holds the full timestamp.
	if cols.stamp == -1 && cols.date == -1 && cols.clock != -1 {
		cols.stamp, cols.clock = cols.clock, -1
	}
	if cols.stamp == -1 && cols.date == -1 {
		return positional, false
	}
	return cols, true
}

func parseRow(row []string, cols columns, loc *time.Location) (market.Candle, bool, error) {
	need := max(cols.date, cols.clock, cols.stamp, cols.open, cols.high, cols.low, cols.close)
	if len(row) <= need {
		return market.Candle{}, false, nil
	}

	var (
		ts  time.Time
		err error
	)
	if cols.stamp != -1 {
		ts, err = parseStamp(row[cols.stamp], loc)
	} else {
		clock := ""
		if cols.clock != -1 {
			clock = row[cols.clock]
		}
		ts, err = parseDateClock(row[cols.date], clock, loc)
	}
	if err != nil {
		return market.Candle{}, false, err
	}

	var c market.Candle
	c.Time = ts
	fields := []struct {
		idx int
		dst *float64
	}{
		{cols.open, &c.Open},
		{cols.high, &c.High},
		{cols.low, &c.Low},
		{cols.close, &c.Close},
	}
	for _, f := range fields {
		v, err := parsePrice(row[f.idx])
		if err != nil {
			return market.Candle{}, false, err
		}
		*f.dst = v
	}
	if cols.volume != -1 && cols.volume < len(row) {
		if v, err := parsePrice(row[cols.volume]); err == nil {
			c.Volume = v
		}
	}
	return c, true, nil
}

func parsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad price %q: %w", s, err)
	}
	return v, nil
}

func parseStamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range stampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

func parseDateClock(date, clock string, loc *time.Location) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)

	for _, dl := range dateLayouts {
		if clock == "" {
			if t, err := time.ParseInLocation(dl, date, loc); err == nil {
				return t.UTC(), nil
			}
			continue
		}
		for _, tl := range timeLayouts {
			if t, err := time.ParseInLocation(dl+" "+tl, date+" "+clock, loc); err == nil {
				return t.UTC(), nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("bad date/time %q %q", date, clock)
}
