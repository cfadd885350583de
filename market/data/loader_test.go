package data

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"golang.org/x/text/encoding/unicode"
)

const metaTraderTSV = "Date\tTimestamp\tOpen\tHigh\tLow\tClose\tVolume\n" +
	"2024.01.02\t00:00:00\t2062.10\t2063.50\t2061.80\t2063.00\t120\n" +
	"2024.01.02\t00:05:00\t2063.00\t2064.20\t2062.40\t2062.90\t98\n" +
	"2024.01.02\t00:10:00\t2062.90\t2063.10\t2060.00\t2060.50\t143\n"

func TestReadCandlesMetaTraderTSV(t *testing.T) {
	candles, err := ReadCandles(strings.NewReader(metaTraderTSV), Options{})
	require.NoError(t, err)
	require.Len(t, candles, 3)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), candles[0].Time)
	assert.Equal(t, 2062.10, candles[0].Open)
	assert.Equal(t, 2063.50, candles[0].High)
	assert.Equal(t, 2061.80, candles[0].Low)
	assert.Equal(t, 2063.00, candles[0].Close)
	assert.Equal(t, 120.0, candles[0].Volume)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 10, 0, 0, time.UTC), candles[2].Time)
}

func TestReadCandlesFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{
			name: "iso csv with header",
			input: "time,open,high,low,close\n" +
				"2024-01-02T00:00:00Z,1,2,0.5,1.5\n" +
				"2024-01-02T01:00:00Z,1.5,2,1,1.8\n",
			want: 2,
		},
		{
			name: "headerless positional",
			input: "2024-01-02 00:00:00,1,2,0.5,1.5\n" +
				"2024-01-02 01:00:00,1.5,2,1,1.8\n",
			want: 2,
		},
		{
			name: "semicolon dukascopy style",
			input: "20240102 000000;1.1;1.2;1.0;1.15;0\n" +
				"20240102 000100;1.15;1.2;1.1;1.12;0\n",
			want: 2,
		},
		{
			name: "metatrader angle headers",
			input: "<DATE>\t<TIME>\t<OPEN>\t<HIGH>\t<LOW>\t<CLOSE>\t<TICKVOL>\t<VOL>\t<SPREAD>\n" +
				"2024.01.02\t00:00\t2062.1\t2063.5\t2061.8\t2063\t10\t0\t30\n",
			want: 1,
		},
		{
			name: "short rows skipped",
			input: "time,open,high,low,close\n" +
				"2024-01-02T00:00:00Z,1,2,0.5,1.5\n" +
				"2024-01-02T01:00:00Z,1.5\n" +
				"2024-01-02T02:00:00Z,1.5,2,1,1.8\n",
			want: 2,
		},
		{
			name:  "empty input",
			input: "",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candles, err := ReadCandles(strings.NewReader(tt.input), Options{})
			require.NoError(t, err)
			assert.Len(t, candles, tt.want)
		})
	}
}

func TestReadCandlesErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{
			name: "bad price",
			input: "time,open,high,low,close\n" +
				"2024-01-02T00:00:00Z,1,abc,0.5,1.5\n",
			msg: "bad price",
		},
		{
			name: "bad time",
			input: "time,open,high,low,close\n" +
				"yesterday,1,2,0.5,1.5\n",
			msg: "bad time",
		},
		{
			name: "duplicate timestamp",
			input: "time,open,high,low,close\n" +
				"2024-01-02T00:00:00Z,1,2,0.5,1.5\n" +
				"2024-01-02T00:00:00Z,1,2,0.5,1.5\n",
			msg: "line 3: timestamp",
		},
		{
			name: "out of order",
			input: "time,open,high,low,close\n" +
				"2024-01-02T01:00:00Z,1,2,0.5,1.5\n" +
				"2024-01-02T00:00:00Z,1,2,0.5,1.5\n",
			msg: "is not after",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCandles(strings.NewReader(tt.input), Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestReadCandlesRange(t *testing.T) {
	input := "time,open,high,low,close\n" +
		"2024-01-02T00:00:00Z,1,2,0.5,1.5\n" +
		"2024-01-02T01:00:00Z,1,2,0.5,1.5\n" +
		"2024-01-02T02:00:00Z,1,2,0.5,1.5\n" +
		"2024-01-02T03:00:00Z,1,2,0.5,1.5\n"

	from := time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)

	candles, err := ReadCandles(strings.NewReader(input), Options{From: from, To: to})
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, from, candles[0].Time)
	assert.Equal(t, from.Add(time.Hour), candles[1].Time)
}

func TestReadCandlesUTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	encoded, err := enc.String(metaTraderTSV)
	require.NoError(t, err)

	candles, err := ReadCandles(strings.NewReader(encoded), Options{})
	require.NoError(t, err)
	require.Len(t, candles, 3)
	assert.Equal(t, 2060.50, candles[2].Close)
}

func TestLoadCandlesXZ(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xauusd.tsv.xz")

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write([]byte(metaTraderTSV))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	candles, err := LoadCandles(path, Options{})
	require.NoError(t, err)
	assert.Len(t, candles, 3)
}

func TestLoadCandlesMissingFile(t *testing.T) {
	_, err := LoadCandles("/nonexistent/path.csv", Options{})
	assert.Error(t, err)
}

func TestInRange(t *testing.T) {
	base := time.Date(2026, 1, 24, 12, 0, 0, 0, time.UTC)
	before := base.Add(-time.Hour)
	after := base.Add(time.Hour)

	assert.True(t, inRange(base, time.Time{}, time.Time{}))
	assert.True(t, inRange(base, base, after))
	assert.False(t, inRange(base, before, base))
	assert.False(t, inRange(before, base, time.Time{}))
	assert.True(t, inRange(before, time.Time{}, base))
}

func TestSniffComma(t *testing.T) {
	assert.Equal(t, '\t', sniffComma("a\tb\tc"))
	assert.Equal(t, ';', sniffComma("a;b;c,d"))
	assert.Equal(t, ',', sniffComma("a,b,c"))
	assert.Equal(t, ',', sniffComma("abc"))
}
