package journal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	"github.com/google/uuid"
)

// BacktestRun mirrors the backtest_runs table.
type BacktestRun struct {
	RunID     string
	Created   time.Time
	Timeframe string
	Dataset   string

	// Instrument traded in this backtest
	Instrument string
	Strategy   string
	Config     []byte // run config as JSON

	// Execution model
	Leverage    float64
	MarginRatio float64
	Spread      float64
	StopPolicy  string
	Trigger     string

	// Price range covered
	Start time.Time
	End   time.Time

	// Results
	Trades  int
	Wins    int
	Losses  int
	Skipped int

	// account info
	StartBalance float64
	EndBalance   float64

	// Derived / computed in Go
	NetPL        float64
	ReturnPct    float64
	WinRate      float64 // percent
	ProfitFactor float64
	MaxDDPct     float64

	GitCommit string
	OrgPath   string

	Notes       []string
	NextActions []string
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

var backtestOrgFuncs = template.FuncMap{
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var backtestOrgTmpl = template.Must(template.New("backtest").Funcs(backtestOrgFuncs).Parse(BacktestOrgTemplate))

// RenderOrg writes the run as an Org-mode section.
func (v *BacktestRun) RenderOrg(w io.Writer) error {
	if err := backtestOrgTmpl.Execute(w, v); err != nil {
		return fmt.Errorf("render backtest org: %w", err)
	}
	return nil
}

// WriteBacktestOrg renders the run to OrgPath.
func (v *BacktestRun) WriteBacktestOrg() error {
	if v.OrgPath == "" {
		return fmt.Errorf("write backtest org: no org path")
	}
	buf := new(bytes.Buffer)
	if err := v.RenderOrg(buf); err != nil {
		return err
	}
	return os.WriteFile(v.OrgPath, buf.Bytes(), 0644)
}

const BacktestOrgTemplate = `
* BACKTEST: {{.Strategy}} {{.Instrument}} {{if .Timeframe}}{{.Timeframe}}{{else}}(timeframe?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Strategy}}
:TIMEFRAME:   {{if .Timeframe}}{{.Timeframe}}{{else}}(timeframe?){{end}}
:INSTRUMENT:  {{.Instrument}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:START_BAL:   {{printf "%.2f" .StartBalance}}
:END_BAL:     {{printf "%.2f" .EndBalance}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{if ne .MaxDDPct 0.0}}{{printf "%.2f" .MaxDDPct}}{{else}}(max-dd?){{end}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:SKIPPED:     {{.Skipped}}
:WIN_RATE:    {{printf "%.2f" .WinRate}}
:PROFIT_FAC:  {{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Strategy Parameters
| Parameter    | Value |
|--------------+-------|
| Config       | {{printf "%s" .Config}} |
| Leverage     | {{printf "%.0f" .Leverage}} |
| Margin Ratio | {{printf "%.2f" .MarginRatio}} |
| Spread       | {{printf "%g" .Spread}} |
| Stop         | {{.StopPolicy}} |
| Trigger      | {{.Trigger}} |

** Performance Summary
- Net P/L:          *{{printf "%.2f" .NetPL}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Max Drawdown:     *{{if ne .MaxDDPct 0.0}}{{printf "%.2f" .MaxDDPct}}{{else}}(max-dd?){{end}}%*
- Win Rate:         *{{printf "%.2f" .WinRate}}%*
- Profit Factor:    *{{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |

{{- if .Notes }}
** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}

{{- if .NextActions }}
** Notes / Next Actions
{{- range .NextActions }}
- [ ] {{.}}
{{- end }}
{{- end }}
`
