package journal

import (
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
)

// RunRecord mirrors the runs table: one row per simulation.
type RunRecord struct {
	RunID   string
	Created time.Time
	Dataset string
	Config  []byte // broker terms as JSON

	// Bar range covered by the run
	Start time.Time
	End   time.Time
	Bars  int

	// Results
	Trades int
	Wins   int
	Losses int

	StartEquity float64
	EndEquity   float64

	// Derived / computed in Go
	NetPL        float64
	ReturnPct    float64
	WinRate      float64 // 0..1
	ProfitFactor float64
	MaxDDPct     float64
	Sharpe       float64

	StopOuts         int
	MarginCalls      int
	SwapFees         float64
	FXFees           float64
	ProtectionCredit float64

	Notes []string
}

var runOrgFuncs = template.FuncMap{
	"mul100": func(x float64) float64 { return x * 100.0 },
	"money":  money,
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var runOrgTemplate = template.Must(template.New("run").Funcs(runOrgFuncs).Parse(RunOrgTemplate))

// WriteOrg renders the run as an Org-mode report.
func (r *RunRecord) WriteOrg(w io.Writer) error {
	if err := runOrgTemplate.Execute(w, r); err != nil {
		return fmt.Errorf("render run %s: %w", r.RunID, err)
	}
	return nil
}

// WriteOrgFile writes the Org report to path.
func (r *RunRecord) WriteOrgFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.WriteOrg(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// money renders a cash amount with two decimals, rounding half away from
// zero.
func money(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(2)
}

const RunOrgTemplate = `* RUN: CFD simulation {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:BARS:        {{.Bars}}
:START_EQ:    {{money .StartEquity}}
:END_EQ:      {{money .EndEquity}}
:NET_PL:      {{money .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDDPct}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" (mul100 .WinRate)}}
:PROFIT_FAC:  {{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}
:STOP_OUTS:   {{.StopOuts}}
:MARGIN_CALLS: {{.MarginCalls}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Broker Terms
{{- if .Config }}
#+begin_src json
{{printf "%s" .Config}}
#+end_src
{{- else }}
# (no config recorded)
{{- end }}

** Performance Summary
- Net P/L:          *{{money .NetPL}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Max Drawdown:     *{{printf "%.2f" .MaxDDPct}}%*
- Win Rate:         *{{printf "%.2f" (mul100 .WinRate)}}%*
- Profit Factor:    *{{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}*
- Sharpe:           *{{printf "%.2f" .Sharpe}}*

** Costs
| Item              | Amount |
|-------------------+--------|
| Swap fees         | {{money .SwapFees}} |
| FX fees           | {{money .FXFees}} |
| Protection credit | {{money .ProtectionCredit}} |

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
`
