package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rustyeddy/cfdsim/sim"
)

// Recorder counts simulation outcomes on its own registry so a process can
// run several without clashing with the default one.
type Recorder struct {
	reg *prometheus.Registry

	runs        prometheus.Counter
	trades      *prometheus.CounterVec
	stopOuts    prometheus.Counter
	marginCalls prometheus.Counter
	drawdown    prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cfdsim_runs_total",
			Help: "Completed simulation runs.",
		}),
		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cfdsim_trades_total",
			Help: "Closed trades by close reason.",
		}, []string{"reason"}),
		stopOuts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cfdsim_stop_outs_total",
			Help: "Forced liquidations.",
		}),
		marginCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cfdsim_margin_calls_total",
			Help: "Bars that ended below the margin call level.",
		}),
		drawdown: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cfdsim_max_drawdown_ratio",
			Help:    "Maximum drawdown of each run as a fraction of the peak.",
			Buckets: prometheus.LinearBuckets(0.05, 0.05, 20),
		}),
	}
	r.reg.MustRegister(r.runs, r.trades, r.stopOuts, r.marginCalls, r.drawdown)
	return r
}

// Registry exposes the recorder's metrics for gathering or serving.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Observe adds one finished run.
func (r *Recorder) Observe(res sim.Result) {
	r.runs.Inc()
	for _, t := range res.Trades {
		r.trades.WithLabelValues(string(t.Reason)).Inc()
	}
	r.stopOuts.Add(float64(res.StopOutEvents))
	r.marginCalls.Add(float64(res.MarginCallEvents))
	r.drawdown.Observe(res.MaxDrawdown)
}

// WriteTextfile dumps the current values in the text exposition format,
// for node_exporter's textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
