package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rustyeddy/cfdsim/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() sim.Result {
	return sim.Result{
		Trades: []sim.Trade{
			{Reason: sim.ReasonSignal},
			{Reason: sim.ReasonFlip},
			{Reason: sim.ReasonStopOut},
			{Reason: sim.ReasonSignal},
		},
		StopOutEvents:    1,
		MarginCallEvents: 3,
		MaxDrawdown:      0.42,
	}
}

func TestObserve(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.Observe(sampleResult())
	r.Observe(sim.Result{MaxDrawdown: 0.1})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.runs))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.trades.WithLabelValues("signal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.trades.WithLabelValues("flip")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.trades.WithLabelValues("stop-out")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stopOuts))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.marginCalls))

	families, err := r.Registry().Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() != "cfdsim_max_drawdown_ratio" {
			continue
		}
		found = true
		h := mf.GetMetric()[0].GetHistogram()
		assert.Equal(t, uint64(2), h.GetSampleCount())
		assert.InDelta(t, 0.52, h.GetSampleSum(), 1e-9)
	}
	assert.True(t, found)
}

func TestRecordersAreIndependent(t *testing.T) {
	t.Parallel()

	a, b := NewRecorder(), NewRecorder()
	a.Observe(sampleResult())
	assert.Equal(t, 1.0, testutil.ToFloat64(a.runs))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.runs))
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.Observe(sampleResult())

	path := filepath.Join(t.TempDir(), "cfdsim.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "cfdsim_runs_total 1")
	assert.Contains(t, out, `cfdsim_trades_total{reason="signal"} 2`)
	assert.Contains(t, out, "cfdsim_max_drawdown_ratio_count 1")
}
