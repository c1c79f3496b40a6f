package sim

// MaxDrawdown returns the largest peak-to-trough decline of an equity curve
// as a ratio of the running peak, in [0, 1]. An empty curve has no drawdown.
// Non-positive peaks are skipped since a ratio against them is meaningless.
func MaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}

	peak := equity[0]
	var maxDD float64
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - e) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return clamp(maxDD, 0, 1)
}
