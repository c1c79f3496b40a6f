package sim

// MarginStatus maps free equity and the margin locked by the open position
// to a broker-style 0..100 percentage. 100 means no margin in use, 50 means
// equity equals margin, 0 means equity is exhausted.
//
// Above 50 the status is 100*e/(e+m); below it switches to 50*e/m so the
// curve stays continuous at 50 and reaches 0 as equity reaches 0.
func MarginStatus(equity, margin float64) float64 {
	if margin <= 0 {
		return 100
	}
	if equity <= 0 {
		return 0
	}

	above := 100 * equity / (equity + margin)
	if above >= 50 {
		return clamp(above, 0, 100)
	}
	return clamp(50*equity/margin, 0, 100)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
