package sim

// Account is the money side of a simulation. Equity and margin status are
// derived from it together with the open position and are never stored.
type Account struct {
	FreeCash   float64
	MarginUsed float64
	RealizedPL float64
	SwapTotal  float64
	FXTotal    float64

	// Losses absorbed by negative-balance protection.
	ProtectionCredit float64
}

// settle books delta into free cash and clamps the balance at zero. Every
// cash movement that can be negative (closes, stop-outs, financing) goes
// through here. It returns the amount written off, if any.
func (a *Account) settle(delta float64) float64 {
	a.FreeCash += delta
	if a.FreeCash >= 0 {
		return 0
	}
	credit := -a.FreeCash
	a.FreeCash = 0
	a.ProtectionCredit += credit
	return credit
}
