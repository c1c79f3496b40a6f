package risk

import "fmt"

const (
	CodeNoMargin         = "NO_MARGIN"
	CodeInsufficientCash = "INSUFFICIENT_CASH"
)

type Violation struct {
	Code string
	Msg  string
}

// Decision is the outcome of a pre-trade check. A rejected open is a normal
// outcome for the simulator, not an error.
type Decision struct {
	Allowed    bool
	Violations []Violation
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Code of the first violation, empty when allowed.
func (d Decision) Code() string {
	if len(d.Violations) == 0 {
		return ""
	}
	return d.Violations[0].Code
}

// CheckOpen gates a sized position against the free cash that has to
// fund its margin.
func CheckOpen(size Result, freeCash float64) Decision {
	d := Decision{Allowed: true}

	if size.Margin <= 0 || size.Quantity <= 0 {
		d.add(CodeNoMargin, "sized margin must be positive")
		return d
	}
	if size.Margin > freeCash {
		d.add(CodeInsufficientCash,
			fmt.Sprintf("margin %.2f exceeds free cash %.2f", size.Margin, freeCash))
	}
	return d
}
