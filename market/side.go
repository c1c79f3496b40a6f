package market

import (
	"fmt"
	"strings"
)

// Side is both the desired signal carried by a bar and the side of the
// account's open position. The zero value is Flat.
type Side int8

const (
	Flat  Side = 0
	Long  Side = 1
	Short Side = -1
)

func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	case Flat:
		return "flat"
	default:
		return fmt.Sprintf("side(%d)", int8(s))
	}
}

// Sign returns +1 for Long, -1 for Short and 0 for Flat.
func (s Side) Sign() float64 {
	return float64(s)
}

func (s Side) Valid() bool {
	return s == Flat || s == Long || s == Short
}

// ParseSide accepts the common spellings found in signal files:
// long/buy/1, short/sell/-1 and flat/none/0 (case-insensitive).
func ParseSide(v string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "long", "buy", "1", "+1":
		return Long, nil
	case "short", "sell", "-1":
		return Short, nil
	case "flat", "none", "0", "":
		return Flat, nil
	default:
		return Flat, fmt.Errorf("unknown signal %q", v)
	}
}

// MarshalText lets sides round trip through YAML, JSON and CSV as words.
func (s Side) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid side %d", int8(s))
	}
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(b []byte) error {
	v, err := ParseSide(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
