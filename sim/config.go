package sim

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidConfig = errors.New("invalid simulator config")
	ErrInvalidEquity = errors.New("initial equity must be positive and finite")
	ErrInvalidPrice  = errors.New("bar price must be positive and finite")
	ErrInvalidSignal = errors.New("bar signal must be long, short or flat")
)

// Config holds the broker terms for a run. Rates are fractions: a
// SwapLongRate of -0.0002 charges 2 bps of exposure per bar held long.
type Config struct {
	Leverage         float64 `json:"leverage" yaml:"leverage" mapstructure:"leverage" validate:"gt=0"`
	FXFeeRate        float64 `json:"fx_fee_rate" yaml:"fx_fee_rate" mapstructure:"fx_fee_rate" validate:"gte=0"`
	SwapLongRate     float64 `json:"swap_long_rate" yaml:"swap_long_rate" mapstructure:"swap_long_rate"`
	SwapShortRate    float64 `json:"swap_short_rate" yaml:"swap_short_rate" mapstructure:"swap_short_rate"`
	SpreadBps        float64 `json:"spread_bps" yaml:"spread_bps" mapstructure:"spread_bps" validate:"gte=0"`
	MarginCallLevel  float64 `json:"margin_call_level" yaml:"margin_call_level" mapstructure:"margin_call_level" validate:"gt=0,lt=1,gtfield=StopOutLevel"`
	StopOutLevel     float64 `json:"stop_out_level" yaml:"stop_out_level" mapstructure:"stop_out_level" validate:"gte=0"`
	PositionFraction float64 `json:"position_fraction" yaml:"position_fraction" mapstructure:"position_fraction" validate:"gt=0,lte=1"`
}

// DefaultConfig mirrors a typical retail CFD account: 1:5 leverage,
// 45% margin call, 25% stop-out.
func DefaultConfig() Config {
	return Config{
		Leverage:         5,
		FXFeeRate:        0.005,
		SwapLongRate:     -0.0002,
		SwapShortRate:    -0.0001,
		SpreadBps:        2,
		MarginCallLevel:  0.45,
		StopOutLevel:     0.25,
		PositionFraction: 0.2,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate rejects configs the per-bar loop cannot run with. Every error
// wraps ErrInvalidConfig.
func (c Config) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"leverage", c.Leverage},
		{"fx_fee_rate", c.FXFeeRate},
		{"swap_long_rate", c.SwapLongRate},
		{"swap_short_rate", c.SwapShortRate},
		{"spread_bps", c.SpreadBps},
		{"margin_call_level", c.MarginCallLevel},
		{"stop_out_level", c.StopOutLevel},
		{"position_fraction", c.PositionFraction},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrInvalidConfig, f.name)
		}
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, describe(verrs[0]))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be greater than stop_out_level", fe.Field())
	default:
		return fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
	}
}
