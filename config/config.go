package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rustyeddy/cfdsim/sim"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides: CFDSIM_BROKER_LEVERAGE=10
// replaces broker.leverage from the file.
const EnvPrefix = "CFDSIM"

// Config represents the complete run configuration
type Config struct {
	Account AccountConfig `json:"account" yaml:"account" mapstructure:"account"`
	Broker  sim.Config    `json:"broker" yaml:"broker" mapstructure:"broker" validate:"-"`
	Data    DataConfig    `json:"data" yaml:"data" mapstructure:"data"`
	Journal JournalConfig `json:"journal" yaml:"journal" mapstructure:"journal"`
	Sweep   SweepConfig   `json:"sweep" yaml:"sweep" mapstructure:"sweep"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	ID            string  `json:"id" yaml:"id" mapstructure:"id"`
	Currency      string  `json:"currency" yaml:"currency" mapstructure:"currency" validate:"required"`
	InitialEquity float64 `json:"initial_equity" yaml:"initial_equity" mapstructure:"initial_equity" validate:"gt=0"`
}

// DataConfig points at the bar series. From/To are optional YYYY-MM-DD
// bounds, From inclusive and To exclusive.
type DataConfig struct {
	BarsFile string `json:"bars_file" yaml:"bars_file" mapstructure:"bars_file"`
	From     string `json:"from,omitempty" yaml:"from,omitempty" mapstructure:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `json:"to,omitempty" yaml:"to,omitempty" mapstructure:"to" validate:"omitempty,datetime=2006-01-02"`
}

// Range parses From and To. Empty bounds come back as the zero time.
func (d DataConfig) Range() (from, to time.Time, err error) {
	if d.From != "" {
		if from, err = time.Parse(time.DateOnly, d.From); err != nil {
			return from, to, fmt.Errorf("data.from: %w", err)
		}
	}
	if d.To != "" {
		if to, err = time.Parse(time.DateOnly, d.To); err != nil {
			return from, to, fmt.Errorf("data.to: %w", err)
		}
	}
	return from, to, nil
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type" mapstructure:"type" validate:"oneof=csv sqlite none"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty" mapstructure:"trades_file" validate:"required_if=Type csv"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty" mapstructure:"equity_file" validate:"required_if=Type csv"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty" mapstructure:"db_path" validate:"required_if=Type sqlite"`
}

// SweepConfig lists the grid for `cfdsim sweep`. Workers <= 0 means one
// worker per CPU.
type SweepConfig struct {
	Leverages     []float64 `json:"leverages,omitempty" yaml:"leverages,omitempty" mapstructure:"leverages" validate:"dive,gt=0"`
	StopOutLevels []float64 `json:"stop_out_levels,omitempty" yaml:"stop_out_levels,omitempty" mapstructure:"stop_out_levels" validate:"dive,gte=0,lt=1"`
	Workers       int       `json:"workers,omitempty" yaml:"workers,omitempty" mapstructure:"workers"`
}

type LogConfig struct {
	Level      string `json:"level" yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Production bool   `json:"production" yaml:"production" mapstructure:"production"`
}

// LoadFromFile loads configuration from a YAML or JSON file on top of
// Default(), then applies CFDSIM_* environment overrides and validates.
func LoadFromFile(path string) (*Config, error) {
	def, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("marshal defaults: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(def)); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" || ext == "yml" {
		ext = "yaml"
	}
	v.SetConfigType(ext)
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}()

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return errors.New(message(verrs[0]))
		}
		return err
	}
	if err := c.Broker.Validate(); err != nil {
		return fmt.Errorf("broker: %w", err)
	}
	return nil
}

func message(fe validator.FieldError) string {
	// Namespace is "Config.account.currency"; drop the root type name.
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, strings.Replace(fe.Param(), " ", " is ", 1))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a YYYY-MM-DD date", field)
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:            "SIM-001",
			Currency:      "USD",
			InitialEquity: 10_000,
		},
		Broker: sim.DefaultConfig(),
		Data: DataConfig{
			BarsFile: "./bars.csv",
		},
		Journal: JournalConfig{
			Type:       "sqlite",
			DBPath:     "./cfdsim.sqlite",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
		Sweep: SweepConfig{
			Leverages:     []float64{2, 5, 10, 20},
			StopOutLevels: []float64{0.2, 0.25, 0.3},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
