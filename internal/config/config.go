// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Morgiver/trading-simulator/internal/sim"
	"github.com/Morgiver/trading-simulator/internal/types"
)

// Config represents the full application configuration.
type Config struct {
	Simulator   SimulatorConfig   `yaml:"simulator"`
	Replay      ReplayConfig      `yaml:"replay"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// SimulatorConfig holds the simulator construction parameters.
type SimulatorConfig struct {
	InitialBalance float64 `yaml:"initial_balance"`
	Mode           string  `yaml:"mode"` // fiat | ticks | pips | points
	FeeRate        float64 `yaml:"fee_rate"`
	FixedFee       float64 `yaml:"fixed_fee"`
	MinFee         float64 `yaml:"min_fee"`
	MaxFee         float64 `yaml:"max_fee"` // 0 = uncapped
	TickSize       float64 `yaml:"tick_size"`
	TickValue      float64 `yaml:"tick_value"`
	PipPosition    int     `yaml:"pip_position"`
	ContractSize   float64 `yaml:"contract_size"`
	Leverage       float64 `yaml:"leverage"`
}

// ReplayConfig holds candle replay settings.
type ReplayConfig struct {
	DataPath      string  `yaml:"data_path"`
	BarsPerSecond float64 `yaml:"bars_per_second"` // 0 = unthrottled
}

// PersistenceConfig holds trade journal settings.
type PersistenceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MetricsConfig holds metrics server settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes. Environment
// variables referenced in the file are expanded first.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in defaults: fee-free FIAT simulation with
// 10000 starting balance and no leverage.
func Default() Config {
	return Config{
		Simulator: SimulatorConfig{
			InitialBalance: 10000,
			Mode:           "fiat",
			TickSize:       0.01,
			TickValue:      1.0,
			PipPosition:    4,
			ContractSize:   100000,
			Leverage:       1.0,
		},
		Metrics: MetricsConfig{
			Port: 9090,
			Path: "/metrics",
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Simulator.InitialBalance < 0 {
		errs = append(errs, "simulator.initial_balance must not be negative")
	}
	if _, err := ParseMode(c.Simulator.Mode); err != nil {
		errs = append(errs, fmt.Sprintf("simulator.mode '%s' is not supported", c.Simulator.Mode))
	}
	if c.Simulator.FeeRate < 0 {
		errs = append(errs, "simulator.fee_rate must not be negative")
	}
	if c.Simulator.Leverage <= 0 {
		errs = append(errs, "simulator.leverage must be positive")
	}
	if c.Simulator.Mode == "ticks" && c.Simulator.TickSize <= 0 {
		errs = append(errs, "simulator.tick_size must be positive in ticks mode")
	}
	if c.Simulator.Mode == "pips" && c.Simulator.ContractSize <= 0 {
		errs = append(errs, "simulator.contract_size must be positive in pips mode")
	}

	if c.Replay.BarsPerSecond < 0 {
		errs = append(errs, "replay.bars_per_second must not be negative")
	}

	if c.Persistence.Enabled && c.Persistence.Path == "" {
		errs = append(errs, "persistence.path is required when persistence is enabled")
	}

	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		errs = append(errs, "metrics.port must be a valid port")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", types.ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}

// ParseMode converts a mode name to its enum value.
func ParseMode(s string) (types.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fiat":
		return types.ModeFiat, nil
	case "ticks":
		return types.ModeTicks, nil
	case "pips":
		return types.ModePips, nil
	case "points":
		return types.ModePoints, nil
	default:
		return 0, fmt.Errorf("%w: %q", types.ErrUnknownMode, s)
	}
}

// ToSimConfig converts to sim.Config with decimal values.
func (c *Config) ToSimConfig() (sim.Config, error) {
	mode, err := ParseMode(c.Simulator.Mode)
	if err != nil {
		return sim.Config{}, err
	}

	return sim.Config{
		InitialBalance: decimal.NewFromFloat(c.Simulator.InitialBalance),
		Mode:           mode,
		FeeRate:        decimal.NewFromFloat(c.Simulator.FeeRate),
		FixedFee:       decimal.NewFromFloat(c.Simulator.FixedFee),
		MinFee:         decimal.NewFromFloat(c.Simulator.MinFee),
		MaxFee:         decimal.NewFromFloat(c.Simulator.MaxFee),
		TickSize:       decimal.NewFromFloat(c.Simulator.TickSize),
		TickValue:      decimal.NewFromFloat(c.Simulator.TickValue),
		PipPosition:    c.Simulator.PipPosition,
		ContractSize:   decimal.NewFromFloat(c.Simulator.ContractSize),
		Leverage:       decimal.NewFromFloat(c.Simulator.Leverage),
	}, nil
}
