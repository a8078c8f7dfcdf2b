package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Morgiver/trading-simulator/internal/types"
)

func TestLoadFromBytes(t *testing.T) {
	yaml := []byte(`
simulator:
  initial_balance: 50000
  mode: pips
  fee_rate: 0.0002
  contract_size: 100000
  leverage: 30
replay:
  data_path: data/eurusd.csv
  bars_per_second: 10
persistence:
  enabled: true
  path: tradesim.db
metrics:
  enabled: true
  port: 9191
`)

	cfg, err := LoadFromBytes(yaml)
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if cfg.Simulator.InitialBalance != 50000 {
		t.Errorf("InitialBalance = %v, want 50000", cfg.Simulator.InitialBalance)
	}
	if cfg.Simulator.Mode != "pips" {
		t.Errorf("Mode = %q, want pips", cfg.Simulator.Mode)
	}
	if cfg.Simulator.Leverage != 30 {
		t.Errorf("Leverage = %v, want 30", cfg.Simulator.Leverage)
	}
	if cfg.Replay.DataPath != "data/eurusd.csv" {
		t.Errorf("DataPath = %q", cfg.Replay.DataPath)
	}
	if !cfg.Persistence.Enabled || cfg.Persistence.Path != "tradesim.db" {
		t.Errorf("Persistence = %+v", cfg.Persistence)
	}
	if cfg.Metrics.Port != 9191 {
		t.Errorf("Metrics.Port = %d, want 9191", cfg.Metrics.Port)
	}
	// Unset fields fall back to defaults.
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want default /metrics", cfg.Metrics.Path)
	}
	if cfg.Simulator.PipPosition != 4 {
		t.Errorf("PipPosition = %d, want default 4", cfg.Simulator.PipPosition)
	}
}

func TestLoadFromBytes_ExpandsEnv(t *testing.T) {
	t.Setenv("TRADESIM_DB_PATH", "/tmp/journal.db")

	cfg, err := LoadFromBytes([]byte(`
persistence:
  enabled: true
  path: ${TRADESIM_DB_PATH}
`))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}
	if cfg.Persistence.Path != "/tmp/journal.db" {
		t.Errorf("Path = %q, want /tmp/journal.db", cfg.Persistence.Path)
	}
}

func TestLoadFromBytes_InvalidYAML(t *testing.T) {
	if _, err := LoadFromBytes([]byte("simulator: [not a map")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("simulator:\n  mode: ticks\n  tick_size: 0.25\n  tick_value: 12.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Simulator.Mode != "ticks" || cfg.Simulator.TickSize != 0.25 {
		t.Errorf("simulator = %+v", cfg.Simulator)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"negative balance", func(c *Config) { c.Simulator.InitialBalance = -1 }, true},
		{"bad mode", func(c *Config) { c.Simulator.Mode = "crypto" }, true},
		{"negative fee rate", func(c *Config) { c.Simulator.FeeRate = -0.001 }, true},
		{"zero leverage", func(c *Config) { c.Simulator.Leverage = 0 }, true},
		{"ticks without tick size", func(c *Config) { c.Simulator.Mode = "ticks"; c.Simulator.TickSize = 0 }, true},
		{"pips without contract size", func(c *Config) { c.Simulator.Mode = "pips"; c.Simulator.ContractSize = 0 }, true},
		{"negative replay rate", func(c *Config) { c.Replay.BarsPerSecond = -1 }, true},
		{"persistence without path", func(c *Config) { c.Persistence.Enabled = true }, true},
		{"bad metrics port", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Port = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, types.ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want types.Mode
	}{
		{"fiat", types.ModeFiat},
		{"TICKS", types.ModeTicks},
		{" pips ", types.ModePips},
		{"Points", types.ModePoints},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if err != nil {
			t.Errorf("ParseMode(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseMode("margin"); !errors.Is(err, types.ErrUnknownMode) {
		t.Errorf("error = %v, want ErrUnknownMode", err)
	}
}

func TestToSimConfig(t *testing.T) {
	cfg := Default()
	cfg.Simulator.Mode = "ticks"
	cfg.Simulator.FeeRate = 0.001

	simCfg, err := cfg.ToSimConfig()
	if err != nil {
		t.Fatalf("ToSimConfig failed: %v", err)
	}
	if simCfg.Mode != types.ModeTicks {
		t.Errorf("Mode = %v, want ticks", simCfg.Mode)
	}
	if simCfg.FeeRate.String() != "0.001" {
		t.Errorf("FeeRate = %s, want 0.001", simCfg.FeeRate)
	}
	if simCfg.InitialBalance.String() != "10000" {
		t.Errorf("InitialBalance = %s, want 10000", simCfg.InitialBalance)
	}

	cfg.Simulator.Mode = "bogus"
	if _, err := cfg.ToSimConfig(); err == nil {
		t.Error("expected error for bogus mode")
	}
}
