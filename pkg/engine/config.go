package engine

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"clamm/pkg/lending"
)

// PoolDefaults holds the fee parameters a pool gets when a host omits
// explicit overrides at CreatePool time, loadable the same way lending's
// risk parameters are.
type PoolDefaults struct {
	ProtocolFeeBps uint16 `yaml:"protocol_fee_bps"`
	LPFeeBps       uint16 `yaml:"lp_fee_bps"`
}

// Config holds the engine-wide defaults applied to every pool and reserve
// created without explicit overrides. It can be constructed in code via
// DefaultConfig or loaded from a YAML file via LoadConfig, following the
// load/normalize/validate shape the lending-daemon config in the wider
// pack uses.
type Config struct {
	Lending lending.Config `yaml:"lending"`
	Pool    PoolDefaults   `yaml:"pool"`
}

// DefaultConfig returns the engine's out-of-the-box configuration.
func DefaultConfig() Config {
	return Config{
		Lending: lending.DefaultConfig(),
		Pool:    PoolDefaults{ProtocolFeeBps: 0, LPFeeBps: 30},
	}
}

// LoadConfig reads engine-wide defaults from a YAML file at path, seeding
// unset fields from DefaultConfig before decoding so a config file only
// needs to list the values it wants to override.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, fmt.Errorf("config path required")
	}
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.Pool.LPFeeBps+cfg.Pool.ProtocolFeeBps >= 10000 {
		return fmt.Errorf("pool.lp_fee_bps + pool.protocol_fee_bps must be below 10000")
	}
	if cfg.Lending.DefaultLiquidationThreshold <= 0 {
		return fmt.Errorf("lending.default_liquidation_threshold must be positive")
	}
	if cfg.Lending.DefaultLoanToValue <= 0 || cfg.Lending.DefaultLoanToValue > 1 {
		return fmt.Errorf("lending.default_loan_to_value must be in (0, 1]")
	}
	return nil
}
