// Package config loads tool configuration. Values are resolved in priority
// order:
//  1. Default values
//  2. Configuration file (TOML)
//  3. Environment variables (XRPLBENCH_ prefix)
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Network is one submittable XRPL network.
type Network struct {
	// Endpoint is the node's websocket URL.
	Endpoint string `mapstructure:"endpoint"`
}

// Config is the full tool configuration.
type Config struct {
	// Network selects the active network; must be a key of Networks.
	Network string `mapstructure:"network"`

	// Networks maps network names to their endpoints.
	Networks map[string]Network `mapstructure:"networks"`

	// DataDir holds the workspace store and the run-history database.
	DataDir string `mapstructure:"data_dir"`

	// Listen is the bind address of the UI-facing server.
	Listen string `mapstructure:"listen"`

	// LastLedgerOffset bounds pending submissions: when a test does not set
	// LastLedgerSequence it becomes the validated ledger index plus this.
	LastLedgerOffset uint32 `mapstructure:"last_ledger_offset"`

	// DefinitionsFile optionally overrides the embedded field catalog.
	DefinitionsFile string `mapstructure:"definitions_file"`
}

// Endpoint returns the websocket URL of the selected network.
func (c *Config) Endpoint() string {
	return c.Networks[c.Network].Endpoint
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("network", "testnet")
	v.SetDefault("networks.mainnet.endpoint", "wss://xrplcluster.com")
	v.SetDefault("networks.testnet.endpoint", "wss://s.altnet.rippletest.net:51233")
	v.SetDefault("networks.devnet.endpoint", "wss://s.devnet.rippletest.net:51233")
	v.SetDefault("data_dir", "xrplbench-data")
	v.SetDefault("listen", ":8080")
	v.SetDefault("last_ledger_offset", 20)
}

// Load reads configuration. An empty path skips the file layer; a non-empty
// path must name an existing file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("XRPLBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Network == "" {
		return fmt.Errorf("network must be set")
	}
	net, ok := cfg.Networks[cfg.Network]
	if !ok {
		return fmt.Errorf("unknown network %q", cfg.Network)
	}
	if net.Endpoint == "" {
		return fmt.Errorf("network %q has no endpoint", cfg.Network)
	}
	if cfg.LastLedgerOffset == 0 {
		return fmt.Errorf("last_ledger_offset must be positive")
	}
	return nil
}
