package config

import (
	"flag"
	"fmt"
	"time"
)

// Flags holds the global command-line overrides shared by every subcommand.
// Zero values mean "not set"; Apply only touches fields the user provided.
type Flags struct {
	Network string
	DataDir string
	RPCURL  string
	Level   string

	set map[string]bool
}

// Register installs the global flags on a flag set.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Network, "network", "", "network to use (mainnet or testnet)")
	fs.StringVar(&f.DataDir, "datadir", "", "data directory")
	fs.StringVar(&f.RPCURL, "rpc", "", "node JSON-RPC endpoint URL")
	fs.StringVar(&f.Level, "log-level", "", "log level (trace..error)")
}

// Track records which flags were explicitly set. Call after fs.Parse.
func (f *Flags) Track(fs *flag.FlagSet) {
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
}

// Apply overlays explicitly-set flags onto a config.
func (f *Flags) Apply(cfg *Config) {
	if f.set["network"] {
		cfg.Network = NetworkType(f.Network)
	}
	if f.set["datadir"] {
		cfg.DataDir = f.DataDir
	}
	if f.set["rpc"] {
		cfg.RPC.URL = f.RPCURL
	}
	if f.set["log-level"] {
		cfg.Log.Level = f.Level
	}
}

// Load builds the effective configuration: network defaults, then the config
// file, then flag overrides, then validation.
func Load(f *Flags) (*Config, error) {
	network := Mainnet
	if f.set["network"] {
		network = NetworkType(f.Network)
	}
	cfg := Default(network)
	if f.set["datadir"] {
		cfg.DataDir = f.DataDir
	}

	values, err := LoadFile(cfg.ConfigFile())
	if err != nil {
		return nil, fmt.Errorf("load config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, values); err != nil {
		return nil, err
	}

	// Flags beat the file.
	f.Apply(cfg)

	if cfg.RPC.Timeout == 0 {
		cfg.RPC.Timeout = 10 * time.Second
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
