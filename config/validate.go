package config

import (
	"fmt"
	"net/url"
)

// Validate checks a configuration for values the client cannot run with.
func (c *Config) Validate() error {
	switch c.Network {
	case Mainnet, Testnet:
	default:
		return fmt.Errorf("unknown network %q (expected mainnet or testnet)", c.Network)
	}

	if c.DataDir == "" {
		return fmt.Errorf("datadir must not be empty")
	}

	if c.RPC.URL == "" {
		return fmt.Errorf("rpc.url must not be empty")
	}
	u, err := url.Parse(c.RPC.URL)
	if err != nil {
		return fmt.Errorf("rpc.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("rpc.url: unsupported scheme %q", u.Scheme)
	}
	if c.RPC.Timeout < 0 {
		return fmt.Errorf("rpc.timeout must not be negative")
	}

	if c.Sync.PollInterval <= 0 {
		return fmt.Errorf("sync.poll must be positive")
	}

	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}

	return nil
}
