// Package config handles client configuration.
//
// Configuration is split into two categories:
//   - Chain parameters: per-network constants (address encoding, lock code
//     hash), immutable, must match the node
//   - Client settings: runtime configuration loaded from file and flags
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Config holds client runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Node RPC endpoint
	RPC RPCConfig

	// Index synchronization
	Sync SyncConfig

	// Logging
	Log LogConfig
}

// RPCConfig holds node endpoint settings.
type RPCConfig struct {
	URL     string        `conf:"rpc.url"`
	Timeout time.Duration `conf:"rpc.timeout"`
}

// SyncConfig holds index synchronization settings.
type SyncConfig struct {
	// StartHeight is where a fresh index begins. Existing indexes resume
	// from their checkpoint regardless.
	StartHeight uint64 `conf:"sync.start"`
	// PollInterval is the sleep between tip checks once caught up.
	PollInterval time.Duration `conf:"sync.poll"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.tessera
//	macOS:   ~/Library/Application Support/Tessera
//	Windows: %APPDATA%\Tessera
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tessera"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Tessera")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Tessera")
		}
		return filepath.Join(home, "AppData", "Roaming", "Tessera")
	default:
		return filepath.Join(home, ".tessera")
	}
}

// ChainDataDir returns the network-specific data directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// IndexDir returns the cell index database directory.
func (c *Config) IndexDir() string {
	return filepath.Join(c.ChainDataDir(), "index")
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.ChainDataDir(), "keystore")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "tessera.conf")
}
