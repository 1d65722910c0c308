package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads client configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key = value
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a client config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(value)
	case "datadir":
		cfg.DataDir = value

	// Node RPC
	case "rpc.url", "rpc":
		cfg.RPC.URL = value
	case "rpc.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.RPC.Timeout = d

	// Sync
	case "sync.start":
		h, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Sync.StartHeight = h
	case "sync.poll":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Sync.PollInterval = d

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WriteDefaultConfig writes a default client configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	content := `# Tessera Client Configuration

# Network: mainnet or testnet
network = ` + string(network) + `

# Data directory (default: ~/.tessera)
# datadir = ~/.tessera

# ============================================================================
# Node RPC
# ============================================================================

rpc.url = ` + defaultRPCURL(network) + `
# rpc.timeout = 10s

# ============================================================================
# Index Synchronization
# ============================================================================

# Height a fresh index starts from (an existing index resumes from its
# checkpoint regardless)
# sync.start = 0

# Sleep between tip checks once caught up
# sync.poll = 4s

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}

func defaultRPCURL(network NetworkType) string {
	if network == Testnet {
		return "http://127.0.0.1:8645"
	}
	return "http://127.0.0.1:8545"
}
