package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tessera.conf")
	content := `# comment
network = testnet
rpc.url = "http://node.example:9000"
rpc.timeout = 30s
sync.start = 12345
sync.poll = 2s
log.level = debug
log.json = true
unknown.key = ignored
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	values, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultMainnet()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatal(err)
	}

	if cfg.Network != Testnet {
		t.Errorf("network = %q", cfg.Network)
	}
	if cfg.RPC.URL != "http://node.example:9000" {
		t.Errorf("rpc url = %q", cfg.RPC.URL)
	}
	if cfg.RPC.Timeout != 30*time.Second {
		t.Errorf("rpc timeout = %v", cfg.RPC.Timeout)
	}
	if cfg.Sync.StartHeight != 12345 {
		t.Errorf("start height = %d", cfg.Sync.StartHeight)
	}
	if cfg.Sync.PollInterval != 2*time.Second {
		t.Errorf("poll = %v", cfg.Sync.PollInterval)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.JSON {
		t.Errorf("log = %+v", cfg.Log)
	}
}

func TestLoadFileMissing(t *testing.T) {
	values, err := LoadFile(filepath.Join(t.TempDir(), "nope.conf"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(values) != 0 {
		t.Fatalf("missing file produced %d values", len(values))
	}
}

func TestWriteDefaultConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tessera.conf")
	if err := WriteDefaultConfig(path, Testnet); err != nil {
		t.Fatal(err)
	}
	values, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultMainnet()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatal(err)
	}
	if cfg.Network != Testnet {
		t.Errorf("network = %q", cfg.Network)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("generated default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	good := DefaultMainnet()
	if err := good.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad network", func(c *Config) { c.Network = "devnet" }},
		{"empty datadir", func(c *Config) { c.DataDir = "" }},
		{"empty rpc url", func(c *Config) { c.RPC.URL = "" }},
		{"bad scheme", func(c *Config) { c.RPC.URL = "ftp://x" }},
		{"zero poll", func(c *Config) { c.Sync.PollInterval = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultMainnet()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("invalid config accepted")
			}
		})
	}
}

func TestFlagOverrides(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var f Flags
	f.Register(fs)
	if err := fs.Parse([]string{"-network", "testnet", "-rpc", "http://override:1234"}); err != nil {
		t.Fatal(err)
	}
	f.Track(fs)

	cfg := DefaultMainnet()
	f.Apply(cfg)
	if cfg.Network != Testnet {
		t.Errorf("network not overridden: %q", cfg.Network)
	}
	if cfg.RPC.URL != "http://override:1234" {
		t.Errorf("rpc url not overridden: %q", cfg.RPC.URL)
	}
	// Unset flags must not clobber.
	if cfg.DataDir != DefaultDataDir() {
		t.Errorf("datadir clobbered: %q", cfg.DataDir)
	}
}

func TestNetworkParams(t *testing.T) {
	if NetworkParams(Mainnet).AddressHRP != "tsa" {
		t.Error("mainnet hrp")
	}
	if NetworkParams(Testnet).AddressHRP != "ttsa" {
		t.Error("testnet hrp")
	}
	if NetworkParams("bogus").AddressHRP != "tsa" {
		t.Error("unknown network should fall back to mainnet")
	}
}
