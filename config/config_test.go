// Copyright (c) 2026 The AgentRent developers
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// DefaultConfig tests
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.CustodyNetwork != "mainnet" {
		t.Errorf("CustodyNetwork = %q, want %q", cfg.CustodyNetwork, "mainnet")
	}
	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
	if !strings.HasSuffix(cfg.DataDir, ".agentrent") {
		t.Errorf("DataDir = %q, want suffix %q", cfg.DataDir, ".agentrent")
	}

	// Everything service-shaped is off by default.
	if cfg.RentalEnabled() {
		t.Error("RentalEnabled should be false by default")
	}
	if cfg.UploadEnabled() {
		t.Error("UploadEnabled should be false by default")
	}
	if cfg.CustodyEnabled() {
		t.Error("CustodyEnabled should be false by default")
	}
}

// ---------------------------------------------------------------------------
// SaveConfig / LoadConfig round-trip tests
// ---------------------------------------------------------------------------

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	original := Config{
		DataDir:        "/tmp/test-agentrent",
		LedgerRPCURL:   "http://localhost:8545",
		LedgerContract: "0x4444444444444444444444444444444444444444",
		ChainID:        1337,
		ChainAccount:   "0x1111111111111111111111111111111111111111",
		CustodyNodes:   []string{"https://custody-a.example.com", "https://custody-b.example.com"},
		CustodyNetwork: "testnet",
		StoreAPIURL:    "https://pin.example.com/upload",
		StoreAPIKey:    "secret",
		StoreGateways:  []string{"https://gw1.example.com", "https://gw2.example.com"},
		DNSUpstream:    "8.8.8.8:53",
		LogLevel:       "debug",
	}

	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if !reflect.DeepEqual(loaded, original) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, original)
	}
}

func TestSaveConfigCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config")

	cfg := DefaultConfig()
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig should create parent dirs: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Config file not created: %v", err)
	}
}

// ---------------------------------------------------------------------------
// LoadConfig error tests
// ---------------------------------------------------------------------------

func TestLoadConfigNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig nonexistent: got %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigInvalidLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := "this-is-not-key-value\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalidConfigLine) {
		t.Errorf("LoadConfig bad line: got %v, want ErrInvalidConfigLine", err)
	}
}

func TestLoadConfigBadChainID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	if err := os.WriteFile(path, []byte("chainid = not-a-number\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalidChainID) {
		t.Errorf("LoadConfig bad chainid: got %v, want ErrInvalidChainID", err)
	}
}

func TestLoadConfigCommentsAndBlanks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := `# This is a comment
custodynetwork = testnet

# Another comment
loglevel = debug
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.CustodyNetwork != "testnet" {
		t.Errorf("CustodyNetwork = %q, want %q", cfg.CustodyNetwork, "testnet")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	// Unset fields should retain defaults.
	if cfg.DataDir == "" {
		t.Error("DataDir should keep its default")
	}
}

func TestLoadConfigUnknownKeysIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := "futurekey = futurevalue\ncustodynetwork = testnet\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig with unknown key: %v", err)
	}
	if cfg.CustodyNetwork != "testnet" {
		t.Errorf("CustodyNetwork = %q, want %q", cfg.CustodyNetwork, "testnet")
	}
}

// ---------------------------------------------------------------------------
// LoadConfig parser edge cases
// ---------------------------------------------------------------------------

func TestLoadConfig_MultipleEquals(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	// The value contains an extra '='; parseKeyValue splits on the first only.
	content := "storeapikey=abc=def\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.StoreAPIKey != "abc=def" {
		t.Errorf("StoreAPIKey = %q, want %q", cfg.StoreAPIKey, "abc=def")
	}
}

func TestLoadConfig_WhitespaceAroundEquals(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := "  custodynetwork = testnet  \n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.CustodyNetwork != "testnet" {
		t.Errorf("CustodyNetwork = %q, want %q", cfg.CustodyNetwork, "testnet")
	}
}

func TestLoadConfig_ListValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := "storegateways = https://a.example.com, https://b.example.com,\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if !reflect.DeepEqual(cfg.StoreGateways, want) {
		t.Errorf("StoreGateways = %v, want %v", cfg.StoreGateways, want)
	}
}

// ---------------------------------------------------------------------------
// SaveConfig output format
// ---------------------------------------------------------------------------

func TestSaveConfig_OutputContainsHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "# AgentRent Configuration") {
		t.Error("saved config should contain header '# AgentRent Configuration'")
	}
}

func TestSaveConfig_OutputContainsAllKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)

	keys := []string{
		"datadir", "ledgerrpc", "ledgercontract", "chainid", "chainaccount",
		"custodynodes", "custodynetwork", "storeapi", "storeapikey",
		"storegateways", "dnsupstream", "loglevel",
	}
	for _, key := range keys {
		if !strings.Contains(content, key+" = ") {
			t.Errorf("saved config should contain key %q", key)
		}
	}
}

// ---------------------------------------------------------------------------
// Environment overlay tests
// ---------------------------------------------------------------------------

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AGENTRENT_LEDGER_RPC", "http://localhost:8545")
	t.Setenv("AGENTRENT_CHAIN_ID", "1337")
	t.Setenv("AGENTRENT_CUSTODY_NODES", "https://a.example.com,https://b.example.com")

	cfg, err := LoadFromEnv(DefaultConfig())
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.LedgerRPCURL != "http://localhost:8545" {
		t.Errorf("LedgerRPCURL = %q", cfg.LedgerRPCURL)
	}
	if cfg.ChainID != 1337 {
		t.Errorf("ChainID = %d, want 1337", cfg.ChainID)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if !reflect.DeepEqual(cfg.CustodyNodes, want) {
		t.Errorf("CustodyNodes = %v, want %v", cfg.CustodyNodes, want)
	}
	// Untouched fields keep their input values.
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoadFromEnvBadChainID(t *testing.T) {
	t.Setenv("AGENTRENT_CHAIN_ID", "nope")

	_, err := LoadFromEnv(DefaultConfig())
	if !errors.Is(err, ErrInvalidChainID) {
		t.Errorf("LoadFromEnv bad chain id: got %v, want ErrInvalidChainID", err)
	}
}

// ---------------------------------------------------------------------------
// ValidateConfig tests
// ---------------------------------------------------------------------------

func TestValidateConfigDefaults(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Errorf("ValidateConfig(DefaultConfig()) = %v, want nil", err)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:    "empty_datadir",
			modify:  func(c *Config) { c.DataDir = "" },
			wantErr: ErrEmptyDataDir,
		},
		{
			name:    "bad_loglevel",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "bad_contract",
			modify:  func(c *Config) { c.LedgerContract = "not-an-address" },
			wantErr: ErrInvalidContract,
		},
		{
			name:    "bad_account",
			modify:  func(c *Config) { c.ChainAccount = "0x123" },
			wantErr: ErrInvalidAccount,
		},
		{
			name:    "bad_rpc_url",
			modify:  func(c *Config) { c.LedgerRPCURL = "ftp://example.com" },
			wantErr: ErrInvalidEndpoint,
		},
		{
			name:    "bad_gateway_url",
			modify:  func(c *Config) { c.StoreGateways = []string{"not a url"} },
			wantErr: ErrInvalidEndpoint,
		},
		{
			name:    "bad_dns_upstream",
			modify:  func(c *Config) { c.DNSUpstream = "8.8.8.8" },
			wantErr: ErrInvalidDNSUpstream,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := ValidateConfig(cfg)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidateConfig: got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateConfig_LogLevelCaseInsensitive(t *testing.T) {
	for _, level := range []string{"INFO", "Debug", "WARN", "Error"} {
		t.Run(level, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LogLevel = level
			if err := ValidateConfig(cfg); err != nil {
				t.Errorf("ValidateConfig with LogLevel %q: %v", level, err)
			}
		})
	}
}

func TestValidateConfig_FullyConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LedgerRPCURL = "http://localhost:8545"
	cfg.LedgerContract = "0x4444444444444444444444444444444444444444"
	cfg.ChainAccount = "0x1111111111111111111111111111111111111111"
	cfg.CustodyNodes = []string{"https://custody.example.com"}
	cfg.StoreAPIURL = "https://pin.example.com/upload"
	cfg.StoreAPIKey = "secret"
	cfg.StoreGateways = []string{"https://gw.example.com"}
	cfg.DNSUpstream = "1.1.1.1:53"

	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("ValidateConfig: %v", err)
	}

	if !cfg.RentalEnabled() || !cfg.UploadEnabled() || !cfg.CustodyEnabled() {
		t.Error("all flows should be enabled")
	}
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

func TestConfigPath(t *testing.T) {
	got := ConfigPath("/home/user/.agentrent")
	want := filepath.Join("/home/user/.agentrent", "config")
	if got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
}

func TestRecordStorePath(t *testing.T) {
	got := RecordStorePath("/data")
	want := filepath.Join("/data", "records.db")
	if got != want {
		t.Errorf("RecordStorePath = %q, want %q", got, want)
	}
}
