// Copyright (c) 2026 The AgentRent developers
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package config holds client configuration: ledger endpoint, custody
// network, content store credentials, and ambient settings. Every service
// setting is optional; missing settings degrade the matching flow instead of
// failing startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Config holds all client settings.
type Config struct {
	// DataDir is the root directory for local state (record store).
	DataDir string

	// LedgerRPCURL is the chain node JSON-RPC endpoint.
	LedgerRPCURL string

	// LedgerContract is the rental ledger contract address.
	LedgerContract string

	// ChainID identifies the chain for sign-in statements.
	ChainID uint64

	// ChainAccount is the node-managed transaction sender address.
	ChainAccount string

	// CustodyNodes lists custody network node base URLs, tried in order.
	CustodyNodes []string

	// CustodyNetwork names the custody network environment.
	CustodyNetwork string

	// StoreAPIURL is the pinning API upload endpoint.
	StoreAPIURL string

	// StoreAPIKey credentials the pinning API.
	StoreAPIKey string

	// StoreGateways lists content gateway base URLs, tried in order.
	StoreGateways []string

	// DNSUpstream is the recursive resolver for DNSSEC-validated DNSLink
	// lookups (host:port). Empty uses the system resolver without DNSSEC.
	DNSUpstream string

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string
}

// DefaultDataDir returns the platform default data directory
// (~/.agentrent).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agentrent"
	}
	return filepath.Join(home, ".agentrent")
}

// DefaultConfig returns a configuration with sane defaults. Service
// endpoints are left empty and must be set before the matching flows work.
func DefaultConfig() Config {
	return Config{
		DataDir:        DefaultDataDir(),
		CustodyNetwork: "mainnet",
		LogLevel:       "info",
	}
}

// ConfigPath returns the path of the config file inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// RecordStorePath returns the path of the record database inside dataDir.
func RecordStorePath(dataDir string) string {
	return filepath.Join(dataDir, "records.db")
}

// RentalEnabled reports whether on-chain rental flows are configured.
func (c Config) RentalEnabled() bool {
	return c.LedgerRPCURL != "" && c.LedgerContract != ""
}

// UploadEnabled reports whether content uploads are configured.
func (c Config) UploadEnabled() bool {
	return c.StoreAPIURL != "" && c.StoreAPIKey != ""
}

// CustodyEnabled reports whether a custody network is configured.
func (c Config) CustodyEnabled() bool {
	return len(c.CustodyNodes) > 0
}

// LoadConfig reads a key = value config file. Unknown keys are ignored for
// forward compatibility; unset keys keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, i+1, line)
		}
		if err := applyKey(&cfg, key, value); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// parseKeyValue splits "key = value" on the first '='.
func parseKeyValue(line string) (string, string, error) {
	i := strings.IndexByte(line, '=')
	if i < 0 {
		return "", "", ErrInvalidConfigLine
	}
	key := strings.ToLower(strings.TrimSpace(line[:i]))
	value := strings.TrimSpace(line[i+1:])
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return key, value, nil
}

// applyKey sets one config field from its file key. Unknown keys are
// ignored.
func applyKey(cfg *Config, key, value string) error {
	switch key {
	case "datadir":
		cfg.DataDir = value
	case "ledgerrpc":
		cfg.LedgerRPCURL = value
	case "ledgercontract":
		cfg.LedgerContract = value
	case "chainid":
		if value == "" {
			cfg.ChainID = 0
			return nil
		}
		id, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: chainid %q", ErrInvalidChainID, value)
		}
		cfg.ChainID = id
	case "chainaccount":
		cfg.ChainAccount = value
	case "custodynodes":
		cfg.CustodyNodes = splitList(value)
	case "custodynetwork":
		cfg.CustodyNetwork = value
	case "storeapi":
		cfg.StoreAPIURL = value
	case "storeapikey":
		cfg.StoreAPIKey = value
	case "storegateways":
		cfg.StoreGateways = splitList(value)
	case "dnsupstream":
		cfg.DNSUpstream = value
	case "loglevel":
		cfg.LogLevel = value
	}
	return nil
}

// splitList parses a comma-separated list, dropping empty elements.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SaveConfig writes cfg as a key = value file, creating parent directories
// as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# AgentRent Configuration\n\n")
	write := func(key, value string) {
		fmt.Fprintf(&b, "%s = %s\n", key, value)
	}
	write("datadir", cfg.DataDir)
	write("ledgerrpc", cfg.LedgerRPCURL)
	write("ledgercontract", cfg.LedgerContract)
	write("chainid", strconv.FormatUint(cfg.ChainID, 10))
	write("chainaccount", cfg.ChainAccount)
	write("custodynodes", strings.Join(cfg.CustodyNodes, ","))
	write("custodynetwork", cfg.CustodyNetwork)
	write("storeapi", cfg.StoreAPIURL)
	write("storeapikey", cfg.StoreAPIKey)
	write("storegateways", strings.Join(cfg.StoreGateways, ","))
	write("dnsupstream", cfg.DNSUpstream)
	write("loglevel", cfg.LogLevel)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// envPrefix prefixes all environment variable names.
const envPrefix = "AGENTRENT_"

// envKeys maps environment variable suffixes to file keys.
var envKeys = map[string]string{
	"DATADIR":         "datadir",
	"LEDGER_RPC":      "ledgerrpc",
	"LEDGER_CONTRACT": "ledgercontract",
	"CHAIN_ID":        "chainid",
	"CHAIN_ACCOUNT":   "chainaccount",
	"CUSTODY_NODES":   "custodynodes",
	"CUSTODY_NETWORK": "custodynetwork",
	"STORE_API":       "storeapi",
	"STORE_API_KEY":   "storeapikey",
	"STORE_GATEWAYS":  "storegateways",
	"DNS_UPSTREAM":    "dnsupstream",
	"LOG_LEVEL":       "loglevel",
}

// LoadFromEnv overlays AGENTRENT_* environment variables onto cfg. Set
// variables win over file values; unset variables leave cfg untouched.
func LoadFromEnv(cfg Config) (Config, error) {
	// Deterministic application order.
	suffixes := make([]string, 0, len(envKeys))
	for s := range envKeys {
		suffixes = append(suffixes, s)
	}
	sort.Strings(suffixes)

	for _, suffix := range suffixes {
		value, ok := os.LookupEnv(envPrefix + suffix)
		if !ok {
			continue
		}
		if err := applyKey(&cfg, envKeys[suffix], value); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}
