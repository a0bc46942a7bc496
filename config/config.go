// Package config holds runtime settings for the OpenTreasury CLI.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds runtime settings for the otms CLI.
//
// Fields:
//   - LedgerAddr: host:port of the ledger gateway gRPC endpoint.
//   - Cluster: ledger network identifier recorded in exported documents.
//   - Treasury: the tracked account.
//   - StorePath: annotation store file.
//   - KeyPath: local signing key file.
//   - ReadOnly: refuse annotation edits and anchoring.
type Config struct {
	LedgerAddr string `json:"ledgerAddr"`
	Cluster    string `json:"cluster"`
	Treasury   string `json:"treasury"`
	StorePath  string `json:"storePath"`
	KeyPath    string `json:"keyPath"`
	ReadOnly   bool   `json:"readOnly"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.LedgerAddr = "127.0.0.1:7788"
	c.Cluster = "devnet"
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	c.StorePath = filepath.Join(home, ".opentreasury", "annotations.json")
	c.KeyPath = filepath.Join(home, ".opentreasury", "anchor.key")
}

// Load constructs a Config: defaults first, then overlays values from the
// JSON file at path (if it exists). Flag overlays are applied by the CLI,
// which owns its flag sets. Later sources take precedence.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
