package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// FileConfig is the raw covault.toml structure.
type FileConfig struct {
	// Networks maps a name to its endpoint definition.
	Networks map[string]NetworkEntry `toml:"networks"`
	// Share holds link export settings.
	Share ShareConfig `toml:"share"`
	// Contracts overrides protocol contract addresses per chain id
	// (decimal string key), for chains without the canonical deployment.
	Contracts map[string]ContractsEntry `toml:"contracts"`
}

// NetworkEntry is one [networks.<name>] block.
type NetworkEntry struct {
	RPCURL       string `toml:"rpc_url"`
	ChainID      uint64 `toml:"chain_id"`
	TxServiceURL string `toml:"tx_service_url"`
}

// ShareConfig configures share link generation.
type ShareConfig struct {
	Origin string `toml:"origin"`
}

// ContractsEntry overrides the protocol contract addresses for one chain.
type ContractsEntry struct {
	Singleton       string `toml:"singleton"`
	ProxyFactory    string `toml:"proxy_factory"`
	FallbackHandler string `toml:"fallback_handler"`
	MultiSend       string `toml:"multi_send"`
}

// loadFileConfig loads and parses covault.toml, after sourcing .env files
// so ${VAR} expansion in RPC URLs can resolve.
func loadFileConfig(projectRoot string) (*FileConfig, error) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
		}
	}

	path := filepath.Join(projectRoot, "covault.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &FileConfig{Networks: map[string]NetworkEntry{}}, nil
	}

	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Networks == nil {
		cfg.Networks = map[string]NetworkEntry{}
	}
	for name, entry := range cfg.Networks {
		entry.RPCURL = os.ExpandEnv(entry.RPCURL)
		cfg.Networks[name] = entry
	}
	return &cfg, nil
}
