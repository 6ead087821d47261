package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/covault-org/covault-cli/internal/safe"
)

// wellKnownNetworks covers the common public chains so a bare install works
// without a covault.toml entry. A file entry with the same name wins.
var wellKnownNetworks = map[string]NetworkEntry{
	"mainnet":  {ChainID: 1},
	"sepolia":  {ChainID: 11155111},
	"optimism": {ChainID: 10},
	"gnosis":   {ChainID: 100},
	"polygon":  {ChainID: 137},
	"arbitrum": {ChainID: 42161},
	"base":     {ChainID: 8453},
}

// ResolveNetwork maps a network name (or decimal chain id) to its endpoint.
// The RPC URL must come from covault.toml or COVAULT_RPC_URL; chain ids
// alone are not enough to reach a node.
func ResolveNetwork(file *FileConfig, name string) (*Network, error) {
	entry, ok := file.Networks[name]
	if !ok {
		known, knownOK := wellKnownNetworks[name]
		if !knownOK {
			if chainID, err := strconv.ParseUint(name, 10, 64); err == nil {
				known, knownOK = NetworkEntry{ChainID: chainID}, true
			}
		}
		if !knownOK {
			return nil, fmt.Errorf("unknown network %q (add it to covault.toml)", name)
		}
		entry = known
	}

	if url := os.Getenv("COVAULT_RPC_URL"); url != "" {
		entry.RPCURL = url
	}
	if entry.RPCURL == "" {
		return nil, fmt.Errorf("no RPC URL for network %q: set networks.%s.rpc_url or COVAULT_RPC_URL", name, name)
	}
	return &Network{
		Name:         name,
		ChainID:      entry.ChainID,
		RPCURL:       entry.RPCURL,
		TxServiceURL: entry.TxServiceURL,
	}, nil
}

// ResolveNetworkByChainID restores a persisted chain selection. A covault.toml
// entry with a matching chain id wins (first by name when several match);
// well-known chains resolve through their canonical name so COVAULT_RPC_URL
// can supply the endpoint.
func ResolveNetworkByChainID(file *FileConfig, chainID uint64) (*Network, error) {
	names := make([]string, 0, len(file.Networks))
	for name := range file.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if file.Networks[name].ChainID == chainID {
			return ResolveNetwork(file, name)
		}
	}
	for name, entry := range wellKnownNetworks {
		if entry.ChainID == chainID {
			return ResolveNetwork(file, name)
		}
	}
	return ResolveNetwork(file, strconv.FormatUint(chainID, 10))
}

// ResolveContracts returns the protocol contract addresses for the chain,
// canonical unless overridden in covault.toml.
func ResolveContracts(file *FileConfig, chainID uint64) safe.Deployments {
	deployments := safe.DefaultDeployments()
	entry, ok := file.Contracts[strconv.FormatUint(chainID, 10)]
	if !ok {
		return deployments
	}
	if entry.Singleton != "" {
		deployments.Singleton = safe.MustAddress(entry.Singleton)
	}
	if entry.ProxyFactory != "" {
		deployments.ProxyFactory = safe.MustAddress(entry.ProxyFactory)
	}
	if entry.FallbackHandler != "" {
		deployments.FallbackHandler = safe.MustAddress(entry.FallbackHandler)
	}
	if entry.MultiSend != "" {
		deployments.MultiSend = safe.MustAddress(entry.MultiSend)
	}
	return deployments
}
