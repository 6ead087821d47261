package config

import (
	"time"

	"github.com/covault-org/covault-cli/internal/safe"
)

// RuntimeConfig is the complete resolved runtime configuration, injected
// into use cases and adapters.
type RuntimeConfig struct {
	ProjectRoot string
	DataDir     string
	StorePath   string

	// Network is nil until a network is selected.
	Network *Network

	Debug          bool
	NonInteractive bool
	JSON           bool
	Timeout        time.Duration

	// ShareOrigin is the base URL prefixed to exported share links.
	ShareOrigin string

	// Contracts are the resolved protocol contract addresses for the
	// selected network.
	Contracts safe.Deployments

	File *FileConfig
}

// Network is one resolved chain endpoint.
type Network struct {
	Name         string
	ChainID      uint64
	RPCURL       string
	TxServiceURL string
}
