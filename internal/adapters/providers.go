package adapters

import (
	"log/slog"
	"os"

	"github.com/google/wire"

	"github.com/covault-org/covault-cli/internal/adapters/chain"
	"github.com/covault-org/covault-cli/internal/adapters/events"
	"github.com/covault-org/covault-cli/internal/adapters/progress"
	"github.com/covault-org/covault-cli/internal/adapters/signer"
	"github.com/covault-org/covault-cli/internal/adapters/store"
	"github.com/covault-org/covault-cli/internal/adapters/txservice"
	"github.com/covault-org/covault-cli/internal/config"
	"github.com/covault-org/covault-cli/internal/safe"
	"github.com/covault-org/covault-cli/internal/usecase"
)

// ProvideChainClient builds the lazy RPC client for the selected network.
// With no network selected the client exists but errors on first use.
func ProvideChainClient(cfg *config.RuntimeConfig, log *slog.Logger) *chain.Client {
	if cfg.Network == nil {
		return chain.New("", 0, log)
	}
	return chain.New(cfg.Network.RPCURL, cfg.Network.ChainID, log)
}

// ProvideSigner reads the signing key from the environment. An absent key
// yields the Missing signer so read-only commands still work; a malformed
// key is an immediate error.
func ProvideSigner(cfg *config.RuntimeConfig) (usecase.Signer, error) {
	hexKey := os.Getenv("COVAULT_PRIVATE_KEY")
	if hexKey == "" {
		return signer.Missing{}, nil
	}
	local, err := signer.NewLocalSigner(hexKey)
	if err != nil {
		return nil, err
	}
	if cfg.NonInteractive {
		return local, nil
	}
	return signer.NewConfirmingSigner(local), nil
}

// ProvideStore opens the lifecycle database under the data dir.
func ProvideStore(cfg *config.RuntimeConfig) (*store.BoltStore, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, err
	}
	s, err := store.Open(cfg.StorePath)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { _ = s.Close() }, nil
}

// ProvideEventBus starts the lifecycle event bus.
func ProvideEventBus() (*events.Bus, func()) {
	bus := events.NewBus()
	return bus, bus.Close
}

// ProvideProgress picks the progress sink for the output mode.
func ProvideProgress(cfg *config.RuntimeConfig) usecase.ProgressSink {
	if cfg.NonInteractive || cfg.JSON {
		return usecase.NopProgress{}
	}
	return progress.NewSpinnerSink()
}

// ProvideConfirmationSource builds the indexing-service client when the
// selected network has one.
func ProvideConfirmationSource(cfg *config.RuntimeConfig, log *slog.Logger) usecase.ConfirmationSource {
	if cfg.Network == nil {
		return txservice.Unavailable{Reason: "no network selected"}
	}
	if cfg.Network.TxServiceURL != "" {
		return txservice.NewClientWithURL(cfg.Network.TxServiceURL, log)
	}
	client, err := txservice.NewClient(cfg.Network.ChainID, log)
	if err != nil {
		return txservice.Unavailable{Reason: err.Error()}
	}
	return client
}

// ProvideContracts exposes the resolved protocol contract addresses.
func ProvideContracts(cfg *config.RuntimeConfig) safe.Deployments {
	return cfg.Contracts
}

// AllAdapters wires every adapter behind its port.
var AllAdapters = wire.NewSet(
	ProvideChainClient,
	wire.Bind(new(usecase.ChainClient), new(*chain.Client)),

	ProvideSigner,

	ProvideStore,
	wire.Bind(new(usecase.LifecycleStore), new(*store.BoltStore)),

	ProvideEventBus,
	wire.Bind(new(usecase.EventBus), new(*events.Bus)),

	ProvideProgress,
	ProvideConfirmationSource,
	ProvideContracts,
)
