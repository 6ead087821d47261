package cli

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covault-org/covault-cli/internal/adapters/store"
	"github.com/covault-org/covault-cli/internal/config"
	"github.com/covault-org/covault-cli/internal/safe"
)

func testConfig(t *testing.T) *config.RuntimeConfig {
	t.Helper()
	return &config.RuntimeConfig{
		StorePath: filepath.Join(t.TempDir(), "covault.db"),
		Contracts: safe.DefaultDeployments(),
		File: &config.FileConfig{Networks: map[string]config.NetworkEntry{
			"devnet": {RPCURL: "http://localhost:8545", ChainID: 31337},
		}},
	}
}

func TestRestoreSelectedNetwork(t *testing.T) {
	ctx := context.Background()

	t.Run("restores the persisted chain", func(t *testing.T) {
		cfg := testConfig(t)

		s, err := store.Open(cfg.StorePath)
		require.NoError(t, err)
		require.NoError(t, s.SetSelectedChain(ctx, 31337))
		require.NoError(t, s.Close())

		restoreSelectedNetwork(ctx, cfg)
		require.NotNil(t, cfg.Network)
		assert.Equal(t, uint64(31337), cfg.Network.ChainID)
		assert.Equal(t, "http://localhost:8545", cfg.Network.RPCURL)
	})

	t.Run("nothing persisted leaves the network unset", func(t *testing.T) {
		cfg := testConfig(t)

		s, err := store.Open(cfg.StorePath)
		require.NoError(t, err)
		require.NoError(t, s.Close())

		restoreSelectedNetwork(ctx, cfg)
		assert.Nil(t, cfg.Network)
	})

	t.Run("persisted chain without an endpoint leaves the network unset", func(t *testing.T) {
		cfg := testConfig(t)

		s, err := store.Open(cfg.StorePath)
		require.NoError(t, err)
		require.NoError(t, s.SetSelectedChain(ctx, 11155111))
		require.NoError(t, s.Close())

		restoreSelectedNetwork(ctx, cfg)
		assert.Nil(t, cfg.Network)
	})

	t.Run("missing store is not an error", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.StorePath = filepath.Join(cfg.StorePath, "missing-dir", "covault.db")
		restoreSelectedNetwork(ctx, cfg)
		assert.Nil(t, cfg.Network)
	})
}

func TestPersistSelectedNetwork(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("round trip through the store", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Network = &config.Network{Name: "devnet", ChainID: 31337, RPCURL: "http://localhost:8545"}

		s, err := store.Open(cfg.StorePath)
		require.NoError(t, err)
		persistSelectedNetwork(ctx, s, cfg, log)
		require.NoError(t, s.Close())

		restored := testConfig(t)
		restored.StorePath = cfg.StorePath
		restoreSelectedNetwork(ctx, restored)
		require.NotNil(t, restored.Network)
		assert.Equal(t, uint64(31337), restored.Network.ChainID)
	})

	t.Run("no network selected writes nothing", func(t *testing.T) {
		cfg := testConfig(t)

		s, err := store.Open(cfg.StorePath)
		require.NoError(t, err)
		defer s.Close()
		persistSelectedNetwork(ctx, s, cfg, log)

		_, err = s.SelectedChain(ctx)
		assert.Error(t, err)
	})
}
