package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/covault-org/covault-cli/internal/adapters/store"
	"github.com/covault-org/covault-cli/internal/app"
	"github.com/covault-org/covault-cli/internal/config"
	"github.com/covault-org/covault-cli/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	appKey     contextKey = "app"
	cleanupKey contextKey = "cleanup"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "covault",
		Short: "Shared account transaction coordinator",
		Long: `Covault coordinates M-of-N shared accounts: proposing transactions,
collecting owner signatures offline or through an indexing service, and
dispatching threshold-complete transactions exactly once.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cmd.Name() {
			case "version", "help", "completion":
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot, cmd)
			bindGlobalFlags(v, cmd)

			cfg, err := config.Provider(v)
			if err != nil {
				return err
			}

			explicit := cfg.Network != nil
			if !explicit {
				restoreSelectedNetwork(cmd.Context(), cfg)
			}

			appInstance, cleanup, err := app.InitApp(cfg)
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			if explicit {
				persistSelectedNetwork(cmd.Context(), appInstance.Store, cfg, appInstance.Log)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			ctx = context.WithValue(ctx, cleanupKey, cleanup)
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cleanup, ok := cmd.Context().Value(cleanupKey).(func()); ok && cleanup != nil {
				cleanup()
			}
		},
	}

	rootCmd.PersistentFlags().StringP("network", "n", "", "Network to use (e.g., mainnet, sepolia, or a covault.toml entry)")
	rootCmd.PersistentFlags().StringP("account", "a", "", "Shared account address to operate on")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")

	rootCmd.AddGroup(&cobra.Group{ID: "lifecycle", Title: "Transaction Lifecycle"})
	rootCmd.AddGroup(&cobra.Group{ID: "account", Title: "Account Management"})

	for _, c := range []*cobra.Command{
		NewProposeCmd(), NewSignCmd(), NewExecCmd(), NewShareCmd(), NewImportCmd(), NewPullCmd(),
	} {
		c.GroupID = "lifecycle"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{
		NewAccountCmd(), NewListCmd(), NewShowCmd(),
	} {
		c.GroupID = "account"
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// bindGlobalFlags binds changed persistent flags to viper.
func bindGlobalFlags(v *viper.Viper, cmd *cobra.Command) {
	for flag, key := range map[string]string{
		"debug":           "debug",
		"non-interactive": "non_interactive",
		"json":            "json",
		"network":         "network",
	} {
		if f := cmd.Flag(flag); f != nil && f.Changed {
			v.Set(key, f.Value.String())
		}
	}
}

// getApp retrieves the app instance from the command context.
func getApp(cmd *cobra.Command) (*app.App, error) {
	instance, ok := cmd.Context().Value(appKey).(*app.App)
	if !ok || instance == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	return instance, nil
}

// restoreSelectedNetwork falls back to the chain persisted by a previous
// explicit --network run. No stored selection, or no endpoint for it, leaves
// the config without a network; commands that need one report that.
func restoreSelectedNetwork(ctx context.Context, cfg *config.RuntimeConfig) {
	s, err := store.Open(cfg.StorePath)
	if err != nil {
		return
	}
	defer s.Close()

	chainID, err := s.SelectedChain(ctx)
	if err != nil {
		return
	}
	network, err := config.ResolveNetworkByChainID(cfg.File, chainID)
	if err != nil {
		return
	}
	cfg.Network = network
	cfg.Contracts = config.ResolveContracts(cfg.File, chainID)
}

// persistSelectedNetwork remembers an explicit selection so later runs can
// omit --network.
func persistSelectedNetwork(ctx context.Context, s usecase.LifecycleStore, cfg *config.RuntimeConfig, log *slog.Logger) {
	if cfg.Network == nil {
		return
	}
	if err := s.SetSelectedChain(ctx, cfg.Network.ChainID); err != nil {
		log.Warn("persist network selection", "chainId", cfg.Network.ChainID, "err", err)
	}
}

// resolveSession builds the working session from the --account flag, falling
// back to the sole stored account on the selected chain.
func resolveSession(cmd *cobra.Command, a *app.App) (*usecase.Session, error) {
	if a.Config.Network == nil {
		return nil, fmt.Errorf("no network selected: pass --network")
	}
	chainID := a.Config.Network.ChainID

	address, _ := cmd.Flags().GetString("account")
	if address == "" {
		accounts, err := a.Store.ListAccounts(cmd.Context())
		if err != nil {
			return nil, err
		}
		var onChain []string
		for _, acct := range accounts {
			if acct.ChainID == chainID {
				onChain = append(onChain, acct.Address)
			}
		}
		switch len(onChain) {
		case 0:
			return nil, fmt.Errorf("no accounts on chain %d: run `covault account add` first", chainID)
		case 1:
			address = onChain[0]
		default:
			return nil, fmt.Errorf("multiple accounts on chain %d, pass --account (one of %s)",
				chainID, strings.Join(onChain, ", "))
		}
	}

	account, err := a.Store.GetAccount(cmd.Context(), chainID, address)
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", address, err)
	}
	return usecase.NewSession(account, a.Config.Contracts)
}
