//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"github.com/covault-org/covault-cli/internal/adapters"
	"github.com/covault-org/covault-cli/internal/config"
	"github.com/covault-org/covault-cli/internal/logging"
	"github.com/covault-org/covault-cli/internal/usecase"
)

// InitApp creates a fully wired App instance.
func InitApp(cfg *config.RuntimeConfig) (*App, func(), error) {
	wire.Build(
		logging.NewLogger,

		adapters.AllAdapters,

		usecase.NewProposeTransaction,
		usecase.NewSignTransaction,
		usecase.NewExecuteTransaction,
		usecase.NewDeployAccount,
		usecase.NewImportSignatures,
		usecase.NewExportSignatures,
		usecase.NewPullConfirmations,
		usecase.NewAddAccount,

		NewApp,
	)
	return nil, nil, nil
}
