package app

import (
	"log/slog"

	"github.com/covault-org/covault-cli/internal/config"
	"github.com/covault-org/covault-cli/internal/usecase"
)

// App is the application container holding all wired use cases.
type App struct {
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Shared ports, exposed for commands that read directly.
	Store  usecase.LifecycleStore
	Chain  usecase.ChainClient
	Signer usecase.Signer
	Events usecase.EventBus

	// Use cases
	Propose *usecase.ProposeTransaction
	Sign    *usecase.SignTransaction
	Execute *usecase.ExecuteTransaction
	Deploy  *usecase.DeployAccount
	Import  *usecase.ImportSignatures
	Export  *usecase.ExportSignatures
	Pull    *usecase.PullConfirmations
	Add     *usecase.AddAccount
}

// NewApp assembles the application container.
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	store usecase.LifecycleStore,
	chain usecase.ChainClient,
	signer usecase.Signer,
	events usecase.EventBus,
	propose *usecase.ProposeTransaction,
	sign *usecase.SignTransaction,
	execute *usecase.ExecuteTransaction,
	deploy *usecase.DeployAccount,
	importSigs *usecase.ImportSignatures,
	export *usecase.ExportSignatures,
	pull *usecase.PullConfirmations,
	add *usecase.AddAccount,
) *App {
	return &App{
		Config:  cfg,
		Log:     log,
		Store:   store,
		Chain:   chain,
		Signer:  signer,
		Events:  events,
		Propose: propose,
		Sign:    sign,
		Execute: execute,
		Deploy:  deploy,
		Import:  importSigs,
		Export:  export,
		Pull:    pull,
		Add:     add,
	}
}
