package usecase

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/domain/models"
)

// GasQuote is the pricing for an outer execution transaction. Either the
// EIP-1559 pair is set or GasPrice is, never both.
type GasQuote struct {
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// ChainClient is the narrow provider interface the engine consumes. The
// underlying RPC transport is opaque; all waits are bounded by the caller.
type ChainClient interface {
	ChainID(ctx context.Context) (uint64, error)
	BlockNumber(ctx context.Context) (uint64, error)
	NonceAt(ctx context.Context, account common.Address) (uint64, error)
	CodeAt(ctx context.Context, account common.Address) ([]byte, error)
	StorageAt(ctx context.Context, account common.Address, slot common.Hash) ([]byte, error)
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	EstimateGas(ctx context.Context, from common.Address, to *common.Address, value *big.Int, data []byte) (uint64, error)
	SuggestPricing(ctx context.Context) (*GasQuote, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// WaitForReceipt waits for one confirmation of the transaction within
	// timeout. It returns *domain.ReplacedError when another transaction
	// from the same sender was mined at the same nonce, and
	// domain.ErrNetworkTimeout when the bounded wait expires.
	WaitForReceipt(ctx context.Context, txHash common.Hash, from common.Address, startBlock uint64, timeout time.Duration) (*types.Receipt, error)
}

// Signer obtains signatures from the locally connected signer. Calls may
// suspend unboundedly on external confirmation; cancellation comes from the
// user, never the engine.
type Signer interface {
	Address() common.Address
	// SignDigest signs the raw 32-byte hash (typed-data signing).
	SignDigest(ctx context.Context, digest common.Hash) ([]byte, error)
	// SignMessage signs the EIP-191 prefixed hash (legacy eth_sign); the
	// returned signature carries the +4 recovery offset.
	SignMessage(ctx context.Context, digest common.Hash) ([]byte, error)
	// SignTx signs an outer execution transaction for broadcast.
	SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// LifecycleStore is the sole owner of persisted state. Implementations must
// serialize writes per entity key; Update* methods run their mutate function
// inside that per-key critical section so readers never observe a signature
// set mid-merge, and bump the record revision (compare-and-set) on commit.
type LifecycleStore interface {
	GetAccount(ctx context.Context, chainID uint64, address string) (*models.Account, error)
	SaveAccount(ctx context.Context, account *models.Account) error
	ListAccounts(ctx context.Context) ([]*models.Account, error)

	GetTransaction(ctx context.Context, safeTxHash string) (*models.PendingTransaction, error)
	PutTransaction(ctx context.Context, tx *models.PendingTransaction) error
	UpdateTransaction(ctx context.Context, safeTxHash string, mutate func(*models.PendingTransaction) error) (*models.PendingTransaction, error)
	ListTransactions(ctx context.Context, chainID uint64, safeAddress string) ([]*models.PendingTransaction, error)

	GetDeployment(ctx context.Context, id string) (*models.DeploymentRecord, error)
	SaveDeployment(ctx context.Context, record *models.DeploymentRecord) error
	UpdateDeployment(ctx context.Context, id string, mutate func(*models.DeploymentRecord) error) (*models.DeploymentRecord, error)
	DeleteDeployment(ctx context.Context, id string) error

	SelectedChain(ctx context.Context) (uint64, error)
	SetSelectedChain(ctx context.Context, chainID uint64) error
}

// EventBus delivers lifecycle events to subscribers in publish order.
type EventBus interface {
	Publish(event domain.Event)
	// Subscribe registers a consumer; the returned cancel func removes it.
	Subscribe(buffer int) (<-chan domain.Event, func())
}

// RemoteConfirmation is a confirmation fetched from an indexing service.
type RemoteConfirmation struct {
	Signer    string
	Signature string
}

// ConfirmationSource fetches confirmations collected elsewhere, merged into
// the local signature set with the same union semantics as artifact import.
type ConfirmationSource interface {
	Confirmations(ctx context.Context, safeTxHash string) ([]RemoteConfirmation, error)
}

// ProgressSink receives human-facing progress updates.
type ProgressSink interface {
	Step(message string)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink.
type NopProgress struct{}

func (NopProgress) Step(string)  {}
func (NopProgress) Info(string)  {}
func (NopProgress) Error(string) {}
