package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/domain/models"
	"github.com/covault-org/covault-cli/internal/safe"
)

// DefaultExecutionTimeout bounds the wait for one confirmation of the outer
// execution transaction.
const DefaultExecutionTimeout = 6*time.Minute + 30*time.Second

// ExecuteTransaction submits a threshold-complete pending transaction,
// tracks its receipt and classifies the terminal outcome exactly once.
type ExecuteTransaction struct {
	store    LifecycleStore
	chain    ChainClient
	signer   Signer
	events   EventBus
	progress ProgressSink
	log      *slog.Logger
}

// NewExecuteTransaction creates the execution dispatcher.
func NewExecuteTransaction(
	store LifecycleStore,
	chain ChainClient,
	signer Signer,
	events EventBus,
	progress ProgressSink,
	log *slog.Logger,
) *ExecuteTransaction {
	return &ExecuteTransaction{
		store:    store,
		chain:    chain,
		signer:   signer,
		events:   events,
		progress: progress,
		log:      log,
	}
}

// ExecuteParams parametrize one submission attempt.
type ExecuteParams struct {
	Session    *Session
	SafeTxHash string
	// Timeout for the receipt wait; DefaultExecutionTimeout when zero.
	Timeout time.Duration
}

// Execute runs Ready → Submitting → Submitted → terminal. Once Submitting
// begins the operation cannot be cancelled client-side; the chain is
// authoritative.
func (e *ExecuteTransaction) Execute(ctx context.Context, params ExecuteParams) (*models.PendingTransaction, error) {
	session := params.Session
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultExecutionTimeout
	}

	tx, err := e.store.GetTransaction(ctx, params.SafeTxHash)
	if err != nil {
		return nil, fmt.Errorf("load transaction %s: %w", params.SafeTxHash, err)
	}
	if tx.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: %s", domain.ErrTerminalStatus, tx.Status)
	}
	if !Ready(tx, session.Account) {
		return nil, fmt.Errorf("%w: have %d of %d",
			domain.ErrInsufficientSignatures, len(tx.Signatures), session.Account.Threshold)
	}
	if err := validateNonce(ctx, e.chain, session, tx); err != nil {
		return nil, err
	}

	// Claim the transaction. A concurrent dispatcher loses the CAS here.
	tx, err = e.store.UpdateTransaction(ctx, params.SafeTxHash, func(pending *models.PendingTransaction) error {
		switch pending.Status {
		case models.StatusAwaitingSignature, models.StatusReady:
			pending.Status = models.StatusSubmitting
			return nil
		default:
			return fmt.Errorf("%w: cannot submit from %s", domain.ErrConflict, pending.Status)
		}
	})
	if err != nil {
		return nil, err
	}

	e.events.Publish(domain.Event{Type: domain.EventExecuting, TxID: tx.SafeTxHash, SafeAddress: tx.SafeAddress})
	e.progress.Step("Submitting transaction")

	outerTx, err := e.submit(ctx, session, tx)
	if err != nil {
		// The synthetic pre-validated signature only ever lived on an
		// in-memory copy, so a retry starts from a clean set.
		terminal := e.settle(ctx, tx.SafeTxHash, models.StatusFailed, "", err)
		e.events.Publish(domain.Event{Type: domain.EventFailed, TxID: tx.SafeTxHash, SafeAddress: tx.SafeAddress, Error: err})
		return terminal, err
	}

	execHash := outerTx.Hash().Hex()
	if _, err := e.store.UpdateTransaction(ctx, tx.SafeTxHash, func(pending *models.PendingTransaction) error {
		pending.Status = models.StatusSubmitted
		pending.ExecutionTxHash = execHash
		return nil
	}); err != nil {
		return nil, err
	}

	e.events.Publish(domain.Event{Type: domain.EventProcessing, TxID: tx.SafeTxHash, SafeAddress: tx.SafeAddress})
	e.progress.Step("Waiting for confirmation")

	startBlock, err := e.chain.BlockNumber(ctx)
	if err != nil {
		startBlock = 0
	}
	receipt, waitErr := e.chain.WaitForReceipt(ctx, outerTx.Hash(), e.signer.Address(), startBlock, timeout)
	return e.classify(ctx, tx, execHash, receipt, waitErr)
}

// submit encodes the signature set (with a synthetic pre-validated entry for
// the local submitter when absent), signs and broadcasts the outer call.
func (e *ExecuteTransaction) submit(ctx context.Context, session *Session, tx *models.PendingTransaction) (*types.Transaction, error) {
	signerAddr := e.signer.Address()

	sigs := tx.Signatures.Clone()
	if !sigs.Has(signerAddr.Hex()) {
		sigs.Add(signerAddr.Hex(), safe.PreValidatedSignature(signerAddr))
	}
	encoded, err := safe.EncodeSignatures(sigs)
	if err != nil {
		return nil, fmt.Errorf("encode signatures: %w", err)
	}
	calldata, err := safe.EncodeExecTransaction(&tx.Descriptor, encoded)
	if err != nil {
		return nil, fmt.Errorf("encode execTransaction: %w", err)
	}

	nonce, err := e.chain.NonceAt(ctx, signerAddr)
	if err != nil {
		return nil, fmt.Errorf("read sender nonce: %w", err)
	}
	quote, err := e.chain.SuggestPricing(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas pricing: %w", err)
	}

	to := session.SafeAddress
	gasLimit, err := e.chain.EstimateGas(ctx, signerAddr, &to, nil, calldata)
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}

	outer := buildOuterTx(session.ChainID, nonce, &to, nil, gasLimit, quote, calldata)
	signed, err := e.signer.SignTx(ctx, outer, new(big.Int).SetUint64(session.ChainID))
	if err != nil {
		return nil, fmt.Errorf("sign execution transaction: %w", err)
	}
	if err := e.chain.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send execution transaction: %w", err)
	}
	e.log.Info("submitted execution", "safeTxHash", tx.SafeTxHash, "txHash", signed.Hash().Hex())
	return signed, nil
}

// classify maps the receipt-wait outcome onto a terminal status and emits
// the corresponding lifecycle event exactly once.
func (e *ExecuteTransaction) classify(ctx context.Context, tx *models.PendingTransaction, execHash string, receipt *types.Receipt, waitErr error) (*models.PendingTransaction, error) {
	safeTxHash := tx.SafeTxHash

	if waitErr == nil {
		if receipt.Status == types.ReceiptStatusFailed {
			revertErr := &domain.RevertedError{
				TxHash:      execHash,
				BlockNumber: receipt.BlockNumber.Uint64(),
				GasUsed:     receipt.GasUsed,
			}
			terminal := e.settle(ctx, safeTxHash, models.StatusReverted, execHash, revertErr)
			e.events.Publish(domain.Event{Type: domain.EventReverted, TxID: safeTxHash, SafeAddress: tx.SafeAddress, Error: revertErr})
			return terminal, revertErr
		}
		terminal := e.settle(ctx, safeTxHash, models.StatusSuccess, execHash, nil)
		e.events.Publish(domain.Event{Type: domain.EventProcessed, TxID: safeTxHash, SafeAddress: tx.SafeAddress})
		e.progress.Info("Transaction confirmed")
		return terminal, nil
	}

	var replaced *domain.ReplacedError
	if errors.As(waitErr, &replaced) {
		switch replaced.Reason {
		case domain.ReplacementCancelled:
			// Another transaction won the nonce; this one will never mine.
			err := fmt.Errorf("execution cancelled: %w", replaced)
			terminal := e.settle(ctx, safeTxHash, models.StatusCancelled, execHash, err)
			e.events.Publish(domain.Event{Type: domain.EventFailed, TxID: safeTxHash, SafeAddress: tx.SafeAddress, Error: err})
			return terminal, err
		case domain.ReplacementRepriced:
			// The repriced transaction is still in flight under tracking;
			// no terminal failure event.
			terminal := e.settle(ctx, safeTxHash, models.StatusRepriced, replaced.Replacement, nil)
			return terminal, nil
		}
	}

	terminal := e.settle(ctx, safeTxHash, models.StatusFailed, execHash, waitErr)
	e.events.Publish(domain.Event{Type: domain.EventFailed, TxID: safeTxHash, SafeAddress: tx.SafeAddress, Error: waitErr})
	return terminal, waitErr
}

// settle writes the terminal status. Terminal states are final: the mutate
// callback refuses to downgrade one that is already set.
func (e *ExecuteTransaction) settle(ctx context.Context, safeTxHash string, status models.TransactionStatus, execHash string, cause error) *models.PendingTransaction {
	updated, err := e.store.UpdateTransaction(ctx, safeTxHash, func(pending *models.PendingTransaction) error {
		if pending.Status.IsTerminal() {
			return fmt.Errorf("%w: already %s", domain.ErrTerminalStatus, pending.Status)
		}
		pending.Status = status
		if execHash != "" {
			pending.ExecutionTxHash = execHash
		}
		if cause != nil {
			pending.FailureReason = cause.Error()
		}
		if status == models.StatusSuccess {
			now := time.Now().UTC()
			pending.ExecutedAt = &now
		}
		return nil
	})
	if err != nil {
		e.log.Error("failed to settle transaction status", "safeTxHash", safeTxHash, "status", status, "err", err)
		return nil
	}
	return updated
}

// buildOuterTx assembles the broadcastable transaction, EIP-1559 when the
// quote carries fee-cap parameters, legacy otherwise.
func buildOuterTx(chainID, nonce uint64, to *common.Address, value *big.Int, gasLimit uint64, quote *GasQuote, data []byte) *types.Transaction {
	if value == nil {
		value = new(big.Int)
	}
	if quote != nil && quote.MaxFeePerGas != nil {
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   new(big.Int).SetUint64(chainID),
			Nonce:     nonce,
			GasTipCap: quote.MaxPriorityFeePerGas,
			GasFeeCap: quote.MaxFeePerGas,
			Gas:       gasLimit,
			To:        to,
			Value:     value,
			Data:      data,
		})
	}
	var gasPrice *big.Int
	if quote != nil {
		gasPrice = quote.GasPrice
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       to,
		Value:    value,
		Data:     data,
	})
}
