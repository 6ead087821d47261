package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/domain/models"
	"github.com/covault-org/covault-cli/internal/safe"
)

// deployFallbackGas is used when gas estimation fails: broadcast anyway and
// let the node judge, rather than aborting the deployment.
const deployFallbackGas = 500_000

// DeployAccount drives the create → await-confirmation → poll-for-indexing
// pipeline for a new shared account.
type DeployAccount struct {
	store     LifecycleStore
	chain     ChainClient
	signer    Signer
	progress  ProgressSink
	contracts safe.Deployments
	backoff   safe.BackoffConfig
	log       *slog.Logger
}

// NewDeployAccount creates the deployment state machine.
func NewDeployAccount(
	store LifecycleStore,
	chain ChainClient,
	signer Signer,
	progress ProgressSink,
	contracts safe.Deployments,
	log *slog.Logger,
) *DeployAccount {
	return &DeployAccount{
		store:     store,
		chain:     chain,
		signer:    signer,
		progress:  progress,
		contracts: contracts,
		backoff:   safe.IndexingBackoff,
		log:       log,
	}
}

// DeployParams describe the account to create.
type DeployParams struct {
	Owners    []string
	Threshold int
	SaltNonce uint64
	// Timeout for the creation receipt wait; DefaultExecutionTimeout when zero.
	Timeout time.Duration
	// RecordID resumes an existing deployment record instead of creating one.
	RecordID string
}

// Execute runs the pipeline until a terminal state. On INDEXED the account
// is persisted and the deployment record destroyed; on WALLET_REJECTED,
// ERROR or REVERTED the broadcast fields are cleared so a retry starts
// clean, preserving owners/threshold/salt.
func (d *DeployAccount) Execute(ctx context.Context, params DeployParams) (*models.DeploymentRecord, *models.Account, error) {
	record, err := d.loadOrCreateRecord(ctx, params)
	if err != nil {
		return nil, nil, err
	}

	if record.TxHash == "" {
		record, err = d.broadcast(ctx, record)
		if err != nil {
			return record, nil, err
		}
	}

	record, err = d.awaitConfirmation(ctx, record, params.Timeout)
	if err != nil || record.Status != models.DeploymentSuccess {
		return record, nil, err
	}

	return d.pollIndexing(ctx, record)
}

func (d *DeployAccount) loadOrCreateRecord(ctx context.Context, params DeployParams) (*models.DeploymentRecord, error) {
	if params.RecordID != "" {
		record, err := d.store.GetDeployment(ctx, params.RecordID)
		if err != nil {
			return nil, fmt.Errorf("load deployment record %s: %w", params.RecordID, err)
		}
		record.Status = models.DeploymentAwaiting
		return record, nil
	}

	chainID, err := d.chain.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read chain id: %w", err)
	}
	record := &models.DeploymentRecord{
		ID:        uuid.NewString(),
		ChainID:   chainID,
		Owners:    params.Owners,
		Threshold: params.Threshold,
		SaltNonce: params.SaltNonce,
		Status:    models.DeploymentAwaiting,
		CreatedAt: time.Now().UTC(),
	}
	probe := &models.Account{ChainID: chainID, Address: (common.Address{}).Hex(), Owners: params.Owners, Threshold: params.Threshold}
	if err := probe.Validate(); err != nil {
		return nil, err
	}
	if err := d.store.SaveDeployment(ctx, record); err != nil {
		return nil, fmt.Errorf("store deployment record: %w", err)
	}
	return record, nil
}

// broadcast builds and sends the creation transaction (AWAITING → PROCESSING).
func (d *DeployAccount) broadcast(ctx context.Context, record *models.DeploymentRecord) (*models.DeploymentRecord, error) {
	d.progress.Step("Broadcasting account creation")

	owners := make([]common.Address, len(record.Owners))
	for i, o := range record.Owners {
		owners[i] = common.HexToAddress(o)
	}
	initializer, err := safe.EncodeSetup(owners, record.Threshold, d.contracts.FallbackHandler)
	if err != nil {
		return record, fmt.Errorf("encode setup: %w", err)
	}
	calldata, err := safe.EncodeCreateProxyWithNonce(d.contracts.Singleton, initializer, record.SaltNonce)
	if err != nil {
		return record, fmt.Errorf("encode createProxyWithNonce: %w", err)
	}

	from := d.signer.Address()
	nonce, err := d.chain.NonceAt(ctx, from)
	if err != nil {
		return record, fmt.Errorf("read sender nonce: %w", err)
	}
	quote, err := d.chain.SuggestPricing(ctx)
	if err != nil {
		return record, fmt.Errorf("gas pricing: %w", err)
	}

	factory := d.contracts.ProxyFactory
	gasLimit, err := d.chain.EstimateGas(ctx, from, &factory, nil, calldata)
	if err != nil {
		d.log.Warn("gas estimation failed, using fallback limit", "err", err)
		gasLimit = deployFallbackGas
	}

	startBlock, err := d.chain.BlockNumber(ctx)
	if err != nil {
		startBlock = 0
	}

	outer := buildOuterTx(record.ChainID, nonce, &factory, nil, gasLimit, quote, calldata)
	signed, err := d.signer.SignTx(ctx, outer, new(big.Int).SetUint64(record.ChainID))
	if err != nil {
		if domain.IsUserRejection(err) {
			return d.fail(ctx, record, models.DeploymentWalletRejected, err)
		}
		return d.fail(ctx, record, models.DeploymentError, err)
	}
	if err := d.chain.SendTransaction(ctx, signed); err != nil {
		return d.fail(ctx, record, models.DeploymentError, err)
	}

	record, err = d.store.UpdateDeployment(ctx, record.ID, func(r *models.DeploymentRecord) error {
		r.TxHash = signed.Hash().Hex()
		r.StartBlock = startBlock
		r.Status = models.DeploymentProcessing
		return nil
	})
	if err != nil {
		return record, err
	}
	d.log.Info("creation broadcast", "record", record.ID, "txHash", record.TxHash)
	return record, nil
}

// awaitConfirmation watches the broadcast transaction (PROCESSING → SUCCESS
// or a side exit).
func (d *DeployAccount) awaitConfirmation(ctx context.Context, record *models.DeploymentRecord, timeout time.Duration) (*models.DeploymentRecord, error) {
	if timeout <= 0 {
		timeout = DefaultExecutionTimeout
	}
	d.progress.Step("Waiting for creation confirmation")

	txHash := common.HexToHash(record.TxHash)
	receipt, waitErr := d.chain.WaitForReceipt(ctx, txHash, d.signer.Address(), record.StartBlock, timeout)

	switch {
	case waitErr == nil && receipt.Status == types.ReceiptStatusFailed:
		return d.fail(ctx, record, models.DeploymentReverted, fmt.Errorf("creation reverted in block %d", receipt.BlockNumber.Uint64()))

	case waitErr == nil:
		return d.transition(ctx, record, models.DeploymentSuccess)

	case errors.Is(waitErr, domain.ErrNetworkTimeout):
		// The transaction may still mine; keep txHash for a later resume.
		record, err := d.transition(ctx, record, models.DeploymentTimeout)
		if err != nil {
			return record, err
		}
		return record, waitErr

	default:
		var replaced *domain.ReplacedError
		if errors.As(waitErr, &replaced) {
			if replaced.Reason == domain.ReplacementCancelled {
				return d.fail(ctx, record, models.DeploymentError, waitErr)
			}
			// Repriced: the replacement carries the same creation call.
			record, err := d.store.UpdateDeployment(ctx, record.ID, func(r *models.DeploymentRecord) error {
				r.TxHash = replaced.Replacement
				r.Status = models.DeploymentSuccess
				return nil
			})
			if err != nil {
				return record, err
			}
			return record, nil
		}
		if domain.IsUserRejection(waitErr) {
			return d.fail(ctx, record, models.DeploymentWalletRejected, waitErr)
		}
		return d.fail(ctx, record, models.DeploymentError, waitErr)
	}
}

// pollIndexing polls for the deployed account to become queryable (SUCCESS →
// INDEXED | INDEX_FAILED) with bounded exponential backoff.
func (d *DeployAccount) pollIndexing(ctx context.Context, record *models.DeploymentRecord) (*models.DeploymentRecord, *models.Account, error) {
	d.progress.Step("Waiting for account to be indexed")

	var account *models.Account
	pollErr := safe.Retry(ctx, d.backoff, func(ctx context.Context) error {
		receipt, err := d.chain.TransactionReceipt(ctx, common.HexToHash(record.TxHash))
		if err != nil {
			return fmt.Errorf("creation receipt: %w", err)
		}
		address, err := safe.DecodeProxyCreation(receipt)
		if err != nil {
			return err
		}
		account, err = fetchAccount(ctx, d.chain, record.ChainID, address)
		if err != nil {
			return err
		}
		return nil
	})
	if pollErr != nil {
		d.log.Warn("indexing polling exhausted", "record", record.ID, "err", pollErr)
		record, err := d.transition(ctx, record, models.DeploymentIndexFailed)
		if err != nil {
			return record, nil, err
		}
		return record, nil, pollErr
	}

	if err := d.store.SaveAccount(ctx, account); err != nil {
		return record, nil, fmt.Errorf("store account: %w", err)
	}
	record, err := d.store.UpdateDeployment(ctx, record.ID, func(r *models.DeploymentRecord) error {
		r.SafeAddress = account.Address
		r.Status = models.DeploymentIndexed
		return nil
	})
	if err != nil {
		return record, account, err
	}
	// The record has served its purpose once the account is indexed.
	if err := d.store.DeleteDeployment(ctx, record.ID); err != nil {
		d.log.Warn("could not clear deployment record", "record", record.ID, "err", err)
	}
	d.progress.Info(fmt.Sprintf("Account %s deployed", account.Address))
	return record, account, nil
}

func (d *DeployAccount) transition(ctx context.Context, record *models.DeploymentRecord, status models.DeploymentStatus) (*models.DeploymentRecord, error) {
	return d.store.UpdateDeployment(ctx, record.ID, func(r *models.DeploymentRecord) error {
		r.Status = status
		return nil
	})
}

// fail moves to a terminal error state and clears the broadcast fields so a
// retry starts clean.
func (d *DeployAccount) fail(ctx context.Context, record *models.DeploymentRecord, status models.DeploymentStatus, cause error) (*models.DeploymentRecord, error) {
	updated, err := d.store.UpdateDeployment(ctx, record.ID, func(r *models.DeploymentRecord) error {
		r.Status = status
		r.ClearBroadcast()
		return nil
	})
	if err != nil {
		return record, err
	}
	d.progress.Error(fmt.Sprintf("Deployment %s: %v", strings.ToLower(string(status)), cause))
	return updated, cause
}
