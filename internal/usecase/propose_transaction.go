package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/domain/models"
	"github.com/covault-org/covault-cli/internal/safe"
)

// ProposeTransaction builds a canonical transaction descriptor, computes its
// hash and queues it for signature collection.
type ProposeTransaction struct {
	store LifecycleStore
	chain ChainClient
	log   *slog.Logger
}

// NewProposeTransaction creates the builder use case.
func NewProposeTransaction(store LifecycleStore, chain ChainClient, log *slog.Logger) *ProposeTransaction {
	return &ProposeTransaction{store: store, chain: chain, log: log}
}

// ProposeParams describes either a single call or an ordered batch.
type ProposeParams struct {
	Session *Session

	// Single call
	To        string
	Value     string
	Data      string
	Operation models.OperationType

	// Batch: when non-empty, the single-call fields are ignored and the
	// batch is packed through the multi-send contract. Batched sub-calls
	// must be plain calls.
	Batch []safe.SubCall

	// Reject proposes an empty self-call at RejectNonce to cancel whatever
	// is queued there.
	Reject      bool
	RejectNonce uint64

	// Optional overrides
	Nonce          *uint64
	SafeTxGas      string
	BaseGas        string
	GasPrice       string
	GasToken       string
	RefundReceiver string
	ProposedBy     string
}

// Execute builds, hashes and stores the pending transaction. The descriptor
// is immutable afterwards: the hash is the signing payload.
func (p *ProposeTransaction) Execute(ctx context.Context, params ProposeParams) (*models.PendingTransaction, error) {
	session := params.Session

	desc, err := p.buildDescriptor(ctx, params)
	if err != nil {
		return nil, err
	}

	if params.Nonce != nil {
		desc.Nonce = *params.Nonce
	} else if params.Reject {
		desc.Nonce = params.RejectNonce
	} else {
		nonce, err := accountNonce(ctx, p.chain, session)
		if err != nil {
			return nil, fmt.Errorf("read account nonce: %w", err)
		}
		desc.Nonce = nonce
	}

	hash, err := safe.TransactionHash(session.ChainID, session.SafeAddress, desc)
	if err != nil {
		return nil, fmt.Errorf("compute transaction hash: %w", err)
	}

	tx := &models.PendingTransaction{
		SafeTxHash:  hash.Hex(),
		SafeAddress: session.Account.Address,
		ChainID:     session.ChainID,
		Descriptor:  *desc,
		Signatures:  models.SignatureSet{},
		Status:      models.StatusAwaitingSignature,
		ProposedBy:  params.ProposedBy,
		ProposedAt:  time.Now().UTC(),
	}
	if err := p.store.PutTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("store pending transaction: %w", err)
	}

	p.log.Info("proposed transaction",
		"safeTxHash", tx.SafeTxHash, "nonce", desc.Nonce, "to", desc.To)
	return tx, nil
}

// validateNonce re-checks the descriptor nonce against the current on-chain
// account nonce. Must run immediately before any submission: another signer
// may have consumed the nonce in the meantime.
func validateNonce(ctx context.Context, chain ChainClient, session *Session, tx *models.PendingTransaction) error {
	current, err := accountNonce(ctx, chain, session)
	if err != nil {
		return fmt.Errorf("read account nonce: %w", err)
	}
	if current != tx.Descriptor.Nonce {
		return fmt.Errorf("%w: descriptor nonce %d, account nonce %d",
			domain.ErrStaleNonce, tx.Descriptor.Nonce, current)
	}
	return nil
}

func (p *ProposeTransaction) buildDescriptor(ctx context.Context, params ProposeParams) (*models.TransactionDescriptor, error) {
	desc := &models.TransactionDescriptor{
		Value:          "0",
		Data:           "0x",
		SafeTxGas:      orZero(params.SafeTxGas),
		BaseGas:        orZero(params.BaseGas),
		GasPrice:       orZero(params.GasPrice),
		GasToken:       orZeroAddress(params.GasToken),
		RefundReceiver: orZeroAddress(params.RefundReceiver),
	}

	switch {
	case params.Reject:
		desc.To = params.Session.Account.Address
		desc.Operation = models.OperationCall

	case len(params.Batch) > 0:
		for i, call := range params.Batch {
			if call.Operation != models.OperationCall {
				return nil, fmt.Errorf("batch sub-call %d: only plain calls may be batched", i)
			}
		}
		packed, err := safe.EncodeMultiSend(params.Batch)
		if err != nil {
			return nil, fmt.Errorf("encode batch: %w", err)
		}
		calldata, err := safe.EncodeMultiSendCall(packed)
		if err != nil {
			return nil, fmt.Errorf("encode multiSend call: %w", err)
		}
		desc.To = params.Session.Contracts.MultiSend.Hex()
		desc.Operation = models.OperationDelegateCall
		desc.Data = hexutil.Encode(calldata)

	default:
		if !common.IsHexAddress(params.To) {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAddress, params.To)
		}
		value := orZero(params.Value)
		parsed, ok := new(big.Int).SetString(value, 10)
		if !ok || parsed.Sign() < 0 {
			return nil, fmt.Errorf("value %q is not a non-negative integer", params.Value)
		}
		desc.To = params.To
		desc.Value = value
		desc.Operation = params.Operation
		if params.Data != "" {
			if _, err := hexutil.Decode(params.Data); err != nil {
				return nil, fmt.Errorf("data: %w", err)
			}
			desc.Data = params.Data
		}
	}
	return desc, nil
}

func accountNonce(ctx context.Context, chain ChainClient, session *Session) (uint64, error) {
	ret, err := chain.CallContract(ctx, session.SafeAddress, safe.EncodeGetNonce())
	if err != nil {
		return 0, err
	}
	return safe.UnpackNonce(ret)
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func orZeroAddress(s string) string {
	if s == "" {
		return (common.Address{}).Hex()
	}
	return s
}
