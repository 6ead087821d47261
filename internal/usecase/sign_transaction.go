package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/domain/models"
)

// SignTransaction drives the connected signer through the available signing
// methods in fallback priority order and records exactly one signature.
type SignTransaction struct {
	store  LifecycleStore
	signer Signer
	events EventBus
	log    *slog.Logger
}

// NewSignTransaction creates the signing coordinator.
func NewSignTransaction(store LifecycleStore, signer Signer, events EventBus, log *slog.Logger) *SignTransaction {
	return &SignTransaction{store: store, signer: signer, events: events, log: log}
}

// Execute obtains one signature for the pending transaction's safeTxHash.
// A user rejection aborts the whole operation without trying further
// methods; any other failure falls through to the next method, and the last
// error propagates once all methods are exhausted.
func (s *SignTransaction) Execute(ctx context.Context, session *Session, safeTxHash string) (*models.PendingTransaction, error) {
	tx, err := s.store.GetTransaction(ctx, safeTxHash)
	if err != nil {
		return nil, fmt.Errorf("load transaction %s: %w", safeTxHash, err)
	}
	if tx.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: %s", domain.ErrTerminalStatus, tx.Status)
	}

	signerAddr := s.signer.Address()
	if !session.Account.IsOwner(signerAddr.Hex()) {
		return nil, fmt.Errorf("signer %s is not an owner of %s", signerAddr, session.Account.Address)
	}
	if tx.Signatures.Has(signerAddr.Hex()) {
		return tx, nil
	}

	signature, err := s.trySigningMethods(ctx, session, common.HexToHash(safeTxHash))
	if err != nil {
		s.events.Publish(domain.Event{
			Type:        domain.EventSignFailed,
			TxID:        safeTxHash,
			SafeAddress: tx.SafeAddress,
			Error:       err,
		})
		return nil, err
	}

	updated, err := s.store.UpdateTransaction(ctx, safeTxHash, func(pending *models.PendingTransaction) error {
		if pending.Status.IsTerminal() {
			return fmt.Errorf("%w: %s", domain.ErrTerminalStatus, pending.Status)
		}
		pending.Signatures.Add(signerAddr.Hex(), hexutil.Encode(signature))
		refreshReadiness(pending, session.Account)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record signature: %w", err)
	}

	s.events.Publish(domain.Event{
		Type:        domain.EventSigned,
		TxID:        safeTxHash,
		SafeAddress: tx.SafeAddress,
	})
	s.log.Info("signed transaction",
		"safeTxHash", safeTxHash, "signer", signerAddr.Hex(),
		"signatures", len(updated.Signatures), "threshold", session.Account.Threshold)
	return updated, nil
}

func (s *SignTransaction) trySigningMethods(ctx context.Context, session *Session, digest common.Hash) ([]byte, error) {
	methods := session.SigningMethods()
	var lastErr error
	for _, method := range methods {
		var signature []byte
		var err error
		switch method {
		case MethodTypedData:
			signature, err = s.signer.SignDigest(ctx, digest)
		case MethodEthSign:
			signature, err = s.signer.SignMessage(ctx, digest)
		default:
			err = fmt.Errorf("unknown signing method %q", method)
		}
		if err == nil {
			return signature, nil
		}
		if domain.IsUserRejection(err) {
			return nil, err
		}
		s.log.Debug("signing method failed, trying next", "method", method, "err", err)
		lastErr = err
	}
	return nil, fmt.Errorf("all signing methods exhausted: %w", lastErr)
}
