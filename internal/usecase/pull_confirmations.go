package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/domain/models"
	"github.com/covault-org/covault-cli/internal/safe"
)

// PullConfirmations fetches confirmations collected by a remote indexing
// service and merges them into the local signature set with the same union
// semantics as artifact import.
type PullConfirmations struct {
	store  LifecycleStore
	source ConfirmationSource
	log    *slog.Logger
}

// NewPullConfirmations creates the remote confirmation merger.
func NewPullConfirmations(store LifecycleStore, source ConfirmationSource, log *slog.Logger) *PullConfirmations {
	return &PullConfirmations{store: store, source: source, log: log}
}

// Execute pulls and merges. Remote data is advisory: a confirmation that
// fails recovery or owner membership is skipped with a warning instead of
// failing the pull, since one bad service row should not block the rest.
func (p *PullConfirmations) Execute(ctx context.Context, session *Session, safeTxHash string) (*models.PendingTransaction, int, error) {
	tx, err := p.store.GetTransaction(ctx, safeTxHash)
	if err != nil {
		return nil, 0, fmt.Errorf("load transaction %s: %w", safeTxHash, err)
	}
	if tx.Status.IsTerminal() {
		return nil, 0, fmt.Errorf("%w: %s", domain.ErrTerminalStatus, tx.Status)
	}

	confirmations, err := p.source.Confirmations(ctx, safeTxHash)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch confirmations: %w", err)
	}

	digest := common.HexToHash(safeTxHash)
	accepted := map[string]string{}
	for _, c := range confirmations {
		if safe.IsPreValidated(c.Signature) {
			p.log.Warn("skipping pre-validated remote confirmation", "signer", c.Signer)
			continue
		}
		signer, err := safe.RecoverSigner(digest, c.Signature)
		if err != nil {
			p.log.Warn("skipping unrecoverable remote confirmation", "signer", c.Signer, "err", err)
			continue
		}
		if !session.Account.IsOwner(signer.Hex()) {
			p.log.Warn("skipping confirmation from non-owner", "signer", signer.Hex())
			continue
		}
		accepted[signer.Hex()] = c.Signature
	}

	before := len(tx.Signatures)
	updated, err := p.store.UpdateTransaction(ctx, safeTxHash, func(pending *models.PendingTransaction) error {
		if pending.Status.IsTerminal() {
			return fmt.Errorf("%w: %s", domain.ErrTerminalStatus, pending.Status)
		}
		for signer, sig := range accepted {
			pending.Signatures.Add(signer, sig)
		}
		refreshReadiness(pending, session.Account)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	added := len(updated.Signatures) - before
	p.log.Info("pulled confirmations",
		"safeTxHash", safeTxHash, "fetched", len(confirmations), "added", added)
	return updated, added, nil
}
