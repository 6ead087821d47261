package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/domain/models"
	"github.com/covault-org/covault-cli/internal/safe"
)

// ImportSignatures merges signatures carried by a share artifact into the
// local pending transaction. The merge is a union: importing the same
// artifact twice is a no-op, and a local signature is never replaced.
type ImportSignatures struct {
	store LifecycleStore
	log   *slog.Logger
}

// NewImportSignatures creates the artifact import use case.
func NewImportSignatures(store LifecycleStore, log *slog.Logger) *ImportSignatures {
	return &ImportSignatures{store: store, log: log}
}

// ImportResult summarizes one import.
type ImportResult struct {
	Transaction *models.PendingTransaction
	// Added is the number of signatures not previously known locally.
	Added int
	// Created is true when the artifact introduced the transaction itself.
	Created bool
}

// Execute validates the artifact against the session and merges it. The
// artifact is accepted or rejected as a whole: a hash mismatch, a foreign
// chain or account, or a signature from a non-owner rejects everything.
func (i *ImportSignatures) Execute(ctx context.Context, session *Session, artifact *models.ShareArtifact) (*ImportResult, error) {
	if err := safe.ValidateArtifact(artifact); err != nil {
		return nil, err
	}
	chainID, err := strconv.ParseUint(artifact.ChainID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: chainId %q", domain.ErrInvalidFormat, artifact.ChainID)
	}
	if chainID != session.ChainID {
		return nil, fmt.Errorf("%w: artifact targets chain %d, session is on %d",
			domain.ErrInvalidFormat, chainID, session.ChainID)
	}
	if !strings.EqualFold(artifact.SafeAddress, session.Account.Address) {
		return nil, fmt.Errorf("%w: artifact targets account %s", domain.ErrInvalidFormat, artifact.SafeAddress)
	}

	// The descriptor must hash to the claimed safeTxHash; signatures bind to
	// the hash, so a mismatch means a tampered or corrupted artifact.
	computed, err := safe.TransactionHash(chainID, session.SafeAddress, &artifact.TxData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}
	if !strings.EqualFold(computed.Hex(), artifact.SafeTxHash) {
		return nil, fmt.Errorf("%w: safeTxHash does not match txData", domain.ErrInvalidFormat)
	}

	recovered, err := i.recoverAll(session, computed, artifact.Signatures)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	tx, err := i.store.GetTransaction(ctx, computed.Hex())
	switch {
	case err == nil:
		// fall through to merge
	case errors.Is(err, domain.ErrNotFound):
		tx = &models.PendingTransaction{
			SafeTxHash:  computed.Hex(),
			SafeAddress: session.Account.Address,
			ChainID:     chainID,
			Descriptor:  artifact.TxData,
			Signatures:  models.SignatureSet{},
			Status:      models.StatusAwaitingSignature,
			ProposedAt:  time.Now().UTC(),
		}
		if err := i.store.PutTransaction(ctx, tx); err != nil {
			return nil, fmt.Errorf("store imported transaction: %w", err)
		}
		result.Created = true
	default:
		return nil, fmt.Errorf("load transaction %s: %w", computed.Hex(), err)
	}

	before := len(tx.Signatures)
	updated, err := i.store.UpdateTransaction(ctx, computed.Hex(), func(pending *models.PendingTransaction) error {
		if pending.Status.IsTerminal() {
			return fmt.Errorf("%w: %s", domain.ErrTerminalStatus, pending.Status)
		}
		for idx, sig := range artifact.Signatures {
			pending.Signatures.Add(recovered[idx].Hex(), sig)
		}
		refreshReadiness(pending, session.Account)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Transaction = updated
	result.Added = len(updated.Signatures) - before
	i.log.Info("imported signatures",
		"safeTxHash", computed.Hex(), "added", result.Added,
		"total", len(updated.Signatures), "threshold", session.Account.Threshold)
	return result, nil
}

// recoverAll resolves every artifact signature to its signer and checks
// owner membership. One bad signature rejects the artifact.
func (i *ImportSignatures) recoverAll(session *Session, digest common.Hash, signatures []string) ([]common.Address, error) {
	recovered := make([]common.Address, len(signatures))
	for idx, sig := range signatures {
		signer, err := safe.RecoverSigner(digest, sig)
		if err != nil {
			return nil, fmt.Errorf("%w: signature %d: %v", domain.ErrInvalidFormat, idx, err)
		}
		if !session.Account.IsOwner(signer.Hex()) {
			return nil, fmt.Errorf("%w: signature %d from non-owner %s", domain.ErrInvalidFormat, idx, signer.Hex())
		}
		recovered[idx] = signer
	}
	return recovered, nil
}
