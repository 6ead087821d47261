package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/domain/models"
	"github.com/covault-org/covault-cli/internal/safe"
)

// ExportSignatures builds the portable share artifact for a pending
// transaction so other owners can sign offline.
type ExportSignatures struct {
	store LifecycleStore
	log   *slog.Logger
}

// NewExportSignatures creates the export use case.
func NewExportSignatures(store LifecycleStore, log *slog.Logger) *ExportSignatures {
	return &ExportSignatures{store: store, log: log}
}

// ExportResult carries the artifact in its exchangeable forms.
type ExportResult struct {
	Artifact *models.ShareArtifact
	JSON     []byte
	Filename string
	// Link is only set when Execute received a non-empty origin.
	Link string
}

// Execute assembles the artifact from the stored transaction. Signatures are
// emitted in canonical signer order; the synthetic pre-validated entry never
// exists in the store and so never leaves the process.
func (e *ExportSignatures) Execute(ctx context.Context, session *Session, safeTxHash, origin string) (*ExportResult, error) {
	tx, err := e.store.GetTransaction(ctx, safeTxHash)
	if err != nil {
		return nil, fmt.Errorf("load transaction %s: %w", safeTxHash, err)
	}
	if len(tx.Signatures) == 0 {
		return nil, fmt.Errorf("%w: nothing to share yet", domain.ErrInsufficientSignatures)
	}

	signatures := make([]string, 0, len(tx.Signatures))
	for _, signer := range tx.Signatures.Signers() {
		signatures = append(signatures, tx.Signatures[signer])
	}
	artifact := &models.ShareArtifact{
		SafeTxHash:  tx.SafeTxHash,
		Signatures:  signatures,
		TxData:      tx.Descriptor,
		SafeAddress: tx.SafeAddress,
		ChainID:     strconv.FormatUint(tx.ChainID, 10),
	}

	raw, err := safe.EncodeArtifact(artifact)
	if err != nil {
		return nil, err
	}
	result := &ExportResult{
		Artifact: artifact,
		JSON:     raw,
		Filename: safe.ArtifactFilename(tx.SafeTxHash),
	}
	if origin != "" {
		link, err := safe.EncodeShareLink(artifact, origin)
		if err != nil {
			return nil, err
		}
		result.Link = link
	}
	e.log.Debug("exported signatures", "safeTxHash", tx.SafeTxHash, "count", len(signatures))
	return result, nil
}
