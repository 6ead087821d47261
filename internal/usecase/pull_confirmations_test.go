package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/domain/models"
	"github.com/covault-org/covault-cli/internal/safe"
)

func TestPullConfirmations(t *testing.T) {
	ctx := context.Background()

	t.Run("merges remote confirmations", func(t *testing.T) {
		store := newMemStore()
		local := newFakeSigner(t)
		remote := newFakeSigner(t)
		session := testSession(t, 1, 2, local, remote)
		tx := seedTransaction(t, store, session, 0)

		source := &fakeSource{rows: []RemoteConfirmation{
			{Signer: remote.Address().Hex(), Signature: ownerSignature(t, remote, tx.SafeTxHash)},
		}}
		pull := NewPullConfirmations(store, source, testLogger())
		updated, added, err := pull.Execute(ctx, session, tx.SafeTxHash)
		require.NoError(t, err)

		assert.Equal(t, 1, added)
		assert.True(t, updated.Signatures.Has(remote.Address().Hex()))
	})

	t.Run("promotes to ready at threshold", func(t *testing.T) {
		store := newMemStore()
		local := newFakeSigner(t)
		remote := newFakeSigner(t)
		session := testSession(t, 1, 2, local, remote)
		tx := seedTransaction(t, store, session, 0)
		_, err := store.UpdateTransaction(ctx, tx.SafeTxHash, func(p *models.PendingTransaction) error {
			p.Signatures.Add(local.Address().Hex(), ownerSignature(t, local, tx.SafeTxHash))
			return nil
		})
		require.NoError(t, err)

		source := &fakeSource{rows: []RemoteConfirmation{
			{Signer: remote.Address().Hex(), Signature: ownerSignature(t, remote, tx.SafeTxHash)},
		}}
		pull := NewPullConfirmations(store, source, testLogger())
		updated, added, err := pull.Execute(ctx, session, tx.SafeTxHash)
		require.NoError(t, err)
		assert.Equal(t, 1, added)
		assert.Equal(t, models.StatusReady, updated.Status)
	})

	t.Run("bad rows are skipped, not fatal", func(t *testing.T) {
		store := newMemStore()
		local := newFakeSigner(t)
		remote := newFakeSigner(t)
		stranger := newFakeSigner(t)
		session := testSession(t, 1, 2, local, remote)
		tx := seedTransaction(t, store, session, 0)

		source := &fakeSource{rows: []RemoteConfirmation{
			// Pre-validated entries must never come from a remote service.
			{Signer: remote.Address().Hex(), Signature: safe.PreValidatedSignature(remote.Address())},
			// Garbage signature.
			{Signer: remote.Address().Hex(), Signature: "0x1234"},
			// Valid signature from a non-owner.
			{Signer: stranger.Address().Hex(), Signature: ownerSignature(t, stranger, tx.SafeTxHash)},
			// The one good row.
			{Signer: remote.Address().Hex(), Signature: ownerSignature(t, remote, tx.SafeTxHash)},
		}}
		pull := NewPullConfirmations(store, source, testLogger())
		updated, added, err := pull.Execute(ctx, session, tx.SafeTxHash)
		require.NoError(t, err)

		assert.Equal(t, 1, added)
		assert.Len(t, updated.Signatures, 1)
		assert.True(t, updated.Signatures.Has(remote.Address().Hex()))
		assert.False(t, updated.Signatures.Has(stranger.Address().Hex()))
	})

	t.Run("source failure propagates", func(t *testing.T) {
		store := newMemStore()
		local := newFakeSigner(t)
		session := testSession(t, 1, 1, local)
		tx := seedTransaction(t, store, session, 0)

		source := &fakeSource{err: errors.New("service unavailable")}
		pull := NewPullConfirmations(store, source, testLogger())
		_, _, err := pull.Execute(ctx, session, tx.SafeTxHash)
		assert.Error(t, err)
	})

	t.Run("terminal transactions reject pulls", func(t *testing.T) {
		store := newMemStore()
		local := newFakeSigner(t)
		session := testSession(t, 1, 1, local)
		tx := seedTransaction(t, store, session, 0)
		_, err := store.UpdateTransaction(ctx, tx.SafeTxHash, func(p *models.PendingTransaction) error {
			p.Status = models.StatusCancelled
			return nil
		})
		require.NoError(t, err)

		pull := NewPullConfirmations(store, &fakeSource{}, testLogger())
		_, _, err = pull.Execute(ctx, session, tx.SafeTxHash)
		assert.ErrorIs(t, err, domain.ErrTerminalStatus)
	})
}
