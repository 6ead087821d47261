package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/domain/models"
	"github.com/covault-org/covault-cli/internal/safe"
)

var deployedProxy = common.HexToAddress("0x7777777777777777777777777777777777777777")

// creationReceipt carries a ProxyCreation event announcing deployedProxy.
func creationReceipt() *types.Receipt {
	data := append(common.LeftPadBytes(deployedProxy.Bytes(), 32),
		common.LeftPadBytes(safe.DefaultDeployments().Singleton.Bytes(), 32)...)
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(51),
		Logs: []*types.Log{{
			Topics: []common.Hash{crypto.Keccak256Hash([]byte("ProxyCreation(address,address)"))},
			Data:   data,
		}},
	}
}

type deployFixture struct {
	store  *memStore
	chain  *fakeChain
	signer *fakeSigner
	deploy *DeployAccount
	owners []string
}

func newDeployFixture(t *testing.T) *deployFixture {
	t.Helper()
	store := newMemStore()
	chain := &fakeChain{chainID: 1, blockNumber: 50}
	signer := newFakeSigner(t)
	other := newFakeSigner(t)
	owners := []string{signer.Address().Hex(), other.Address().Hex()}

	chain.callContract = accountViews(t, []common.Address{signer.Address(), other.Address()}, 2, "1.3.0", 0)

	deploy := NewDeployAccount(store, chain, signer, NopProgress{}, safe.DefaultDeployments(), testLogger())
	deploy.backoff = safe.BackoffConfig{InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, MaxAttempts: 2}
	return &deployFixture{store: store, chain: chain, signer: signer, deploy: deploy, owners: owners}
}

func (f *deployFixture) params() DeployParams {
	return DeployParams{Owners: f.owners, Threshold: 2, SaltNonce: 1}
}

func TestDeployAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("full pipeline", func(t *testing.T) {
		f := newDeployFixture(t)
		f.chain.receipt = creationReceipt()

		record, account, err := f.deploy.Execute(ctx, f.params())
		require.NoError(t, err)

		assert.Equal(t, models.DeploymentIndexed, record.Status)
		assert.Equal(t, deployedProxy.Hex(), record.SafeAddress)
		require.NotNil(t, account)
		assert.Equal(t, deployedProxy.Hex(), account.Address)
		assert.Equal(t, 2, account.Threshold)
		require.Len(t, f.chain.sent, 1)
		assert.Equal(t, safe.DefaultDeployments().ProxyFactory, *f.chain.sent[0].To())

		// The account persists; the record has served its purpose.
		_, err = f.store.GetAccount(ctx, 1, deployedProxy.Hex())
		assert.NoError(t, err)
		_, err = f.store.GetDeployment(ctx, record.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("wallet rejection clears the broadcast", func(t *testing.T) {
		f := newDeployFixture(t)
		f.signer.txErr = fmt.Errorf("%w: declined at prompt", domain.ErrUserRejected)

		record, _, err := f.deploy.Execute(ctx, f.params())
		assert.ErrorIs(t, err, domain.ErrUserRejected)
		assert.Equal(t, models.DeploymentWalletRejected, record.Status)
		assert.Empty(t, record.TxHash)
		// Owners and threshold survive for a retry.
		assert.Equal(t, f.owners, record.Owners)
		assert.Equal(t, 2, record.Threshold)
	})

	t.Run("broadcast failure", func(t *testing.T) {
		f := newDeployFixture(t)
		f.chain.sendErr = errors.New("insufficient funds")

		record, _, err := f.deploy.Execute(ctx, f.params())
		require.Error(t, err)
		assert.Equal(t, models.DeploymentError, record.Status)
		assert.Empty(t, record.TxHash)
	})

	t.Run("creation revert", func(t *testing.T) {
		f := newDeployFixture(t)
		f.chain.receipt = &types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(51)}

		record, _, err := f.deploy.Execute(ctx, f.params())
		require.Error(t, err)
		assert.Equal(t, models.DeploymentReverted, record.Status)
		assert.Empty(t, record.TxHash)
	})

	t.Run("timeout keeps the hash for a resume", func(t *testing.T) {
		f := newDeployFixture(t)
		f.chain.waitErr = fmt.Errorf("%w: no receipt", domain.ErrNetworkTimeout)

		record, _, err := f.deploy.Execute(ctx, f.params())
		assert.ErrorIs(t, err, domain.ErrNetworkTimeout)
		assert.Equal(t, models.DeploymentTimeout, record.Status)
		assert.NotEmpty(t, record.TxHash)
	})

	t.Run("resume skips the broadcast", func(t *testing.T) {
		f := newDeployFixture(t)
		f.chain.receipt = creationReceipt()
		seed := &models.DeploymentRecord{
			ID:         "resume-me",
			ChainID:    1,
			Owners:     f.owners,
			Threshold:  2,
			SaltNonce:  1,
			Status:     models.DeploymentTimeout,
			TxHash:     "0x1111111111111111111111111111111111111111111111111111111111111111",
			StartBlock: 49,
			CreatedAt:  time.Now().UTC(),
		}
		require.NoError(t, f.store.SaveDeployment(ctx, seed))

		record, account, err := f.deploy.Execute(ctx, DeployParams{RecordID: "resume-me"})
		require.NoError(t, err)
		assert.Equal(t, models.DeploymentIndexed, record.Status)
		require.NotNil(t, account)
		assert.Empty(t, f.chain.sent)
	})

	t.Run("repriced creation follows the replacement", func(t *testing.T) {
		f := newDeployFixture(t)
		f.chain.waitErr = &domain.ReplacedError{Reason: domain.ReplacementRepriced, Replacement: "0xreplacement"}
		f.chain.receipt = creationReceipt()

		record, account, err := f.deploy.Execute(ctx, f.params())
		require.NoError(t, err)
		assert.Equal(t, models.DeploymentIndexed, record.Status)
		require.NotNil(t, account)
	})

	t.Run("indexing exhaustion", func(t *testing.T) {
		f := newDeployFixture(t)
		// Confirmed, but the receipt carries no ProxyCreation event.
		f.chain.receipt = &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(51)}

		record, account, err := f.deploy.Execute(ctx, f.params())
		require.Error(t, err)
		assert.Nil(t, account)
		assert.Equal(t, models.DeploymentIndexFailed, record.Status)
	})

	t.Run("invalid owner configuration rejected upfront", func(t *testing.T) {
		f := newDeployFixture(t)
		_, _, err := f.deploy.Execute(ctx, DeployParams{Owners: f.owners, Threshold: 3, SaltNonce: 1})
		require.Error(t, err)
		assert.Empty(t, f.chain.sent)
	})
}
