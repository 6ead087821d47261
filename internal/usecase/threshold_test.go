package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/domain/models"
)

func thresholdFixture() (*models.PendingTransaction, *models.Account) {
	account := &models.Account{
		ChainID: 1,
		Address: "0x2222222222222222222222222222222222222222",
		Owners: []string{
			"0xAAA0000000000000000000000000000000000001",
			"0xBBB0000000000000000000000000000000000002",
			"0xCCC0000000000000000000000000000000000003",
		},
		Threshold: 2,
	}
	tx := &models.PendingTransaction{
		SafeTxHash: "0xhash",
		Signatures: models.SignatureSet{},
		Status:     models.StatusAwaitingSignature,
	}
	return tx, account
}

func TestReady(t *testing.T) {
	tx, account := thresholdFixture()
	assert.False(t, Ready(tx, account))

	tx.Signatures.Add(account.Owners[0], "0x01")
	assert.False(t, Ready(tx, account))

	tx.Signatures.Add(account.Owners[1], "0x02")
	assert.True(t, Ready(tx, account))

	// Above threshold stays ready.
	tx.Signatures.Add(account.Owners[2], "0x03")
	assert.True(t, Ready(tx, account))
}

func TestMissingSigners(t *testing.T) {
	tx, account := thresholdFixture()
	assert.Equal(t, account.Owners, MissingSigners(tx, account))

	// Case differences must not hide a signature.
	tx.Signatures.Add("0xaaa0000000000000000000000000000000000001", "0x01")
	assert.Equal(t, account.Owners[1:], MissingSigners(tx, account))

	tx.Signatures.Add(account.Owners[1], "0x02")
	tx.Signatures.Add(account.Owners[2], "0x03")
	assert.Empty(t, MissingSigners(tx, account))
}

func TestRefreshReadiness(t *testing.T) {
	t.Run("promotes at threshold", func(t *testing.T) {
		tx, account := thresholdFixture()
		tx.Signatures.Add(account.Owners[0], "0x01")
		tx.Signatures.Add(account.Owners[1], "0x02")

		refreshReadiness(tx, account)
		assert.Equal(t, models.StatusReady, tx.Status)
	})

	t.Run("below threshold stays awaiting", func(t *testing.T) {
		tx, account := thresholdFixture()
		tx.Signatures.Add(account.Owners[0], "0x01")

		refreshReadiness(tx, account)
		assert.Equal(t, models.StatusAwaitingSignature, tx.Status)
	})

	t.Run("never touches later stages", func(t *testing.T) {
		tx, account := thresholdFixture()
		tx.Signatures.Add(account.Owners[0], "0x01")
		tx.Signatures.Add(account.Owners[1], "0x02")
		tx.Status = models.StatusSubmitted

		refreshReadiness(tx, account)
		assert.Equal(t, models.StatusSubmitted, tx.Status)
	})
}

func TestExecutionInfoOf(t *testing.T) {
	tx, account := thresholdFixture()
	tx.Descriptor.Nonce = 9
	tx.Signatures.Add(account.Owners[0], "0x01")

	info := ExecutionInfoOf(tx, account)
	multisig, ok := info.(domain.MultisigExecutionInfo)
	assert.True(t, ok)
	assert.Equal(t, uint64(9), multisig.Nonce)
	assert.Equal(t, 2, multisig.ConfirmationsRequired)
	assert.Equal(t, 1, multisig.ConfirmationsPresent)
	assert.Equal(t, account.Owners[1:], multisig.MissingSigners)
}
