package usecase

import (
	"strings"

	"github.com/samber/lo"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/domain/models"
)

// Ready reports whether the accumulated signatures meet the account
// threshold. Signature arrival order is irrelevant.
func Ready(tx *models.PendingTransaction, account *models.Account) bool {
	return len(tx.Signatures) >= account.Threshold
}

// MissingSigners returns the owners that have not signed yet, in the
// account's owner order.
func MissingSigners(tx *models.PendingTransaction, account *models.Account) []string {
	return lo.Filter(account.Owners, func(owner string, _ int) bool {
		return !tx.Signatures.Has(strings.ToLower(owner))
	})
}

// refreshReadiness promotes an awaiting transaction to Ready once the
// threshold is met. Later stages are never touched.
func refreshReadiness(pending *models.PendingTransaction, account *models.Account) {
	if pending.Status == models.StatusAwaitingSignature && Ready(pending, account) {
		pending.Status = models.StatusReady
	}
}

// ExecutionInfoOf builds the multisig execution summary for a pending
// transaction. Module-initiated executions never pass through the local
// queue, so the multisig variant is the only one produced here.
func ExecutionInfoOf(tx *models.PendingTransaction, account *models.Account) domain.ExecutionInfo {
	return domain.MultisigExecutionInfo{
		Nonce:                 tx.Descriptor.Nonce,
		ConfirmationsRequired: account.Threshold,
		ConfirmationsPresent:  len(tx.Signatures),
		MissingSigners:        MissingSigners(tx, account),
	}
}
