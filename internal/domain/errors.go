package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the transaction lifecycle
var (
	// ErrNotFound is returned when a requested record doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when trying to create a record that already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidAddress is returned when an Ethereum address is malformed
	ErrInvalidAddress = errors.New("invalid address")

	// ErrUserRejected is returned when the signer declined a wallet prompt.
	// Operations aborted with this error must not be retried.
	ErrUserRejected = errors.New("user rejected")

	// ErrStaleNonce is returned when the descriptor nonce no longer matches the
	// account nonce at submission time; the caller must rebuild the transaction.
	ErrStaleNonce = errors.New("stale nonce")

	// ErrInsufficientSignatures is returned when a submission is attempted below
	// the account threshold. This is a normal intermediate state, not fatal.
	ErrInsufficientSignatures = errors.New("insufficient signatures")

	// ErrInvalidFormat is returned when a share artifact fails validation.
	// The whole artifact is rejected; nothing is partially imported.
	ErrInvalidFormat = errors.New("invalid artifact format")

	// ErrNetworkTimeout is returned when a bounded wait on the chain provider
	// expired. Retryable by the caller.
	ErrNetworkTimeout = errors.New("network timeout")

	// ErrConflict is returned when a compare-and-set write lost against a
	// concurrent status transition.
	ErrConflict = errors.New("concurrent modification")

	// ErrTerminalStatus is returned when mutating a transaction that already
	// reached a terminal status.
	ErrTerminalStatus = errors.New("transaction in terminal status")
)

// RevertedError carries receipt details of an on-chain execution failure.
type RevertedError struct {
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
}

func (e *RevertedError) Error() string {
	return fmt.Sprintf("transaction %s reverted in block %d (gas used %d)", e.TxHash, e.BlockNumber, e.GasUsed)
}

// ReplacementReason classifies how a transaction was replaced at its nonce.
// The classification is best-effort: it depends on comparing the replacing
// transaction's payload against the original and is not a provider contract.
type ReplacementReason string

const (
	ReplacementCancelled ReplacementReason = "cancelled"
	ReplacementRepriced  ReplacementReason = "repriced"
)

// ReplacedError is returned by receipt waits when another transaction was
// mined at the same nonce. Cancelled is terminal; repriced means the
// replacement is still the transaction being tracked.
type ReplacedError struct {
	Reason      ReplacementReason
	Replacement string // hash of the replacing transaction
}

func (e *ReplacedError) Error() string {
	return fmt.Sprintf("transaction replaced (%s) by %s", e.Reason, e.Replacement)
}

// IsUserRejection reports whether err was caused by the signer declining.
func IsUserRejection(err error) bool {
	return errors.Is(err, ErrUserRejected)
}
