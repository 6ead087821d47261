package models

import (
	"sort"
	"strings"
	"time"
)

// OperationType is the call type of the outer account execution.
type OperationType uint8

const (
	OperationCall         OperationType = 0
	OperationDelegateCall OperationType = 1
)

// TransactionDescriptor is the canonical description of a proposed account
// transaction. It is immutable once its hash has been computed: the hash is
// the signing payload and the key under which signatures aggregate.
type TransactionDescriptor struct {
	To             string        `json:"to"`
	Value          string        `json:"value"` // decimal wei
	Data           string        `json:"data"`  // 0x-prefixed hex
	Operation      OperationType `json:"operation"`
	SafeTxGas      string        `json:"safeTxGas"`
	BaseGas        string        `json:"baseGas"`
	GasPrice       string        `json:"gasPrice"`
	GasToken       string        `json:"gasToken"`
	RefundReceiver string        `json:"refundReceiver"`
	Nonce          uint64        `json:"nonce"`
}

// TransactionStatus is the lifecycle state of a pending transaction.
type TransactionStatus string

const (
	// StatusDraft marks a descriptor still being assembled. The builder
	// hashes and stores in a single step, so persisted transactions start
	// at StatusAwaitingSignature and this state never reaches the store.
	StatusDraft             TransactionStatus = "DRAFT"
	StatusAwaitingSignature TransactionStatus = "AWAITING_SIGNATURES"
	StatusReady             TransactionStatus = "READY"
	StatusSubmitting        TransactionStatus = "SUBMITTING"
	StatusSubmitted         TransactionStatus = "SUBMITTED"
	StatusSuccess           TransactionStatus = "SUCCESS"
	StatusReverted          TransactionStatus = "REVERTED"
	StatusFailed            TransactionStatus = "FAILED"
	StatusCancelled         TransactionStatus = "CANCELLED"
	StatusRepriced          TransactionStatus = "REPRICED"
)

// IsTerminal reports whether s admits no further transitions.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusReverted, StatusFailed, StatusCancelled, StatusRepriced:
		return true
	}
	return false
}

// SignatureSet maps lowercase signer addresses to 0x-prefixed signature hex.
// Every key must be an owner of the account the transaction belongs to (or
// the synthetic pre-validated entry of the submitting signer, which is never
// persisted).
type SignatureSet map[string]string

// Add inserts a signature, normalizing the signer key. Existing entries win:
// merging is additive and never replaces a known signature.
func (s SignatureSet) Add(signer, signature string) {
	key := strings.ToLower(signer)
	if _, ok := s[key]; ok {
		return
	}
	s[key] = signature
}

// Has reports whether the signer already contributed a signature.
func (s SignatureSet) Has(signer string) bool {
	_, ok := s[strings.ToLower(signer)]
	return ok
}

// Signers returns the signer addresses in ascending lowercase order, the
// canonical ordering for on-chain encoding.
func (s SignatureSet) Signers() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy; readers must never observe a set
// mid-merge, so mutations happen on copies swapped in under the store lock.
func (s SignatureSet) Clone() SignatureSet {
	out := make(SignatureSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// PendingTransaction is a proposed transaction and its accumulated
// signatures, keyed by SafeTxHash.
type PendingTransaction struct {
	SafeTxHash  string                `json:"safeTxHash"`
	SafeAddress string                `json:"safeAddress"`
	ChainID     uint64                `json:"chainId"`
	Descriptor  TransactionDescriptor `json:"descriptor"`
	Signatures  SignatureSet          `json:"signatures"`
	Status      TransactionStatus     `json:"status"`

	ProposedBy string    `json:"proposedBy,omitempty"`
	ProposedAt time.Time `json:"proposedAt"`

	// Execution results, set by the dispatcher only
	ExecutionTxHash string     `json:"executionTxHash,omitempty"`
	ExecutedAt      *time.Time `json:"executedAt,omitempty"`
	FailureReason   string     `json:"failureReason,omitempty"`

	// Version counter for compare-and-set store writes
	Revision uint64 `json:"revision"`
}
