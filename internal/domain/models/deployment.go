package models

import "time"

// DeploymentStatus is a state of the account creation pipeline.
type DeploymentStatus string

const (
	DeploymentAwaiting       DeploymentStatus = "AWAITING"
	DeploymentProcessing     DeploymentStatus = "PROCESSING"
	DeploymentSuccess        DeploymentStatus = "SUCCESS"
	DeploymentIndexed        DeploymentStatus = "INDEXED"
	DeploymentWalletRejected DeploymentStatus = "WALLET_REJECTED"
	DeploymentReverted       DeploymentStatus = "REVERTED"
	DeploymentTimeout        DeploymentStatus = "TIMEOUT"
	DeploymentError          DeploymentStatus = "ERROR"
	DeploymentIndexFailed    DeploymentStatus = "INDEX_FAILED"
)

// IsTerminal reports whether the pipeline stops at s. Terminal states are
// only left via an explicit user-initiated retry.
func (s DeploymentStatus) IsTerminal() bool {
	switch s {
	case DeploymentIndexed, DeploymentIndexFailed, DeploymentWalletRejected,
		DeploymentReverted, DeploymentTimeout, DeploymentError:
		return true
	}
	return false
}

// DeploymentRecord tracks a not-yet-indexed account creation. Owners,
// threshold and salt survive a failed attempt; the broadcast transaction
// fields are cleared on terminal errors so a retry starts clean.
type DeploymentRecord struct {
	ID        string   `json:"id"`
	ChainID   uint64   `json:"chainId"`
	Owners    []string `json:"owners"`
	Threshold int      `json:"threshold"`
	SaltNonce uint64   `json:"saltNonce"`

	Status      DeploymentStatus `json:"status"`
	TxHash      string           `json:"txHash,omitempty"`
	StartBlock  uint64           `json:"startBlock,omitempty"`
	SafeAddress string           `json:"safeAddress,omitempty"`

	CreatedAt time.Time `json:"createdAt"`

	// Version counter for compare-and-set store writes
	Revision uint64 `json:"revision"`
}

// ClearBroadcast wipes the recorded creation transaction so a retry starts
// from AWAITING with the same owners/threshold/salt.
func (r *DeploymentRecord) ClearBroadcast() {
	r.TxHash = ""
	r.StartBlock = 0
}
