package models

// ShareArtifact is the portable form of a pending transaction plus its
// partial signature set, exchanged out-of-band between signers. It must
// round-trip losslessly through its encoding.
type ShareArtifact struct {
	SafeTxHash  string                `json:"safeTxHash"`
	Signatures  []string              `json:"signatures"` // 65-byte hex, signer recoverable from the hash
	TxData      TransactionDescriptor `json:"txData"`
	SafeAddress string                `json:"safeAddress"`
	ChainID     string                `json:"chainId"`
}
