package domain

// ExecutionInfo describes how a queued transaction will be (or was) executed.
// It is a closed variant: every consumer must switch over both shapes.
type ExecutionInfo interface {
	isExecutionInfo()
}

// MultisigExecutionInfo is the M-of-N owner confirmation path.
type MultisigExecutionInfo struct {
	Nonce                 uint64
	ConfirmationsRequired int
	ConfirmationsPresent  int
	MissingSigners        []string
}

func (MultisigExecutionInfo) isExecutionInfo() {}

// ModuleExecutionInfo is the module-initiated path; modules bypass owner
// confirmations entirely.
type ModuleExecutionInfo struct {
	ModuleAddress string
}

func (ModuleExecutionInfo) isExecutionInfo() {}
