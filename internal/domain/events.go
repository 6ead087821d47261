package domain

import "fmt"

// EventType identifies a lifecycle event emitted by the engine.
type EventType string

const (
	// EventExecuting is emitted synchronously when submission starts.
	EventExecuting EventType = "EXECUTING"
	// EventProcessing is emitted when the receipt wait starts.
	EventProcessing EventType = "PROCESSING"
	// EventProcessed is emitted on clean confirmation.
	EventProcessed EventType = "PROCESSED"
	// EventSigned is emitted when a signature was obtained.
	EventSigned EventType = "SIGNED"
	// EventSignFailed is emitted when all signing methods were exhausted
	// or the signer rejected.
	EventSignFailed EventType = "SIGN_FAILED"
	// EventFailed is emitted on any terminal failure other than a revert.
	EventFailed EventType = "FAILED"
	// EventReverted is emitted when the receipt indicates a revert.
	EventReverted EventType = "REVERTED"
)

// Event is a lifecycle notification for a single transaction. Delivery is
// idempotent per TxID: duplicates are acceptable, omission is not.
type Event struct {
	Type        EventType
	TxID        string
	SafeAddress string
	Error       error
}

func (e Event) String() string {
	if e.Error != nil {
		return fmt.Sprintf("%s tx=%s err=%v", e.Type, e.TxID, e.Error)
	}
	return fmt.Sprintf("%s tx=%s", e.Type, e.TxID)
}
