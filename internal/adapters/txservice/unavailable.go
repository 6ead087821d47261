package txservice

import (
	"context"
	"fmt"

	"github.com/covault-org/covault-cli/internal/usecase"
)

// Unavailable is the confirmation source used when the selected network has
// no indexing service. Fetching fails with the recorded reason.
type Unavailable struct {
	Reason string
}

func (u Unavailable) Confirmations(ctx context.Context, safeTxHash string) ([]usecase.RemoteConfirmation, error) {
	return nil, fmt.Errorf("confirmation service unavailable: %s", u.Reason)
}

var _ usecase.ConfirmationSource = Unavailable{}
