package signer

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/covault-org/covault-cli/internal/usecase"
)

// ErrNoSigner is returned when a signing operation runs without a key.
var ErrNoSigner = errors.New("no signer configured: set COVAULT_PRIVATE_KEY")

// Missing is the signer used when no key is configured. Construction always
// succeeds so read-only commands work; any signing attempt fails.
type Missing struct{}

func (Missing) Address() common.Address {
	return common.Address{}
}

func (Missing) SignDigest(ctx context.Context, digest common.Hash) ([]byte, error) {
	return nil, ErrNoSigner
}

func (Missing) SignMessage(ctx context.Context, digest common.Hash) ([]byte, error) {
	return nil, ErrNoSigner
}

func (Missing) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return nil, ErrNoSigner
}

var _ usecase.Signer = Missing{}
