package signer

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/manifoldco/promptui"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/usecase"
)

// ConfirmingSigner wraps a signer with an interactive yes/no prompt before
// every signature. Declining maps to the user-rejection error so callers
// abort instead of falling through to another signing method.
type ConfirmingSigner struct {
	inner usecase.Signer
}

// NewConfirmingSigner wraps inner with confirmation prompts.
func NewConfirmingSigner(inner usecase.Signer) *ConfirmingSigner {
	return &ConfirmingSigner{inner: inner}
}

func (c *ConfirmingSigner) Address() common.Address {
	return c.inner.Address()
}

func (c *ConfirmingSigner) SignDigest(ctx context.Context, digest common.Hash) ([]byte, error) {
	if err := c.confirm(fmt.Sprintf("Sign hash %s with %s", digest.Hex(), c.Address().Hex())); err != nil {
		return nil, err
	}
	return c.inner.SignDigest(ctx, digest)
}

func (c *ConfirmingSigner) SignMessage(ctx context.Context, digest common.Hash) ([]byte, error) {
	if err := c.confirm(fmt.Sprintf("Sign message %s with %s", digest.Hex(), c.Address().Hex())); err != nil {
		return nil, err
	}
	return c.inner.SignMessage(ctx, digest)
}

func (c *ConfirmingSigner) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	target := "contract creation"
	if tx.To() != nil {
		target = tx.To().Hex()
	}
	if err := c.confirm(fmt.Sprintf("Broadcast transaction to %s (nonce %d)", target, tx.Nonce())); err != nil {
		return nil, err
	}
	return c.inner.SignTx(ctx, tx, chainID)
}

func (c *ConfirmingSigner) confirm(label string) error {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return fmt.Errorf("%w: declined at prompt", domain.ErrUserRejected)
		}
		return err
	}
	return nil
}

var _ usecase.Signer = (*ConfirmingSigner)(nil)
