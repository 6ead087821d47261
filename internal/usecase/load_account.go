package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/domain/models"
	"github.com/covault-org/covault-cli/internal/safe"
)

// fetchAccount loads an account's configuration from confirmed on-chain
// reads only: code presence, implementation from storage slot 0, then the
// owner set, threshold and version via view calls. A failure at any step
// means the account is not queryable (yet).
func fetchAccount(ctx context.Context, chain ChainClient, chainID uint64, address common.Address) (*models.Account, error) {
	code, err := chain.CodeAt(ctx, address)
	if err != nil {
		return nil, err
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("no code at %s", address.Hex())
	}
	implementation, err := chain.StorageAt(ctx, address, common.Hash{})
	if err != nil {
		return nil, err
	}
	if common.BytesToHash(implementation) == (common.Hash{}) {
		return nil, fmt.Errorf("nothing set on storage slot 0 in %s", address.Hex())
	}

	ret, err := chain.CallContract(ctx, address, safe.EncodeGetOwners())
	if err != nil {
		return nil, err
	}
	owners, err := safe.UnpackOwners(ret)
	if err != nil {
		return nil, err
	}
	ret, err = chain.CallContract(ctx, address, safe.EncodeGetThreshold())
	if err != nil {
		return nil, err
	}
	threshold, err := safe.UnpackThreshold(ret)
	if err != nil {
		return nil, err
	}
	version := ""
	if ret, err = chain.CallContract(ctx, address, safe.EncodeGetVersion()); err == nil {
		version, _ = safe.UnpackVersion(ret)
	}

	ownerStrs := make([]string, len(owners))
	for i, o := range owners {
		ownerStrs[i] = strings.ToLower(o.Hex())
	}
	account := &models.Account{
		ChainID:        chainID,
		Address:        address.Hex(),
		Owners:         ownerStrs,
		Threshold:      threshold,
		Implementation: common.BytesToAddress(implementation).Hex(),
		Version:        version,
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}
	return account, nil
}

// AddAccount imports an already deployed shared account by address.
type AddAccount struct {
	store LifecycleStore
	chain ChainClient
	log   *slog.Logger
}

// NewAddAccount creates the account import use case.
func NewAddAccount(store LifecycleStore, chain ChainClient, log *slog.Logger) *AddAccount {
	return &AddAccount{store: store, chain: chain, log: log}
}

// Execute validates the address against the chain and persists the account.
func (a *AddAccount) Execute(ctx context.Context, address string) (*models.Account, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAddress, address)
	}
	chainID, err := a.chain.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read chain id: %w", err)
	}
	account, err := fetchAccount(ctx, a.chain, chainID, common.HexToAddress(address))
	if err != nil {
		return nil, fmt.Errorf("validate account %s: %w", address, err)
	}
	// Read the current on-chain nonce so a fresh proposal starts from it.
	if ret, err := a.chain.CallContract(ctx, common.HexToAddress(address), safe.EncodeGetNonce()); err == nil {
		if nonce, err := safe.UnpackNonce(ret); err == nil {
			account.Nonce = nonce
		}
	}
	if err := a.store.SaveAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("store account: %w", err)
	}
	a.log.Info("account added", "chainId", chainID, "address", account.Address,
		"owners", len(account.Owners), "threshold", account.Threshold)
	return account, nil
}
