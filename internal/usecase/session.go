package usecase

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/covault-org/covault-cli/internal/domain/models"
	"github.com/covault-org/covault-cli/internal/safe"
)

// Session binds one (chainId, address, account snapshot) tuple for the
// duration of an operation. There is no ambient current-account singleton:
// every component receives its Session explicitly, and a session is rebuilt
// whenever chain, address or provider changes.
type Session struct {
	ChainID     uint64
	SafeAddress common.Address
	Version     string
	Account     *models.Account
	Contracts   safe.Deployments
}

// NewSession validates the account snapshot and fixes the tuple.
func NewSession(account *models.Account, contracts safe.Deployments) (*Session, error) {
	if err := account.Validate(); err != nil {
		return nil, fmt.Errorf("invalid account: %w", err)
	}
	if !common.IsHexAddress(account.Address) {
		return nil, fmt.Errorf("invalid account address %q", account.Address)
	}
	return &Session{
		ChainID:     account.ChainID,
		SafeAddress: common.HexToAddress(account.Address),
		Version:     account.Version,
		Account:     account,
		Contracts:   contracts,
	}, nil
}

// SigningMethods returns the available methods in fallback priority order.
// Typed-data signing always comes first; the legacy eth_sign method is only
// offered for contract versions that still accept it.
func (s *Session) SigningMethods() []SigningMethod {
	if safe.SupportsEthSign(s.Version) {
		return []SigningMethod{MethodTypedData, MethodEthSign}
	}
	return []SigningMethod{MethodTypedData}
}

// SigningMethod identifies one way of obtaining an owner signature.
type SigningMethod string

const (
	MethodTypedData SigningMethod = "eth_signTypedData"
	MethodEthSign   SigningMethod = "eth_sign"
)
