package models

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
)

// Account is a deployed (or imported) shared account requiring M-of-N
// approvals. It is mutated only from confirmed on-chain reads, never from
// client-side guesses.
type Account struct {
	ChainID        uint64   `json:"chainId"`
	Address        string   `json:"address"`
	Owners         []string `json:"owners"`
	Threshold      int      `json:"threshold"`
	Nonce          uint64   `json:"nonce"`
	Implementation string   `json:"implementation,omitempty"`
	Version        string   `json:"version,omitempty"`

	// Version counter for compare-and-set store writes
	Revision uint64 `json:"revision"`
}

// ID is the store key for an account: "<chainId>:<lowercase address>".
func (a *Account) ID() string {
	return AccountID(a.ChainID, a.Address)
}

// AccountID builds the canonical store key for a (chain, address) pair.
func AccountID(chainID uint64, address string) string {
	return fmt.Sprintf("%d:%s", chainID, strings.ToLower(address))
}

// IsOwner reports whether addr is a member of the owner set.
func (a *Account) IsOwner(addr string) bool {
	want := strings.ToLower(addr)
	return lo.ContainsBy(a.Owners, func(o string) bool {
		return strings.ToLower(o) == want
	})
}

// Validate checks the threshold/owner-set invariant.
func (a *Account) Validate() error {
	if len(a.Owners) == 0 {
		return fmt.Errorf("account has no owners")
	}
	if a.Threshold < 1 || a.Threshold > len(a.Owners) {
		return fmt.Errorf("threshold %d out of range [1, %d]", a.Threshold, len(a.Owners))
	}
	seen := make(map[string]struct{}, len(a.Owners))
	for _, o := range a.Owners {
		if !common.IsHexAddress(o) {
			return fmt.Errorf("owner %q is not a valid address", o)
		}
		key := strings.ToLower(o)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate owner %s", o)
		}
		seen[key] = struct{}{}
	}
	return nil
}
