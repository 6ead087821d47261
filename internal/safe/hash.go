package safe

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/covault-org/covault-cli/internal/domain/models"
)

// EIP-712 type hashes of the shared account contract (v1.3.0+ domain).
var (
	domainSeparatorTypehash = crypto.Keccak256Hash(
		[]byte("EIP712Domain(uint256 chainId,address verifyingContract)"),
	)
	safeTxTypehash = crypto.Keccak256Hash(
		[]byte("SafeTx(address to,uint256 value,bytes data,uint8 operation,uint256 safeTxGas,uint256 baseGas,uint256 gasPrice,address gasToken,address refundReceiver,uint256 nonce)"),
	)
)

// DomainSeparator computes the EIP-712 domain hash binding signatures to one
// (chain, account) pair.
func DomainSeparator(chainID uint64, account common.Address) common.Hash {
	return crypto.Keccak256Hash(
		domainSeparatorTypehash.Bytes(),
		uint256.NewInt(chainID).PaddedBytes(32),
		common.LeftPadBytes(account.Bytes(), 32),
	)
}

// TransactionHash computes the canonical safeTxHash of a descriptor: the
// signing payload and the key under which signatures aggregate. The
// descriptor must not change after this is computed.
func TransactionHash(chainID uint64, account common.Address, desc *models.TransactionDescriptor) (common.Hash, error) {
	if !common.IsHexAddress(desc.To) {
		return common.Hash{}, fmt.Errorf("descriptor target %q: invalid address", desc.To)
	}
	value, err := parseWord(desc.Value)
	if err != nil {
		return common.Hash{}, fmt.Errorf("descriptor value: %w", err)
	}
	safeTxGas, err := parseWord(desc.SafeTxGas)
	if err != nil {
		return common.Hash{}, fmt.Errorf("descriptor safeTxGas: %w", err)
	}
	baseGas, err := parseWord(desc.BaseGas)
	if err != nil {
		return common.Hash{}, fmt.Errorf("descriptor baseGas: %w", err)
	}
	gasPrice, err := parseWord(desc.GasPrice)
	if err != nil {
		return common.Hash{}, fmt.Errorf("descriptor gasPrice: %w", err)
	}
	data, err := parseData(desc.Data)
	if err != nil {
		return common.Hash{}, fmt.Errorf("descriptor data: %w", err)
	}

	structHash := crypto.Keccak256Hash(
		safeTxTypehash.Bytes(),
		common.LeftPadBytes(common.HexToAddress(desc.To).Bytes(), 32),
		value,
		crypto.Keccak256(data),
		uint256.NewInt(uint64(desc.Operation)).PaddedBytes(32),
		safeTxGas,
		baseGas,
		gasPrice,
		common.LeftPadBytes(common.HexToAddress(desc.GasToken).Bytes(), 32),
		common.LeftPadBytes(common.HexToAddress(desc.RefundReceiver).Bytes(), 32),
		uint256.NewInt(desc.Nonce).PaddedBytes(32),
	)

	separator := DomainSeparator(chainID, account)
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, separator.Bytes(), structHash.Bytes()), nil
}

// parseWord parses a non-negative decimal integer into a 32-byte word.
// An empty string counts as zero.
func parseWord(s string) ([]byte, error) {
	if s == "" {
		return make([]byte, 32), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not a decimal integer", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%q is negative", s)
	}
	word, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%q overflows uint256", s)
	}
	return word.PaddedBytes(32), nil
}

// parseData decodes 0x-prefixed hex payload; empty means no calldata.
func parseData(s string) ([]byte, error) {
	if s == "" || s == "0x" {
		return []byte{}, nil
	}
	return hexutil.Decode(s)
}
