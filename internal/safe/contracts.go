package safe

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/covault-org/covault-cli/internal/domain/models"
)

// Canonical v1.3.0 deployment addresses, identical across supported chains.
// Overridable per network in covault.toml.
type Deployments struct {
	Singleton       common.Address `toml:"singleton"`
	ProxyFactory    common.Address `toml:"proxy_factory"`
	FallbackHandler common.Address `toml:"fallback_handler"`
	MultiSend       common.Address `toml:"multi_send"`
}

// MustAddress parses a hex address, panicking on malformed input. Only for
// configuration values validated at load time.
func MustAddress(s string) common.Address {
	if !common.IsHexAddress(s) {
		panic(fmt.Sprintf("invalid address %q", s))
	}
	return common.HexToAddress(s)
}

// DefaultDeployments returns the canonical v1.3.0 contract set.
func DefaultDeployments() Deployments {
	return Deployments{
		Singleton:       common.HexToAddress("0x3E5c63644E683549055b9Be8653de26E0B4CD36E"),
		ProxyFactory:    common.HexToAddress("0xa6B71E26C5e0845f74c812102Ca7114b6a896AB2"),
		FallbackHandler: common.HexToAddress("0xf48f2B2d2a534e402487b3ee7C18c33Aec0Fe5e4"),
		MultiSend:       common.HexToAddress("0x40A2aCCbd92BCA938b02010E17A5b8929b49130D"),
	}
}

const safeABIJSON = `[
	{"type":"function","name":"execTransaction","inputs":[
		{"name":"to","type":"address"},{"name":"value","type":"uint256"},
		{"name":"data","type":"bytes"},{"name":"operation","type":"uint8"},
		{"name":"safeTxGas","type":"uint256"},{"name":"baseGas","type":"uint256"},
		{"name":"gasPrice","type":"uint256"},{"name":"gasToken","type":"address"},
		{"name":"refundReceiver","type":"address"},{"name":"signatures","type":"bytes"}],
		"outputs":[{"name":"success","type":"bool"}]},
	{"type":"function","name":"setup","inputs":[
		{"name":"_owners","type":"address[]"},{"name":"_threshold","type":"uint256"},
		{"name":"to","type":"address"},{"name":"data","type":"bytes"},
		{"name":"fallbackHandler","type":"address"},{"name":"paymentToken","type":"address"},
		{"name":"payment","type":"uint256"},{"name":"paymentReceiver","type":"address"}],
		"outputs":[]},
	{"type":"function","name":"getOwners","stateMutability":"view","inputs":[],
		"outputs":[{"name":"","type":"address[]"}]},
	{"type":"function","name":"getThreshold","stateMutability":"view","inputs":[],
		"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"nonce","stateMutability":"view","inputs":[],
		"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"VERSION","stateMutability":"view","inputs":[],
		"outputs":[{"name":"","type":"string"}]}
]`

const factoryABIJSON = `[
	{"type":"function","name":"createProxyWithNonce","inputs":[
		{"name":"_singleton","type":"address"},{"name":"initializer","type":"bytes"},
		{"name":"saltNonce","type":"uint256"}],
		"outputs":[{"name":"proxy","type":"address"}]},
	{"type":"event","name":"ProxyCreation","inputs":[
		{"name":"proxy","type":"address","indexed":false},
		{"name":"singleton","type":"address","indexed":false}],"anonymous":false}
]`

const multiSendABIJSON = `[
	{"type":"function","name":"multiSend","stateMutability":"payable","inputs":[
		{"name":"transactions","type":"bytes"}],"outputs":[]}
]`

var (
	safeABI      = mustParseABI(safeABIJSON)
	factoryABI   = mustParseABI(factoryABIJSON)
	multiSendABI = mustParseABI(multiSendABIJSON)

	// ProxyCreation topic is the same for every contract version; only the
	// placement of the proxy address (data vs. indexed topic) differs.
	proxyCreationTopic = crypto.Keccak256Hash([]byte("ProxyCreation(address,address)"))
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// EncodeExecTransaction packs the execTransaction calldata for a descriptor
// and its canonically encoded signatures.
func EncodeExecTransaction(desc *models.TransactionDescriptor, signatures []byte) ([]byte, error) {
	value, err := parseBig(desc.Value)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	safeTxGas, err := parseBig(desc.SafeTxGas)
	if err != nil {
		return nil, fmt.Errorf("safeTxGas: %w", err)
	}
	baseGas, err := parseBig(desc.BaseGas)
	if err != nil {
		return nil, fmt.Errorf("baseGas: %w", err)
	}
	gasPrice, err := parseBig(desc.GasPrice)
	if err != nil {
		return nil, fmt.Errorf("gasPrice: %w", err)
	}
	data, err := parseData(desc.Data)
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	return safeABI.Pack("execTransaction",
		common.HexToAddress(desc.To),
		value,
		data,
		uint8(desc.Operation),
		safeTxGas,
		baseGas,
		gasPrice,
		common.HexToAddress(desc.GasToken),
		common.HexToAddress(desc.RefundReceiver),
		signatures,
	)
}

// EncodeSetup packs the initializer executed by the proxy on creation.
func EncodeSetup(owners []common.Address, threshold int, fallbackHandler common.Address) ([]byte, error) {
	return safeABI.Pack("setup",
		owners,
		big.NewInt(int64(threshold)),
		common.Address{},
		[]byte{},
		fallbackHandler,
		common.Address{},
		big.NewInt(0),
		common.Address{},
	)
}

// EncodeCreateProxyWithNonce packs the factory call deploying a new account.
func EncodeCreateProxyWithNonce(singleton common.Address, initializer []byte, saltNonce uint64) ([]byte, error) {
	return factoryABI.Pack("createProxyWithNonce", singleton, initializer, new(big.Int).SetUint64(saltNonce))
}

// EncodeMultiSendCall wraps a packed batch into multiSend calldata.
func EncodeMultiSendCall(packed []byte) ([]byte, error) {
	return multiSendABI.Pack("multiSend", packed)
}

// View call encoders and decoders for confirmed on-chain account reads.

func EncodeGetOwners() []byte    { return safeABI.Methods["getOwners"].ID }
func EncodeGetThreshold() []byte { return safeABI.Methods["getThreshold"].ID }
func EncodeGetNonce() []byte     { return safeABI.Methods["nonce"].ID }
func EncodeGetVersion() []byte   { return safeABI.Methods["VERSION"].ID }

func UnpackOwners(ret []byte) ([]common.Address, error) {
	out, err := safeABI.Unpack("getOwners", ret)
	if err != nil {
		return nil, err
	}
	owners, ok := out[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("unexpected getOwners return type %T", out[0])
	}
	return owners, nil
}

func UnpackThreshold(ret []byte) (int, error) {
	out, err := safeABI.Unpack("getThreshold", ret)
	if err != nil {
		return 0, err
	}
	threshold, ok := out[0].(*big.Int)
	if !ok || !threshold.IsInt64() {
		return 0, fmt.Errorf("unexpected getThreshold return")
	}
	return int(threshold.Int64()), nil
}

func UnpackNonce(ret []byte) (uint64, error) {
	out, err := safeABI.Unpack("nonce", ret)
	if err != nil {
		return 0, err
	}
	nonce, ok := out[0].(*big.Int)
	if !ok || !nonce.IsUint64() {
		return 0, fmt.Errorf("unexpected nonce return")
	}
	return nonce.Uint64(), nil
}

func UnpackVersion(ret []byte) (string, error) {
	out, err := safeABI.Unpack("VERSION", ret)
	if err != nil {
		return "", err
	}
	version, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected VERSION return type %T", out[0])
	}
	return version, nil
}

// DecodeProxyCreation extracts the deployed account address from a creation
// receipt. Contract versions before 1.4.1 emit both addresses in the event
// data (single topic); 1.4.1+ index the proxy as topics[1]. Both encodings
// are handled.
func DecodeProxyCreation(receipt *types.Receipt) (common.Address, error) {
	for _, log := range receipt.Logs {
		if len(log.Topics) == 0 || log.Topics[0] != proxyCreationTopic {
			continue
		}
		if len(log.Topics) == 1 {
			if len(log.Data) < 32 {
				return common.Address{}, fmt.Errorf("ProxyCreation data too short: %d bytes", len(log.Data))
			}
			return common.BytesToAddress(log.Data[12:32]), nil
		}
		return common.BytesToAddress(log.Topics[1].Bytes()[12:]), nil
	}
	return common.Address{}, fmt.Errorf("no ProxyCreation event in receipt")
}

// SupportsEthSign reports whether the account contract version still accepts
// the legacy eth_sign signature form. Versions below 1.1.0 (and unknown
// versions) restrict signing to typed data.
func SupportsEthSign(version string) bool {
	major, minor, ok := parseVersion(version)
	if !ok {
		return false
	}
	return major > 1 || (major == 1 && minor >= 1)
}

func parseVersion(version string) (major, minor int, ok bool) {
	base, _, _ := strings.Cut(version, "+")
	parts := strings.Split(base, ".")
	if len(parts) < 2 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}

func parseBig(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not a decimal integer", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%q is negative", s)
	}
	return v, nil
}
