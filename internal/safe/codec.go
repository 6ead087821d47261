package safe

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/covault-org/covault-cli/internal/domain/models"
)

// Signature v bytes. The account contract distinguishes signature kinds by
// the recovery byte: 27/28 are ECDSA over the raw safeTxHash, 31/32 are
// ECDSA over the EIP-191 prefixed hash (legacy eth_sign), and 1 marks a
// pre-validated signature whose "r" word carries the approving owner.
const (
	sigLen = 65

	vPreValidated   = 1
	vECDSAOffset    = 27
	vEthSignOffset  = 31
	maxECDSARecover = 28
	maxEthSignV     = 32
)

// EncodeSignatures packs a signature set into the byte string the account
// contract expects: 65-byte static parts concatenated in ascending signer
// address order. The same set encodes to the same bytes regardless of
// insertion order.
func EncodeSignatures(set models.SignatureSet) ([]byte, error) {
	var buf bytes.Buffer
	for _, signer := range set.Signers() {
		raw, err := hexutil.Decode(set[signer])
		if err != nil {
			return nil, fmt.Errorf("signature of %s: %w", signer, err)
		}
		if len(raw) != sigLen {
			return nil, fmt.Errorf("signature of %s: want %d bytes, got %d", signer, sigLen, len(raw))
		}
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

// PreValidatedSignature synthesizes the signature form the contract accepts
// as valid when the approving owner itself submits the execution call. It
// must never be persisted or shared.
func PreValidatedSignature(owner common.Address) string {
	sig := make([]byte, sigLen)
	copy(sig[12:32], owner.Bytes()) // r = owner, left-padded
	sig[64] = vPreValidated         // s stays zero
	return hexutil.Encode(sig)
}

// IsPreValidated reports whether a signature is the synthetic pre-validated
// form rather than a real ECDSA signature.
func IsPreValidated(signature string) bool {
	raw, err := hexutil.Decode(signature)
	if err != nil || len(raw) != sigLen {
		return false
	}
	return raw[64] == vPreValidated
}

// RecoverSigner recovers the signer address of a 65-byte signature over the
// given safeTxHash. Both the typed-data form (v 27/28) and the legacy
// eth_sign form (v 31/32) are supported; pre-validated entries are rejected
// because they carry no proof outside their own submission.
func RecoverSigner(safeTxHash common.Hash, signature string) (common.Address, error) {
	raw, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("decode signature: %w", err)
	}
	if len(raw) != sigLen {
		return common.Address{}, fmt.Errorf("signature length %d, want %d", len(raw), sigLen)
	}

	v := raw[64]
	digest := safeTxHash.Bytes()

	switch {
	case v == vPreValidated:
		return common.Address{}, fmt.Errorf("pre-validated signature cannot be recovered")
	case v >= vEthSignOffset && v <= maxEthSignV:
		digest = accounts.TextHash(digest)
		v -= vEthSignOffset - vECDSAOffset
		fallthrough
	case v >= vECDSAOffset && v <= maxECDSARecover:
		sig := make([]byte, sigLen)
		copy(sig, raw[:64])
		sig[64] = v - vECDSAOffset
		pub, err := crypto.SigToPub(digest, sig)
		if err != nil {
			return common.Address{}, fmt.Errorf("recover public key: %w", err)
		}
		return crypto.PubkeyToAddress(*pub), nil
	default:
		return common.Address{}, fmt.Errorf("unsupported signature type v=%d", raw[64])
	}
}
