package safe

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covault-org/covault-cli/internal/domain/models"
)

func signTyped(t *testing.T, keyHex string, digest common.Hash) (common.Address, string) {
	t.Helper()
	key, err := crypto.HexToECDSA(keyHex)
	require.NoError(t, err)
	sig, err := crypto.Sign(digest.Bytes(), key)
	require.NoError(t, err)
	sig[64] += 27
	return crypto.PubkeyToAddress(key.PublicKey), hexutil.Encode(sig)
}

func signEthSign(t *testing.T, keyHex string, digest common.Hash) (common.Address, string) {
	t.Helper()
	key, err := crypto.HexToECDSA(keyHex)
	require.NoError(t, err)
	sig, err := crypto.Sign(accounts.TextHash(digest.Bytes()), key)
	require.NoError(t, err)
	sig[64] += 31
	return crypto.PubkeyToAddress(key.PublicKey), hexutil.Encode(sig)
}

const (
	keyA = "4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"
	keyB = "6cbed15c793ce57650b9877cf6fa156fbef513c4e6134f022a85b1ffdd59b2a1"
)

func TestRecoverSigner(t *testing.T) {
	digest := crypto.Keccak256Hash([]byte("payload"))

	t.Run("typed data signature", func(t *testing.T) {
		addr, sig := signTyped(t, keyA, digest)
		got, err := RecoverSigner(digest, sig)
		require.NoError(t, err)
		assert.Equal(t, addr, got)
	})

	t.Run("eth_sign signature", func(t *testing.T) {
		addr, sig := signEthSign(t, keyA, digest)
		got, err := RecoverSigner(digest, sig)
		require.NoError(t, err)
		assert.Equal(t, addr, got)
	})

	t.Run("pre-validated is rejected", func(t *testing.T) {
		sig := PreValidatedSignature(common.HexToAddress("0x1111111111111111111111111111111111111111"))
		_, err := RecoverSigner(digest, sig)
		assert.Error(t, err)
	})

	t.Run("wrong digest recovers a different address", func(t *testing.T) {
		addr, sig := signTyped(t, keyA, digest)
		other := crypto.Keccak256Hash([]byte("other payload"))
		got, err := RecoverSigner(other, sig)
		require.NoError(t, err)
		assert.NotEqual(t, addr, got)
	})

	t.Run("bad inputs", func(t *testing.T) {
		_, err := RecoverSigner(digest, "0x1234")
		assert.Error(t, err)
		_, err = RecoverSigner(digest, "not hex")
		assert.Error(t, err)

		raw := make([]byte, 65)
		raw[64] = 99
		_, err = RecoverSigner(digest, hexutil.Encode(raw))
		assert.Error(t, err)
	})
}

func TestEncodeSignatures(t *testing.T) {
	digest := crypto.Keccak256Hash([]byte("payload"))
	addrA, sigA := signTyped(t, keyA, digest)
	addrB, sigB := signTyped(t, keyB, digest)

	t.Run("order independent", func(t *testing.T) {
		one := models.SignatureSet{}
		one.Add(addrA.Hex(), sigA)
		one.Add(addrB.Hex(), sigB)

		two := models.SignatureSet{}
		two.Add(addrB.Hex(), sigB)
		two.Add(addrA.Hex(), sigA)

		encodedOne, err := EncodeSignatures(one)
		require.NoError(t, err)
		encodedTwo, err := EncodeSignatures(two)
		require.NoError(t, err)
		assert.Equal(t, encodedOne, encodedTwo)
		assert.Len(t, encodedOne, 130)
	})

	t.Run("ascending signer order", func(t *testing.T) {
		set := models.SignatureSet{}
		set.Add(addrA.Hex(), sigA)
		set.Add(addrB.Hex(), sigB)
		encoded, err := EncodeSignatures(set)
		require.NoError(t, err)

		first := encoded[:65]
		lowSig := sigA
		if strings.ToLower(addrB.Hex()) < strings.ToLower(addrA.Hex()) {
			lowSig = sigB
		}
		raw, err := hexutil.Decode(lowSig)
		require.NoError(t, err)
		assert.Equal(t, raw, first)
	})

	t.Run("rejects malformed entries", func(t *testing.T) {
		set := models.SignatureSet{}
		set.Add(addrA.Hex(), "0x1234")
		_, err := EncodeSignatures(set)
		assert.Error(t, err)
	})
}

func TestPreValidatedSignature(t *testing.T) {
	owner := common.HexToAddress("0xAbCd111111111111111111111111111111111111")
	sig := PreValidatedSignature(owner)

	raw, err := hexutil.Decode(sig)
	require.NoError(t, err)
	require.Len(t, raw, 65)

	assert.Equal(t, owner.Bytes(), raw[12:32])
	assert.Equal(t, byte(1), raw[64])
	assert.True(t, IsPreValidated(sig))

	_, typedSig := signTyped(t, keyA, crypto.Keccak256Hash([]byte("x")))
	assert.False(t, IsPreValidated(typedSig))
	assert.False(t, IsPreValidated("0x1234"))
}
