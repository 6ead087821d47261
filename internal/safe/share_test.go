package safe

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/domain/models"
)

func testArtifact(t *testing.T) *models.ShareArtifact {
	t.Helper()
	digest := crypto.Keccak256Hash([]byte("artifact"))
	_, sig := signTyped(t, keyA, digest)
	return &models.ShareArtifact{
		SafeTxHash:  digest.Hex(),
		Signatures:  []string{sig},
		TxData:      *testDescriptor(),
		SafeAddress: "0x2222222222222222222222222222222222222222",
		ChainID:     "1",
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	artifact := testArtifact(t)

	raw, err := EncodeArtifact(artifact)
	require.NoError(t, err)

	decoded, err := DecodeArtifact(raw)
	require.NoError(t, err)
	assert.Equal(t, artifact, decoded)
}

func TestShareLinkRoundTrip(t *testing.T) {
	artifact := testArtifact(t)

	link, err := EncodeShareLink(artifact, "https://sign.example.org/tx")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://sign.example.org/tx?data="))

	decoded, err := DecodeShareLink(link)
	require.NoError(t, err)
	assert.Equal(t, artifact, decoded)
}

func TestDecodeArtifactErrors(t *testing.T) {
	t.Run("not json", func(t *testing.T) {
		_, err := DecodeArtifact([]byte("not json"))
		assert.ErrorIs(t, err, domain.ErrInvalidFormat)
	})

	t.Run("link without data parameter", func(t *testing.T) {
		_, err := DecodeShareLink("https://sign.example.org/tx")
		assert.ErrorIs(t, err, domain.ErrInvalidFormat)
	})

	t.Run("link with bad base64", func(t *testing.T) {
		_, err := DecodeShareLink("https://sign.example.org/tx?data=!!!")
		assert.ErrorIs(t, err, domain.ErrInvalidFormat)
	})
}

func TestValidateArtifact(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateArtifact(testArtifact(t)))
	})

	t.Run("nil", func(t *testing.T) {
		assert.ErrorIs(t, ValidateArtifact(nil), domain.ErrInvalidFormat)
	})

	t.Run("bad hash", func(t *testing.T) {
		artifact := testArtifact(t)
		artifact.SafeTxHash = "0x1234"
		assert.ErrorIs(t, ValidateArtifact(artifact), domain.ErrInvalidFormat)
	})

	t.Run("no signatures", func(t *testing.T) {
		artifact := testArtifact(t)
		artifact.Signatures = nil
		assert.ErrorIs(t, ValidateArtifact(artifact), domain.ErrInvalidFormat)
	})

	t.Run("bad account address", func(t *testing.T) {
		artifact := testArtifact(t)
		artifact.SafeAddress = "nope"
		assert.ErrorIs(t, ValidateArtifact(artifact), domain.ErrInvalidFormat)
	})

	t.Run("missing chain id", func(t *testing.T) {
		artifact := testArtifact(t)
		artifact.ChainID = ""
		assert.ErrorIs(t, ValidateArtifact(artifact), domain.ErrInvalidFormat)
	})

	t.Run("pre-validated signature rejected", func(t *testing.T) {
		artifact := testArtifact(t)
		artifact.Signatures = append(artifact.Signatures,
			PreValidatedSignature(common.HexToAddress("0x1111111111111111111111111111111111111111")))
		assert.ErrorIs(t, ValidateArtifact(artifact), domain.ErrInvalidFormat)
	})
}

func TestArtifactFilename(t *testing.T) {
	assert.Equal(t, "safe-signature-0x12345678.json",
		ArtifactFilename("0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef"))
	assert.Equal(t, "safe-signature-0xab.json", ArtifactFilename("0xab"))
}
