package safe

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/ethereum/go-ethereum/common"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/domain/models"
)

// EncodeArtifact serializes a share artifact to the JSON document written to
// signature files. The encoding is lossless: DecodeArtifact inverts it.
func EncodeArtifact(artifact *models.ShareArtifact) ([]byte, error) {
	if err := ValidateArtifact(artifact); err != nil {
		return nil, err
	}
	return json.MarshalIndent(artifact, "", "  ")
}

// EncodeShareLink packs the artifact into a URL of the form
// <origin>?data=<base64 of JSON>.
func EncodeShareLink(artifact *models.ShareArtifact, origin string) (string, error) {
	raw, err := EncodeArtifact(artifact)
	if err != nil {
		return "", err
	}
	return origin + "?data=" + base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeArtifact parses and validates a JSON share artifact. A missing or
// malformed field rejects the whole artifact; nothing is partially imported.
func DecodeArtifact(raw []byte) (*models.ShareArtifact, error) {
	var artifact models.ShareArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}
	if err := ValidateArtifact(&artifact); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// DecodeShareLink extracts and decodes the artifact from a share URL.
func DecodeShareLink(link string) (*models.ShareArtifact, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}
	encoded := u.Query().Get("data")
	if encoded == "" {
		return nil, fmt.Errorf("%w: missing data parameter", domain.ErrInvalidFormat)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}
	return DecodeArtifact(raw)
}

// ValidateArtifact checks field presence and shape before acceptance.
func ValidateArtifact(artifact *models.ShareArtifact) error {
	switch {
	case artifact == nil:
		return fmt.Errorf("%w: nil artifact", domain.ErrInvalidFormat)
	case len(artifact.SafeTxHash) != 66 || artifact.SafeTxHash[:2] != "0x":
		return fmt.Errorf("%w: safeTxHash", domain.ErrInvalidFormat)
	case len(artifact.Signatures) == 0:
		return fmt.Errorf("%w: empty signatures", domain.ErrInvalidFormat)
	case !common.IsHexAddress(artifact.TxData.To):
		return fmt.Errorf("%w: txData.to", domain.ErrInvalidFormat)
	case !common.IsHexAddress(artifact.SafeAddress):
		return fmt.Errorf("%w: safeAddress", domain.ErrInvalidFormat)
	case artifact.ChainID == "":
		return fmt.Errorf("%w: chainId", domain.ErrInvalidFormat)
	}
	for i, sig := range artifact.Signatures {
		if IsPreValidated(sig) {
			return fmt.Errorf("%w: signature %d is pre-validated and must not be shared", domain.ErrInvalidFormat, i)
		}
	}
	return nil
}

// ArtifactFilename is the default filename for a downloaded signature file.
func ArtifactFilename(safeTxHash string) string {
	if len(safeTxHash) > 10 {
		safeTxHash = safeTxHash[:10]
	}
	return fmt.Sprintf("safe-signature-%s.json", safeTxHash)
}
