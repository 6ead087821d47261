package safe

import (
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covault-org/covault-cli/internal/domain/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEncodeMultiSend(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		calls := []SubCall{
			{
				Operation: models.OperationCall,
				To:        common.HexToAddress("0x1111111111111111111111111111111111111111"),
				Value:     big.NewInt(42),
				Data:      []byte{0xde, 0xad, 0xbe, 0xef},
			},
			{
				Operation: models.OperationCall,
				To:        common.HexToAddress("0x2222222222222222222222222222222222222222"),
				Value:     big.NewInt(0),
				Data:      nil,
			},
		}
		packed, err := EncodeMultiSend(calls)
		require.NoError(t, err)

		decoded := DecodeMultiSend(packed, discardLogger())
		require.Len(t, decoded, 2)
		assert.Equal(t, calls[0].To, decoded[0].To)
		assert.Equal(t, int64(42), decoded[0].Value.Int64())
		assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, decoded[0].Data)
		assert.Equal(t, calls[1].To, decoded[1].To)
		assert.Equal(t, int64(0), decoded[1].Value.Int64())
		assert.Empty(t, decoded[1].Data)
	})

	t.Run("preserves order", func(t *testing.T) {
		calls := []SubCall{
			{To: common.HexToAddress("0x0000000000000000000000000000000000000001"), Value: big.NewInt(1)},
			{To: common.HexToAddress("0x0000000000000000000000000000000000000002"), Value: big.NewInt(2)},
			{To: common.HexToAddress("0x0000000000000000000000000000000000000003"), Value: big.NewInt(3)},
		}
		packed, err := EncodeMultiSend(calls)
		require.NoError(t, err)
		decoded := DecodeMultiSend(packed, discardLogger())
		require.Len(t, decoded, 3)
		for i := range calls {
			assert.Equal(t, calls[i].To, decoded[i].To)
		}
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		_, err := EncodeMultiSend(nil)
		assert.Error(t, err)
	})

	t.Run("negative value rejected", func(t *testing.T) {
		_, err := EncodeMultiSend([]SubCall{{
			To:    common.HexToAddress("0x1111111111111111111111111111111111111111"),
			Value: big.NewInt(-1),
		}})
		assert.Error(t, err)
	})
}

func TestDecodeMultiSend(t *testing.T) {
	valid := []SubCall{{
		Operation: models.OperationCall,
		To:        common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Value:     big.NewInt(5),
		Data:      []byte{0x01, 0x02},
	}}

	t.Run("truncated tail dropped", func(t *testing.T) {
		packed, err := EncodeMultiSend(valid)
		require.NoError(t, err)
		packed = append(packed, 0x00, 0x01, 0x02)

		decoded := DecodeMultiSend(packed, discardLogger())
		require.Len(t, decoded, 1)
		assert.Equal(t, valid[0].To, decoded[0].To)
	})

	t.Run("oversized length drops tail", func(t *testing.T) {
		packed, err := EncodeMultiSend(valid)
		require.NoError(t, err)
		// Claim more payload bytes than the buffer holds.
		packed[1+20+32+31] = 0xFF

		decoded := DecodeMultiSend(packed, discardLogger())
		assert.Empty(t, decoded)
	})

	t.Run("unknown operation drops tail", func(t *testing.T) {
		packed, err := EncodeMultiSend(valid)
		require.NoError(t, err)
		packed[0] = 7

		decoded := DecodeMultiSend(packed, discardLogger())
		assert.Empty(t, decoded)
	})

	t.Run("empty payload", func(t *testing.T) {
		assert.Empty(t, DecodeMultiSend(nil, discardLogger()))
	})
}
