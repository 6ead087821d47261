package safe

import (
	"bytes"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/covault-org/covault-cli/internal/domain/models"
)

// SubCall is one call inside a multi-send batch.
type SubCall struct {
	Operation models.OperationType
	To        common.Address
	Value     *big.Int
	Data      []byte
}

// multi-send item layout:
// operation(1) || to(20) || value(32) || dataLength(32) || data(dataLength)
const subCallHeaderLen = 1 + 20 + 32 + 32

// EncodeMultiSend packs an ordered batch of sub-calls into the multi-send
// payload format.
func EncodeMultiSend(calls []SubCall) ([]byte, error) {
	if len(calls) == 0 {
		return nil, fmt.Errorf("empty batch")
	}
	var buf bytes.Buffer
	for i, call := range calls {
		value := new(big.Int)
		if call.Value != nil {
			value.Set(call.Value)
		}
		if value.Sign() < 0 {
			return nil, fmt.Errorf("sub-call %d: negative value", i)
		}
		word, overflow := uint256.FromBig(value)
		if overflow {
			return nil, fmt.Errorf("sub-call %d: value overflows uint256", i)
		}
		buf.WriteByte(byte(call.Operation))
		buf.Write(call.To.Bytes())
		buf.Write(word.PaddedBytes(32))
		buf.Write(uint256.NewInt(uint64(len(call.Data))).PaddedBytes(32))
		buf.Write(call.Data)
	}
	return buf.Bytes(), nil
}

// DecodeMultiSend walks the packed payload and returns the sub-calls it
// contains. Decoding is advisory: a malformed item is logged and skipped
// (along with the undecodable tail, whose length can no longer be trusted)
// instead of failing the well-formed items before it.
func DecodeMultiSend(data []byte, log *slog.Logger) []SubCall {
	var calls []SubCall
	cursor := 0
	for cursor < len(data) {
		if len(data)-cursor < subCallHeaderLen {
			log.Warn("truncated multi-send item header, dropping tail",
				"offset", cursor, "remaining", len(data)-cursor)
			break
		}
		op := data[cursor]
		if op > byte(models.OperationDelegateCall) {
			log.Warn("unknown multi-send operation, dropping tail", "offset", cursor, "operation", op)
			break
		}
		to := common.BytesToAddress(data[cursor+1 : cursor+21])
		value := new(big.Int).SetBytes(data[cursor+21 : cursor+53])
		length := new(big.Int).SetBytes(data[cursor+53 : cursor+85])

		if !length.IsUint64() || length.Uint64() > uint64(len(data)-cursor-subCallHeaderLen) {
			log.Warn("multi-send item length exceeds payload, dropping tail",
				"offset", cursor, "length", length.String())
			break
		}
		n := int(length.Uint64())
		payload := make([]byte, n)
		copy(payload, data[cursor+subCallHeaderLen:cursor+subCallHeaderLen+n])

		calls = append(calls, SubCall{
			Operation: models.OperationType(op),
			To:        to,
			Value:     value,
			Data:      payload,
		})
		cursor += subCallHeaderLen + n
	}
	return calls
}
