package cli

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/covault-org/covault-cli/internal/cli/render"
	"github.com/covault-org/covault-cli/internal/safe"
	"github.com/covault-org/covault-cli/internal/usecase"
)

// batchEntry is one item of a --batch file.
type batchEntry struct {
	To    string `json:"to"`
	Value string `json:"value"`
	Data  string `json:"data"`
}

// NewProposeCmd creates the propose command.
func NewProposeCmd() *cobra.Command {
	var (
		to          string
		value       string
		data        string
		batchFile   string
		reject      bool
		rejectNonce uint64
		nonce       int64
	)

	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Propose a transaction for signature collection",
		Long: `Propose a transaction from the shared account. The proposal computes the
transaction hash that owners sign; the descriptor is immutable afterwards.

A batch file is a JSON array of {"to", "value", "data"} items, packed into
one atomic multi-send execution.`,
		Example: `  # Simple transfer
  covault propose --to 0xabc... --value 1000000000000000000

  # Contract call
  covault propose --to 0xabc... --data 0xa9059cbb...

  # Atomic batch
  covault propose --batch calls.json

  # Replace whatever is queued at nonce 7
  covault propose --reject --reject-nonce 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			session, err := resolveSession(cmd, a)
			if err != nil {
				return err
			}

			params := usecase.ProposeParams{
				Session:     session,
				To:          to,
				Value:       value,
				Data:        data,
				Reject:      reject,
				RejectNonce: rejectNonce,
				ProposedBy:  a.Signer.Address().Hex(),
			}
			if nonce >= 0 {
				n := uint64(nonce)
				params.Nonce = &n
			}
			if batchFile != "" {
				batch, err := loadBatchFile(batchFile)
				if err != nil {
					return err
				}
				params.Batch = batch
			}

			tx, err := a.Propose.Execute(cmd.Context(), params)
			if err != nil {
				return err
			}
			return render.NewTransactionRenderer(cmd.OutOrStdout(), a.Config.JSON).
				RenderProposed(tx, session.Account)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	cmd.Flags().StringVar(&value, "value", "", "Value in wei (decimal)")
	cmd.Flags().StringVar(&data, "data", "", "Calldata (0x-prefixed hex)")
	cmd.Flags().StringVar(&batchFile, "batch", "", "JSON file with sub-calls to pack atomically")
	cmd.Flags().BoolVar(&reject, "reject", false, "Propose an empty self-call to cancel the queued nonce")
	cmd.Flags().Uint64Var(&rejectNonce, "reject-nonce", 0, "Nonce to cancel (with --reject)")
	cmd.Flags().Int64Var(&nonce, "nonce", -1, "Explicit account nonce (default: current on-chain nonce)")

	return cmd
}

// loadBatchFile parses a JSON batch file into multi-send sub-calls.
func loadBatchFile(path string) ([]safe.SubCall, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	var entries []batchEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse batch file: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("batch file %s is empty", path)
	}

	calls := make([]safe.SubCall, len(entries))
	for i, e := range entries {
		if !common.IsHexAddress(e.To) {
			return nil, fmt.Errorf("batch item %d: invalid address %q", i, e.To)
		}
		value := new(big.Int)
		if e.Value != "" {
			parsed, ok := value.SetString(e.Value, 10)
			if !ok || parsed.Sign() < 0 {
				return nil, fmt.Errorf("batch item %d: value %q is not a non-negative integer", i, e.Value)
			}
		}
		var data []byte
		if e.Data != "" && e.Data != "0x" {
			data, err = hexutil.Decode(e.Data)
			if err != nil {
				return nil, fmt.Errorf("batch item %d: data: %w", i, err)
			}
		}
		calls[i] = safe.SubCall{To: common.HexToAddress(e.To), Value: value, Data: data}
	}
	return calls, nil
}
