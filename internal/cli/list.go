package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/covault-org/covault-cli/internal/cli/render"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var pendingOnly bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the account's transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			session, err := resolveSession(cmd, a)
			if err != nil {
				return err
			}

			txs, err := a.Store.ListTransactions(cmd.Context(), session.ChainID, session.Account.Address)
			if err != nil {
				return err
			}
			if pendingOnly {
				filtered := txs[:0]
				for _, tx := range txs {
					if !tx.Status.IsTerminal() {
						filtered = append(filtered, tx)
					}
				}
				txs = filtered
			}
			sort.Slice(txs, func(i, j int) bool {
				if txs[i].Descriptor.Nonce != txs[j].Descriptor.Nonce {
					return txs[i].Descriptor.Nonce < txs[j].Descriptor.Nonce
				}
				return txs[i].ProposedAt.Before(txs[j].ProposedAt)
			})

			return render.NewTransactionRenderer(cmd.OutOrStdout(), a.Config.JSON).
				RenderList(txs, session.Account)
		},
	}

	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Only show non-terminal transactions")
	return cmd
}
