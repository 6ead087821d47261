package cli

import (
	"github.com/spf13/cobra"

	"github.com/covault-org/covault-cli/internal/cli/render"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <safeTxHash>",
		Short: "Show one transaction in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			session, err := resolveSession(cmd, a)
			if err != nil {
				return err
			}

			tx, err := a.Store.GetTransaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render.NewTransactionRenderer(cmd.OutOrStdout(), a.Config.JSON).
				RenderDetail(tx, session.Account)
		},
	}
	return cmd
}
