package cli

import (
	"github.com/spf13/cobra"

	"github.com/covault-org/covault-cli/internal/cli/render"
)

// NewSignCmd creates the sign command.
func NewSignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign <safeTxHash>",
		Short: "Sign a pending transaction",
		Long: `Sign the pending transaction's hash with the configured signer. Typed-data
signing is tried first; the legacy message signing method is used as a
fallback on contract versions that still accept it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			session, err := resolveSession(cmd, a)
			if err != nil {
				return err
			}

			tx, err := a.Sign.Execute(cmd.Context(), session, args[0])
			if err != nil {
				return err
			}
			return render.NewTransactionRenderer(cmd.OutOrStdout(), a.Config.JSON).
				RenderSigned(tx, session.Account)
		},
	}
	return cmd
}
