package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/covault-org/covault-cli/internal/cli/render"
)

// NewPullCmd creates the pull command.
func NewPullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull <safeTxHash>",
		Short: "Pull confirmations from the indexing service",
		Long: `Fetch confirmations other owners submitted through the hosted indexing
service and merge them into the local signature set.`,
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

			tx, added, err := a.Pull.Execute(cmd.Context(), session, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Merged %d new signature(s)\n", added)
			return render.NewTransactionRenderer(cmd.OutOrStdout(), a.Config.JSON).
				RenderSigned(tx, session.Account)
		},
	}
	return cmd
}
