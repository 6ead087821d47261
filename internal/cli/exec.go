package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/covault-org/covault-cli/internal/cli/render"
	"github.com/covault-org/covault-cli/internal/usecase"
)

// NewExecCmd creates the exec command.
func NewExecCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "exec <safeTxHash>",
		Short: "Execute a threshold-complete transaction",
		Long: `Submit a pending transaction whose signature set meets the account
threshold. The submitter's own signature is replaced on the wire by a
pre-validated marker; once submission starts the chain is authoritative.`,
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

			tx, err := a.Execute.Execute(cmd.Context(), usecase.ExecuteParams{
				Session:    session,
				SafeTxHash: args[0],
				Timeout:    timeout,
			})
			renderer := render.NewTransactionRenderer(cmd.OutOrStdout(), a.Config.JSON)
			if tx != nil {
				if renderErr := renderer.RenderExecuted(tx); renderErr != nil {
					return renderErr
				}
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", usecase.DefaultExecutionTimeout, "Bound on the confirmation wait")
	return cmd
}
