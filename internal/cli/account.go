package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/covault-org/covault-cli/internal/cli/render"
	"github.com/covault-org/covault-cli/internal/usecase"
)

// NewAccountCmd creates the account command group.
func NewAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage shared accounts",
	}
	cmd.AddCommand(newAccountDeployCmd())
	cmd.AddCommand(newAccountAddCmd())
	cmd.AddCommand(newAccountListCmd())
	return cmd
}

func newAccountDeployCmd() *cobra.Command {
	var (
		owners    []string
		threshold int
		saltNonce uint64
		resumeID  string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a new shared account",
		Long: `Create a new shared account on the selected network and wait until it is
queryable. An interrupted deployment can be resumed with --resume using the
record id printed at creation.`,
		Example: `  # 2-of-3 account
  covault account deploy -n sepolia \
    --owner 0xaaa... --owner 0xbbb... --owner 0xccc... --threshold 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			if resumeID == "" && len(owners) == 0 {
				return fmt.Errorf("pass --owner at least once (or --resume)")
			}

			record, account, err := a.Deploy.Execute(cmd.Context(), usecase.DeployParams{
				Owners:    owners,
				Threshold: threshold,
				SaltNonce: saltNonce,
				Timeout:   timeout,
				RecordID:  resumeID,
			})
			renderer := render.NewAccountRenderer(cmd.OutOrStdout(), a.Config.JSON)
			if record != nil {
				if renderErr := renderer.RenderDeployment(record, account); renderErr != nil {
					return renderErr
				}
			}
			return err
		},
	}

	cmd.Flags().StringArrayVar(&owners, "owner", nil, "Owner address (repeat per owner)")
	cmd.Flags().IntVar(&threshold, "threshold", 1, "Signatures required to execute")
	cmd.Flags().Uint64Var(&saltNonce, "salt", 0, "Create2 salt nonce (vary for multiple identical accounts)")
	cmd.Flags().StringVar(&resumeID, "resume", "", "Resume a deployment record by id")
	cmd.Flags().DurationVar(&timeout, "timeout", usecase.DefaultExecutionTimeout, "Bound on the confirmation wait")
	return cmd
}

func newAccountAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <address>",
		Short: "Import an existing shared account",
		Long: `Validate the address against the chain (code, owner set, threshold,
version) and persist it locally for use by the other commands.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			account, err := a.Add.Execute(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render.NewAccountRenderer(cmd.OutOrStdout(), a.Config.JSON).
				RenderAccount(account)
		},
	}
	return cmd
}

func newAccountListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored shared accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			accounts, err := a.Store.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}
			return render.NewAccountRenderer(cmd.OutOrStdout(), a.Config.JSON).
				RenderAccounts(accounts)
		},
	}
	return cmd
}
