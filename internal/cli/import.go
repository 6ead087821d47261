package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/covault-org/covault-cli/internal/cli/render"
	"github.com/covault-org/covault-cli/internal/domain/models"
	"github.com/covault-org/covault-cli/internal/safe"
)

// NewImportCmd creates the import command.
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file-or-link>",
		Short: "Import signatures from a signature file or share link",
		Long: `Merge the signatures carried by a signature file or share link into the
local pending transaction. The merge is additive and idempotent; the whole
artifact is rejected on any validation failure.`,
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

			artifact, err := loadArtifact(args[0])
			if err != nil {
				return err
			}

			result, err := a.Import.Execute(cmd.Context(), session, artifact)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Created {
				fmt.Fprintf(out, "Imported new transaction %s\n", result.Transaction.SafeTxHash)
			}
			fmt.Fprintf(out, "Merged %d new signature(s)\n", result.Added)
			return render.NewTransactionRenderer(out, a.Config.JSON).
				RenderSigned(result.Transaction, session.Account)
		},
	}
	return cmd
}

// loadArtifact decodes the argument as a share link or a file path.
func loadArtifact(arg string) (*models.ShareArtifact, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return safe.DecodeShareLink(arg)
	}
	raw, err := os.ReadFile(arg)
	if err != nil {
		return nil, fmt.Errorf("read signature file: %w", err)
	}
	return safe.DecodeArtifact(raw)
}
