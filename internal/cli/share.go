package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewShareCmd creates the share command.
func NewShareCmd() *cobra.Command {
	var (
		outDir string
		asLink bool
	)

	cmd := &cobra.Command{
		Use:     "share <safeTxHash>",
		Aliases: []string{"export"},
		Short:   "Export the signature file for offline exchange",
		Long: `Write the transaction and its collected signatures to a portable JSON
file (or a share link) that other owners import to co-sign.`,
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

			origin := ""
			if asLink {
				origin = a.Config.ShareOrigin
				if origin == "" {
					return fmt.Errorf("no share origin configured: set share.origin in covault.toml")
				}
			}

			result, err := a.Export.Execute(cmd.Context(), session, args[0], origin)
			if err != nil {
				return err
			}

			if asLink {
				fmt.Fprintln(cmd.OutOrStdout(), result.Link)
				return nil
			}

			path := filepath.Join(outDir, result.Filename)
			if err := os.WriteFile(path, result.JSON, 0o644); err != nil {
				return fmt.Errorf("write signature file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d signature(s))\n", path, len(result.Artifact.Signatures))
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", ".", "Directory for the signature file")
	cmd.Flags().BoolVar(&asLink, "link", false, "Print a share link instead of writing a file")
	return cmd
}
