package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/asaabey/picorule-sentry/internal/catalog/embedded"
)

func newExportCmd() *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog variables",
		Long: `Write every catalog variable, one JSON object per line by default, or as
a single JSON array or CSV with --format.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, sess, err := loadSnapshot(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			if format == "jsonl" {
				return embedded.WriteVariables(w, snap)
			}
			return writeVariables(w, snap.Variables, format)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().StringVarP(&format, "format", "f", "jsonl", "output format: jsonl, json or csv")

	return cmd
}
