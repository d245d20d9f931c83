package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/asaabey/picorule-sentry/internal/indexer"
)

func newParseCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Extract variables or references from a single file",
		Long: `Run the extractor for one file without fetching the rule pack. A .prb
file prints its variables; a .txt template prints its references.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			res, err := indexer.DefaultRegistry().Parse(filepath.Base(args[0]), content)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Template != nil {
				for _, ref := range res.Template.VariableReferences {
					fmt.Fprintln(out, ref)
				}
				return nil
			}
			return writeVariables(out, res.Variables, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, json or csv")

	return cmd
}
