package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/asaabey/picorule-sentry/internal/catalog"
	"github.com/asaabey/picorule-sentry/internal/linker"
	"github.com/asaabey/picorule-sentry/internal/source"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <ruleblock.variable>",
		Short: "Show one variable with its dependencies and templates",
		Long: `Show every record defining ruleblock.variable: the statement, metadata,
EADV attributes, where each dependency resolves to, and the templates that
reference the variable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, sess, err := loadSnapshot(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			key := args[0]
			records := snap.FindByKey(key)
			if len(records) == 0 {
				return fmt.Errorf("variable %q not found", key)
			}

			out := cmd.OutOrStdout()
			resolver := linker.NewResolver(snap.Variables)
			for i := range records {
				if len(records) > 1 {
					fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%s (definition %d of %d)", key, i+1, len(records))))
				} else {
					fmt.Fprintln(out, headerStyle.Render(key))
				}
				printVariable(out, &records[i], resolver, templateLocator(sess.src))
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

// templateLocator returns a function mapping a template name to where it
// can be read: a web URL for GitHub, a file path for a local pack.
func templateLocator(src source.Source) func(name string) string {
	switch s := src.(type) {
	case *source.GitHub:
		return s.BlobURL
	case *source.Local:
		return func(name string) string { return filepath.Join(s.TemplateDir, name) }
	}
	return func(name string) string { return name }
}

func printVariable(out io.Writer, v *catalog.Variable, resolver *linker.Resolver, locate func(string) string) {
	printKV(out, "Rule block", v.Ruleblock)
	printKV(out, "Variable", v.Variable)
	printKV(out, "Statement type", string(v.StatementType))
	printKV(out, "Label", v.Label)
	printKV(out, "Description", v.Description)
	printKV(out, "Type", v.Type)
	printKV(out, "Reportable", boolYesNo(v.Reportable()))
	printKV(out, "BI object", boolYesNo(v.IsBIObj == "1"))
	printKV(out, "EADV", v.EadvAttributes)
	fmt.Fprintln(out)

	printSection(out, "Statement")
	fmt.Fprintf(out, "    %s\n\n", v.Statement)

	deps := v.Dependencies()
	if len(deps) > 0 {
		printSection(out, "Dependencies")
		for _, dep := range deps {
			if key, ok := resolver.Resolve(dep, v.Ruleblock); ok {
				fmt.Fprintf(out, "    %-28s -> %s\n", dep, key)
			} else {
				fmt.Fprintf(out, "    %-28s (unresolved)\n", dep)
			}
		}
		fmt.Fprintln(out)
	}

	tpls := v.TemplateList()
	if len(tpls) > 0 {
		printSection(out, "Templates")
		for _, name := range tpls {
			fmt.Fprintf(out, "    %-28s %s\n", name, locate(name))
		}
	}
}
