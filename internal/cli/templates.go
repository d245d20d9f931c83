package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/asaabey/picorule-sentry/internal/catalog"
	"github.com/asaabey/picorule-sentry/internal/linker"
)

func newTemplatesCmd() *cobra.Command {
	var unknown bool

	cmd := &cobra.Command{
		Use:   "templates [name]",
		Short: "List template references",
		Long: `List every template with the ruleblock.variable keys it references. Given a
template name, list only its references and whether each names a catalog
variable. --unknown lists references that name no variable.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, sess, err := loadSnapshot(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			out := cmd.OutOrStdout()

			if unknown {
				refMap := linker.BuildReferenceMap(snap.Templates)
				refs := linker.UnknownReferences(snap.Variables, refMap)
				if len(refs) == 0 {
					fmt.Fprintln(out, "Every template reference names a catalog variable.")
					return nil
				}
				for _, ref := range refs {
					fmt.Fprintf(out, "%-40s %s\n", ref, strings.Join(refMap[ref], ", "))
				}
				return nil
			}

			if len(args) == 1 {
				tpl, ok := findTemplate(snap.Templates, args[0])
				if !ok {
					return fmt.Errorf("template %q not found", args[0])
				}
				fmt.Fprintln(out, headerStyle.Render(tpl.TemplateName))
				for _, ref := range tpl.VariableReferences {
					status := ""
					if len(snap.FindByKey(ref)) == 0 {
						status = "  (unknown)"
					}
					fmt.Fprintf(out, "    %s%s\n", ref, status)
				}
				return nil
			}

			for _, tpl := range snap.Templates {
				fmt.Fprintf(out, "%-40s %d references\n", tpl.TemplateName, len(tpl.VariableReferences))
			}
			fmt.Fprintf(out, "%d templates\n", len(snap.Templates))
			return nil
		},
	}

	cmd.Flags().BoolVar(&unknown, "unknown", false, "list references that name no catalog variable")

	return cmd
}

func findTemplate(tpls []catalog.TemplateReference, name string) (catalog.TemplateReference, bool) {
	for _, t := range tpls {
		if t.TemplateName == name {
			return t, true
		}
	}
	return catalog.TemplateReference{}, false
}
