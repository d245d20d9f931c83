package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/asaabey/picorule-sentry/internal/catalog"
)

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

// csvHeader lists the record fields in their serialized order.
var csvHeader = []string{
	"ruleblock", "variable", "statement_type", "statement", "label", "description",
	"type", "is_reportable", "is_bi_obj", "eadv_attributes", "depends_on", "referenced_in_templates",
}

func newVariablesCmd() *cobra.Command {
	var (
		search        string
		ruleblock     string
		statementType string
		hasMetadata   string
		reportable    string
		templates     string
		format        string
	)

	cmd := &cobra.Command{
		Use:     "variables",
		Aliases: []string{"vars", "ls"},
		Short:   "List and filter catalog variables",
		Long: `List the variables of the catalog, optionally filtered.

Tristate filters (--has-metadata, --reportable, --templates) accept
yes, no or all.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := buildFilter(search, ruleblock, statementType, hasMetadata, reportable, templates)
			if err != nil {
				return err
			}

			snap, sess, err := loadSnapshot(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			vars := filter.Apply(snap.Variables)
			return writeVariables(cmd.OutOrStdout(), vars, format)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive search over variable, label, description and rule block")
	cmd.Flags().StringVarP(&ruleblock, "ruleblock", "r", "", "only variables of this rule block")
	cmd.Flags().StringVarP(&statementType, "type", "t", "", "statement type: functional or conditional")
	cmd.Flags().StringVar(&hasMetadata, "has-metadata", "all", "variables with a label: yes, no or all")
	cmd.Flags().StringVar(&reportable, "reportable", "all", "reportable variables: yes, no or all")
	cmd.Flags().StringVar(&templates, "templates", "all", "variables referenced by a template: yes, no or all")
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, json or csv")

	return cmd
}

// buildFilter validates the flag values and assembles a catalog.Filter.
func buildFilter(search, ruleblock, statementType, hasMetadata, reportable, templates string) (catalog.Filter, error) {
	f := catalog.Filter{Search: search, Ruleblock: ruleblock}

	switch catalog.StatementType(statementType) {
	case "", catalog.Functional, catalog.Conditional:
		f.StatementType = catalog.StatementType(statementType)
	default:
		return f, fmt.Errorf("invalid --type %q: want functional or conditional", statementType)
	}

	for _, tf := range []struct {
		flag  string
		value string
		dst   *catalog.Tristate
	}{
		{"has-metadata", hasMetadata, &f.HasMetadata},
		{"reportable", reportable, &f.IsReportable},
		{"templates", templates, &f.HasTemplates},
	} {
		ts, ok := catalog.ParseTristate(tf.value)
		if !ok {
			return f, fmt.Errorf("invalid --%s %q: want yes, no or all", tf.flag, tf.value)
		}
		*tf.dst = ts
	}
	return f, nil
}

// writeVariables renders vars in the requested format.
func writeVariables(out io.Writer, vars []catalog.Variable, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(vars)
	case formatCSV:
		w := csv.NewWriter(out)
		if err := w.Write(csvHeader); err != nil {
			return err
		}
		for i := range vars {
			v := &vars[i]
			if err := w.Write([]string{
				v.Ruleblock, v.Variable, string(v.StatementType), v.Statement, v.Label, v.Description,
				v.Type, v.IsReportable, v.IsBIObj, v.EadvAttributes, v.DependsOn, v.ReferencedInTemplates,
			}); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	case formatTable:
		if len(vars) == 0 {
			fmt.Fprintln(out, "No variables match.")
			return nil
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("RULEBLOCK", "VARIABLE", "TYPE", "LABEL", "TEMPLATES")
		for i := range vars {
			v := &vars[i]
			t.Row(v.Ruleblock, v.Variable, string(v.StatementType), v.Label, fmt.Sprintf("%d", len(v.TemplateList())))
		}
		fmt.Fprintln(out, t.Render())
		fmt.Fprintf(out, "%d variables\n", len(vars))
		return nil
	}
	return fmt.Errorf("unknown format %q: want table, json or csv", format)
}
