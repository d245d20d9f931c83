package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/asaabey/picorule-sentry/internal/catalog"
	"github.com/asaabey/picorule-sentry/internal/metrics"
)

// fileMetricColumns lists the per-file metrics shown by stats --files.
var fileMetricColumns = []struct {
	header string
	metric metrics.MetricType
}{
	{"LINES", metrics.LinesOfCode},
	{"CODE", metrics.CodeLines},
	{"COMMENTS", metrics.CommentLines},
	{"STATEMENTS", metrics.StatementCount},
	{"DIRECTIVES", metrics.DirectiveCount},
	{"BRANCHES", metrics.ConditionalBranches},
	{"TODO", metrics.TodoCount},
	{"FIXME", metrics.FixmeCount},
}

func newStatsCmd() *cobra.Command {
	var files bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, sess, err := loadSnapshot(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headerStyle.Render("Catalog Statistics"))
			fmt.Fprintf(out, "  Built %s\n\n", humanize.Time(snap.Timestamp))
			printStats(out, snap.Stats)

			if files {
				fmt.Fprintln(out)
				printFileMetrics(out, snap)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&files, "files", false, "show per-file source metrics")

	return cmd
}

func printFileMetrics(out io.Writer, snap *catalog.Snapshot) {
	if len(snap.FileMetrics) == 0 {
		fmt.Fprintln(out, "No file metrics recorded.")
		return
	}

	names := make([]string, 0, len(snap.FileMetrics))
	for name := range snap.FileMetrics {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := []string{"FILE"}
	for _, c := range fileMetricColumns {
		headers = append(headers, c.header)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
	for _, name := range names {
		m := snap.FileMetrics[name]
		row := []string{name}
		for _, c := range fileMetricColumns {
			row = append(row, strconv.FormatFloat(m[string(c.metric)], 'f', -1, 64))
		}
		t.Row(row...)
	}
	fmt.Fprintln(out, t.Render())
}
