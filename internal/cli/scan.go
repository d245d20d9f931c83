package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/asaabey/picorule-sentry/internal/catalog"
)

func newScanCmd() *cobra.Command {
	var (
		refresh bool
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Fetch and index the rule pack",
		Long: `Load the variable catalog. A cached snapshot is served when one exists for
the configured cache version; otherwise every rule block and template is
fetched, parsed and cross-referenced, and the result is cached.

Use --refresh to ignore the cache and rebuild.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			progress := newFetchProgress(cmd.ErrOrStderr(), quiet)
			sess, err := openSession(cmd, progress.Update)
			if err != nil {
				return err
			}
			defer sess.Close()

			start := time.Now()
			snap, fromCache, err := sess.loader.Load(cmd.Context(), refresh)
			progress.Finish()
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}

			out := cmd.OutOrStdout()
			if fromCache {
				fmt.Fprintf(out, "Loaded from cache %s (built %s)\n", sess.loader.Version(), humanize.Time(snap.Timestamp))
			} else {
				fmt.Fprintf(out, "Indexed %d rule blocks and %d templates in %s\n",
					len(snap.RuleblockFiles), len(snap.TemplateFiles), time.Since(start).Round(time.Millisecond))
			}
			fmt.Fprintln(out)
			printStats(out, snap.Stats)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cache and rebuild the catalog")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress bars")

	return cmd
}

// printStats writes the catalog counters as an aligned block.
func printStats(out io.Writer, s catalog.Stats) {
	fmt.Fprintf(out, "  Total variables:     %s\n", humanize.Comma(int64(s.TotalVariables)))
	fmt.Fprintf(out, "  Functional:          %s\n", humanize.Comma(int64(s.FunctionalCount)))
	fmt.Fprintf(out, "  Conditional:         %s\n", humanize.Comma(int64(s.ConditionalCount)))
	fmt.Fprintf(out, "  With metadata:       %s\n", humanize.Comma(int64(s.WithMetadataCount)))
	fmt.Fprintf(out, "  Without metadata:    %s\n", humanize.Comma(int64(s.WithoutMetadataCount)))
	fmt.Fprintf(out, "  Rule blocks:         %s\n", humanize.Comma(int64(s.TotalRuleblocks)))
	fmt.Fprintf(out, "  Used in templates:   %s\n", humanize.Comma(int64(s.WithTemplateReferencesCount)))
}
