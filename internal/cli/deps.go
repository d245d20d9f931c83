package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/spf13/cobra"

	"github.com/asaabey/picorule-sentry/internal/linker"
)

func newDepsCmd() *cobra.Command {
	var (
		reverse bool
		depth   int
		cycles  bool
	)

	cmd := &cobra.Command{
		Use:   "deps [ruleblock.variable]",
		Short: "Walk the dependency graph of a variable",
		Long: `Print the variables ruleblock.variable depends on, transitively. With
--reverse, print the variables that depend on it instead. --depth limits
the walk (0 means unlimited).

With --cycles and no argument, list groups of mutually dependent variables.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if cycles {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, sess, err := loadSnapshot(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			dg, err := linker.NewDependencyGraph(snap.Variables)
			if err != nil {
				return fmt.Errorf("build dependency graph: %w", err)
			}
			out := cmd.OutOrStdout()

			if cycles {
				groups, err := dg.Cycles()
				if err != nil {
					return err
				}
				if len(groups) == 0 {
					fmt.Fprintln(out, "No dependency cycles.")
					return nil
				}
				for _, g := range groups {
					fmt.Fprintf(out, "  %s\n", strings.Join(g, " <-> "))
				}
				return nil
			}

			key := args[0]
			var nodes []linker.GraphNode
			if reverse {
				nodes, err = dg.Downstream(key, depth)
			} else {
				nodes, err = dg.Upstream(key, depth)
			}
			if errors.Is(err, graph.ErrVertexNotFound) {
				return fmt.Errorf("variable %q not found", key)
			}
			if err != nil {
				return err
			}

			direction := "depends on"
			if reverse {
				direction = "is used by"
			}
			fmt.Fprintf(out, "%s %s %d variables\n", key, direction, len(nodes))
			for _, n := range nodes {
				fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", n.Depth), n.Key)
			}

			if !reverse {
				if unresolved := dg.Unresolved(key); len(unresolved) > 0 {
					fmt.Fprintf(out, "\nUnresolved: %s\n", strings.Join(unresolved, ", "))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reverse, "reverse", false, "list dependents instead of dependencies")
	cmd.Flags().IntVar(&depth, "depth", 0, "maximum traversal depth (0 = unlimited)")
	cmd.Flags().BoolVar(&cycles, "cycles", false, "list dependency cycles")

	return cmd
}
