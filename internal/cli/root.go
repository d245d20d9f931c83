// Package cli implements the command-line interface for picosentry.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd is the base command.
var rootCmd = newRootCmd()

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "picosentry",
		Short: "picosentry - Picorules variable catalog and template cross-reference",
		Long: `picosentry reads a Picorules rule pack (rule blocks and report templates),
extracts every variable a rule block defines with its metadata, EADV
attributes and dependencies, and records which templates reference it.

Commands:
  init       Write a .picosentry.yaml config file
  scan       Fetch and index the rule pack
  variables  List and filter catalog variables
  show       Show one variable with its dependencies and templates
  deps       Walk the dependency graph of a variable
  templates  List template references
  stats      Show catalog statistics
  cache      Inspect or clear the snapshot cache
  export     Export catalog variables as JSON lines, JSON or CSV
  watch      Rebuild the catalog when a local rule pack changes`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all subcommands)
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .picosentry.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	if err := viper.BindPFlag("config_file", cmd.PersistentFlags().Lookup("config")); err != nil {
		panic(fmt.Sprintf("failed to bind config flag: %v", err))
	}

	// Add subcommands
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newVariablesCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newDepsCmd())
	cmd.AddCommand(newTemplatesCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newCacheCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newCompletionCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
