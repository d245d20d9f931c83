package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/asaabey/picorule-sentry/internal/config"
)

func newInitCmd() *cobra.Command {
	var (
		interactive  bool
		force        bool
		sourceKind   string
		ruleblockDir string
		templateDir  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a .picosentry.yaml config file",
		Long: `Write a configuration file with the default settings to .picosentry.yaml
(or the --config path). The defaults read the public rule pack on GitHub;
use --source local with --ruleblock-dir to index a checkout instead.

Use --interactive for a guided setup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}

			if interactive {
				return runInteractiveInit(cmd, path)
			}

			cfg := config.Default()
			if sourceKind != "" {
				cfg.Source.Kind = sourceKind
			}
			if ruleblockDir != "" {
				cfg.Source.Local.RuleblockDir = ruleblockDir
			}
			if templateDir != "" {
				cfg.Source.Local.TemplateDir = templateDir
			}
			return writeInitConfig(cmd, cfg, path)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "guided setup")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	cmd.Flags().StringVar(&sourceKind, "source", "", "source kind: github or local")
	cmd.Flags().StringVar(&ruleblockDir, "ruleblock-dir", "", "rule block directory of a local source")
	cmd.Flags().StringVar(&templateDir, "template-dir", "", "template directory of a local source")

	return cmd
}

// configPath is where init writes: the --config path or the default file.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigFile + "." + config.DefaultConfigType
}

func writeInitConfig(cmd *cobra.Command, cfg *config.Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := config.WriteConfig(cfg, path); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", path)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	if cfg.Source.Kind == config.SourceGitHub {
		fmt.Fprintln(out, "  1. Export GITHUB_TOKEN to raise the API rate limit (optional)")
	} else {
		fmt.Fprintln(out, "  1. Check the rule block and template directories in the config")
	}
	if cfg.Cache.Backend == config.CacheBadger {
		fmt.Fprintf(out, "  2. Add %s to .gitignore\n", cfg.Cache.Dir)
	} else {
		fmt.Fprintln(out, "  2. Nothing is cached between runs with this cache backend")
	}
	fmt.Fprintln(out, "  3. Run 'picosentry scan' to build the catalog")
	return nil
}
