package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/asaabey/picorule-sentry/internal/config"
)

// Style definitions shared by the detail views.
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"})
	labelStyle = lipgloss.NewStyle().
			Faint(true).
			Width(18)
	valueStyle = lipgloss.NewStyle()
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Display the configuration picosentry runs with: the config file merged
over the defaults, with PICOSENTRY_* environment overrides applied.`,
		RunE: runConfigView,
	}
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)

	// Title
	fmt.Fprintln(out, headerStyle.Render("picosentry Configuration"))
	fmt.Fprintln(out, headerStyle.Render(strings.Repeat("=", 24)))
	fmt.Fprintln(out)

	// Source
	printSection(out, "Source")
	printKV(out, "Kind", cfg.Source.Kind)
	switch cfg.Source.Kind {
	case config.SourceGitHub:
		gh := cfg.Source.GitHub
		printKV(out, "Repository", gh.Owner+"/"+gh.Repo)
		printKV(out, "Branch", gh.Branch)
		printKV(out, "Rule blocks", gh.RuleblockPath)
		printKV(out, "Templates", gh.TemplatePath)
		printKV(out, "Token", boolYesNo(gh.Token != ""))
		printKV(out, "API URL", gh.APIURL)
		printKV(out, "Raw URL", gh.RawURL)
	case config.SourceLocal:
		printKV(out, "Rule blocks", cfg.Source.Local.RuleblockDir)
		printKV(out, "Templates", cfg.Source.Local.TemplateDir)
	}
	fmt.Fprintln(out)

	// Fetch
	printSection(out, "Fetch")
	printKV(out, "Concurrency", fmt.Sprintf("%d", cfg.Fetch.Concurrency))
	printKV(out, "Max retries", fmt.Sprintf("%d", cfg.Fetch.MaxRetries))
	printKV(out, "Backoff", cfg.Fetch.InitialBackoff)
	printKV(out, "Timeout", cfg.Fetch.Timeout)
	if len(cfg.Fetch.Include) > 0 {
		printKV(out, "Include", strings.Join(cfg.Fetch.Include, ", "))
	}
	fmt.Fprintln(out)

	// Cache
	printSection(out, "Cache")
	printKV(out, "Backend", cfg.Cache.Backend)
	if cfg.Cache.Backend == config.CacheBadger {
		printKV(out, "Directory", cfg.Cache.Dir)
	}
	printKV(out, "Version", cfg.Cache.Version)
	fmt.Fprintln(out)

	// Watch Exclusions
	printSection(out, "Watch Exclusions")
	for _, pattern := range cfg.Watch.Exclude {
		fmt.Fprintf(out, "    %s\n", pattern)
	}
	fmt.Fprintln(out)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "  Warning: %v\n", err)
	}

	return nil
}

func printSection(out io.Writer, title string) {
	fmt.Fprintf(out, "  %s\n", headerStyle.Render(title))
}

func printKV(out io.Writer, label, value string) {
	if value == "" {
		value = "(none)"
	}
	fmt.Fprintf(out, "    %s%s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

func boolYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
