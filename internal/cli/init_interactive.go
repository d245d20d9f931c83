package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/asaabey/picorule-sentry/internal/config"
)

func notEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

// runInteractiveInit runs the TUI wizard and writes the resulting config.
func runInteractiveInit(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()

	cfg := config.Default()
	gh := &cfg.Source.GitHub
	local := &cfg.Source.Local
	var confirm bool

	form := huh.NewForm(
		// Group 1: Source
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where is the rule pack?").
				Options(
					huh.NewOption("GitHub repository", config.SourceGitHub),
					huh.NewOption("Local directory", config.SourceLocal),
				).
				Value(&cfg.Source.Kind),
		).Title("Source"),

		// Group 2a: GitHub (hidden unless github selected)
		huh.NewGroup(
			huh.NewInput().Title("Owner").Value(&gh.Owner).Validate(notEmpty("owner")),
			huh.NewInput().Title("Repository").Value(&gh.Repo).Validate(notEmpty("repository")),
			huh.NewInput().Title("Branch").Value(&gh.Branch).Validate(notEmpty("branch")),
			huh.NewInput().Title("Rule block path").Value(&gh.RuleblockPath).Validate(notEmpty("rule block path")),
			huh.NewInput().Title("Template path").Value(&gh.TemplatePath),
		).Title("GitHub").
			WithHideFunc(func() bool { return cfg.Source.Kind != config.SourceGitHub }),

		// Group 2b: Local (hidden unless local selected)
		huh.NewGroup(
			huh.NewInput().Title("Rule block directory").Value(&local.RuleblockDir).Validate(notEmpty("rule block directory")),
			huh.NewInput().Title("Template directory").Value(&local.TemplateDir),
		).Title("Local").
			WithHideFunc(func() bool { return cfg.Source.Kind != config.SourceLocal }),

		// Group 3: Cache
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Cache backend").
				Description("Snapshots are reused until you run 'picosentry scan --refresh'").
				Options(
					huh.NewOption("On disk (badger)", config.CacheBadger),
					huh.NewOption("In memory (this process only)", config.CacheMemory),
					huh.NewOption("None", config.CacheNone),
				).
				Value(&cfg.Cache.Backend),
		).Title("Cache"),

		// Group 4: Confirm
		huh.NewGroup(
			huh.NewNote().
				Title("Summary").
				DescriptionFunc(func() string {
					where := gh.Owner + "/" + gh.Repo + "@" + gh.Branch
					if cfg.Source.Kind == config.SourceLocal {
						where = local.RuleblockDir
					}
					return fmt.Sprintf(
						"Source:  %s (%s)\n"+
							"Cache:   %s",
						cfg.Source.Kind, where, cfg.Cache.Backend,
					)
				}, &cfg.Source.Kind),
			huh.NewConfirm().
				Title("Write "+path+"?").
				Value(&confirm).
				Affirmative("Write").
				Negative("Cancel"),
		).Title("Confirm"),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
		return fmt.Errorf("interactive init: %w", err)
	}

	if !confirm {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	return writeInitConfig(cmd, cfg, path)
}
