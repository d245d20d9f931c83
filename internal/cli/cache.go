package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/asaabey/picorule-sentry/internal/catalog"
	"github.com/asaabey/picorule-sentry/internal/catalog/embedded"
	"github.com/asaabey/picorule-sentry/internal/config"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the snapshot cache",
		Long: `Manage cached catalog snapshots. Each snapshot is stored under a version
tag; only the configured cache.version is ever served.

Subcommands:
  status    List cached versions with their age
  clear     Remove the snapshot of the current version
  prune     Remove snapshots of every other version
  export    Dump the badger cache as JSON lines
  import    Replace the badger cache from a JSON-lines dump`,
	}

	cmd.AddCommand(newCacheStatusCmd())
	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCachePruneCmd())
	cmd.AddCommand(newCacheExportCmd())
	cmd.AddCommand(newCacheImportCmd())

	return cmd
}

// withCache runs fn with the configured cache open.
func withCache(fn func(cfg *config.Config, cache catalog.Cache) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cache, err := openCache(cfg)
	if err != nil {
		return err
	}
	defer cache.Close()
	return fn(cfg, cache)
}

func newCacheStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List cached versions with their age",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(func(cfg *config.Config, cache catalog.Cache) error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Backend: %s\n", cfg.Cache.Backend)
				if cfg.Cache.Backend == config.CacheBadger {
					fmt.Fprintf(out, "Directory: %s\n", cfg.Cache.Dir)
				}

				versions, err := cache.Versions(cmd.Context())
				if err != nil {
					return fmt.Errorf("list versions: %w", err)
				}
				if len(versions) == 0 {
					fmt.Fprintln(out, "No cached snapshots.")
					return nil
				}

				fmt.Fprintln(out)
				for _, v := range versions {
					marker := ""
					if v == cfg.Cache.Version {
						marker = " (current)"
					}
					snap, err := cache.Load(cmd.Context(), v)
					if err != nil {
						fmt.Fprintf(out, "  %s%s  unreadable: %v\n", v, marker, err)
						continue
					}
					fmt.Fprintf(out, "  %s%s  %d variables, %d templates, built %s\n",
						v, marker, len(snap.Variables), len(snap.Templates), humanize.Time(snap.Timestamp))
				}
				return nil
			})
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the snapshot of the current version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(func(cfg *config.Config, cache catalog.Cache) error {
				versions := []string{cfg.Cache.Version}
				if all {
					var err error
					if versions, err = cache.Versions(cmd.Context()); err != nil {
						return fmt.Errorf("list versions: %w", err)
					}
				}
				for _, v := range versions {
					if err := cache.Clear(cmd.Context(), v); err != nil {
						return fmt.Errorf("clear %s: %w", v, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", v)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "clear every cached version")

	return cmd
}

func newCachePruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove snapshots of every version other than the current one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(func(cfg *config.Config, cache catalog.Cache) error {
				removed, err := catalog.Prune(cmd.Context(), cache, cfg.Cache.Version)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(removed) == 0 {
					fmt.Fprintln(out, "Nothing to prune.")
					return nil
				}
				for _, v := range removed {
					fmt.Fprintf(out, "Removed %s\n", v)
				}
				return nil
			})
		},
	}
}

// errNotBadger is returned by dump commands when the cache is not on disk.
var errNotBadger = errors.New("export and import need cache.backend: badger")

func newCacheExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump the badger cache as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(func(cfg *config.Config, cache catalog.Cache) error {
				store, ok := cache.(*embedded.Store)
				if !ok {
					return errNotBadger
				}
				w := cmd.OutOrStdout()
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("create %s: %w", output, err)
					}
					defer f.Close()
					w = f
				}
				return store.Export(cmd.Context(), w)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")

	return cmd
}

func newCacheImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the badger cache from a JSON-lines dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(func(cfg *config.Config, cache catalog.Cache) error {
				store, ok := cache.(*embedded.Store)
				if !ok {
					return errNotBadger
				}
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open %s: %w", args[0], err)
				}
				defer f.Close()
				if err := store.Import(cmd.Context(), f); err != nil {
					return fmt.Errorf("import: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", args[0])
				return nil
			})
		},
	}
}
