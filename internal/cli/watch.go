package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/asaabey/picorule-sentry/internal/config"
	"github.com/asaabey/picorule-sentry/internal/source"
	"github.com/asaabey/picorule-sentry/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the catalog when a local rule pack changes",
		Long: `Watch the rule block and template directories of a local source and
rebuild the catalog on every change. Each rebuild is a full pass and
replaces the cached snapshot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, nil)
			if err != nil {
				return err
			}
			defer sess.Close()

			if sess.cfg.Source.Kind != config.SourceLocal {
				return fmt.Errorf("watch needs source.kind: local, got %q", sess.cfg.Source.Kind)
			}

			local := sess.cfg.Source.Local
			w, err := watcher.NewWatcher(watcher.WatcherConfig{
				Paths:           []string{local.RuleblockDir, local.TemplateDir},
				ExcludePatterns: sess.cfg.Watch.Exclude,
				Extensions:      []string{source.RuleblockSuffix, source.TemplateSuffix},
			})
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer w.Close()

			// Set up signal handling.
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case <-sigCh:
					fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down...")
					cancel()
				case <-ctx.Done():
				}
			}()

			out := cmd.OutOrStdout()
			snap, _, err := sess.loader.Load(ctx, false)
			if err != nil {
				return fmt.Errorf("initial scan: %w", err)
			}
			fmt.Fprintf(out, "Watching %s and %s\n", local.RuleblockDir, local.TemplateDir)
			fmt.Fprintf(out, "  %d variables in %d rule blocks\n", snap.Stats.TotalVariables, snap.Stats.TotalRuleblocks)

			events, err := w.Start(ctx)
			if err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}

			for evt := range events {
				fmt.Fprintf(out, "%s %s\n", evt.Op, filepath.Base(evt.Path))
				snap, _, err := sess.loader.Load(ctx, true)
				if err != nil {
					if ctx.Err() != nil {
						break
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Rebuild failed: %v\n", err)
					continue
				}
				fmt.Fprintf(out, "  %d variables, %d used in templates\n",
					snap.Stats.TotalVariables, snap.Stats.WithTemplateReferencesCount)
			}
			return nil
		},
	}
}
