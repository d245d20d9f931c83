package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/asaabey/picorule-sentry/internal/catalog"
	"github.com/asaabey/picorule-sentry/internal/catalog/embedded"
	"github.com/asaabey/picorule-sentry/internal/catalog/memory"
	"github.com/asaabey/picorule-sentry/internal/config"
	"github.com/asaabey/picorule-sentry/internal/indexer"
	"github.com/asaabey/picorule-sentry/internal/source"
)

// loadConfig loads and validates the effective configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openCache opens the snapshot cache selected by cfg.Cache.Backend.
func openCache(cfg *config.Config) (catalog.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheBadger:
		store, err := embedded.NewStore(cfg.Cache.Dir)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		return store, nil
	case config.CacheMemory:
		store, err := memory.NewStore(memory.DefaultCapacity, 0)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		return store, nil
	default:
		return catalog.NopCache{}, nil
	}
}

// newSource builds the rule pack source selected by cfg.Source.Kind.
func newSource(cfg *config.Config) (source.Source, error) {
	switch cfg.Source.Kind {
	case config.SourceGitHub:
		timeout, err := cfg.Timeout()
		if err != nil {
			return nil, err
		}
		gh := cfg.Source.GitHub
		return source.NewGitHub(source.GitHubOptions{
			Owner:         gh.Owner,
			Repo:          gh.Repo,
			Branch:        gh.Branch,
			RuleblockPath: gh.RuleblockPath,
			TemplatePath:  gh.TemplatePath,
			Token:         gh.Token,
			APIURL:        gh.APIURL,
			RawURL:        gh.RawURL,
			Timeout:       timeout,
		}), nil
	case config.SourceLocal:
		return source.NewLocal(cfg.Source.Local.RuleblockDir, cfg.Source.Local.TemplateDir), nil
	}
	return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
}

// stderrLogger writes log lines to the command's error stream.
func stderrLogger(cmd *cobra.Command) func(format string, args ...any) {
	return logTo(cmd.ErrOrStderr())
}

func logTo(w io.Writer) func(format string, args ...any) {
	return func(format string, args ...any) {
		fmt.Fprintf(w, format+"\n", args...)
	}
}

// session bundles what a catalog command needs: configuration, an open
// cache and a loader reading through it.
type session struct {
	cfg    *config.Config
	src    source.Source
	cache  catalog.Cache
	loader *indexer.Loader
}

// openSession loads the configuration and wires the source, cache and
// loader. progress may be nil.
func openSession(cmd *cobra.Command, progress func(stage string, done, total int)) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	src, err := newSource(cfg)
	if err != nil {
		return nil, err
	}
	backoff, err := cfg.InitialBackoff()
	if err != nil {
		return nil, err
	}
	cache, err := openCache(cfg)
	if err != nil {
		return nil, err
	}

	logFn := stderrLogger(cmd)
	loader := indexer.NewLoader(indexer.LoaderConfig{
		Source: src,
		Cache:  cache,
		Indexer: indexer.NewIndexer(indexer.IndexerConfig{
			Verbose: verbose,
			Logger:  logFn,
		}),
		Version: cfg.Cache.Version,
		Fetch: source.FetchOptions{
			Concurrency:    cfg.Fetch.Concurrency,
			MaxRetries:     cfg.Fetch.MaxRetries,
			InitialBackoff: backoff,
		},
		Include:  cfg.Fetch.Include,
		Progress: progress,
		Logger:   logFn,
	})

	return &session{cfg: cfg, src: src, cache: cache, loader: loader}, nil
}

func (s *session) Close() error {
	return s.cache.Close()
}

// loadSnapshot returns the cached catalog, building it on a cache miss.
func loadSnapshot(cmd *cobra.Command) (*catalog.Snapshot, *session, error) {
	sess, err := openSession(cmd, nil)
	if err != nil {
		return nil, nil, err
	}
	snap, _, err := sess.loader.Load(cmd.Context(), false)
	if err != nil {
		sess.Close()
		return nil, nil, err
	}
	return snap, sess, nil
}
