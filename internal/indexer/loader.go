package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/asaabey/picorule-sentry/internal/catalog"
	"github.com/asaabey/picorule-sentry/internal/source"
)

// Fetch stages reported to LoaderConfig.Progress.
const (
	StageRuleblocks = "rule blocks"
	StageTemplates  = "templates"
)

// LoaderConfig holds configuration for the Loader.
type LoaderConfig struct {
	Source  source.Source
	Cache   catalog.Cache // optional, defaults to catalog.NopCache
	Indexer *Indexer
	Version string // cache version tag, defaults to catalog.CacheVersion
	Fetch   source.FetchOptions

	// Include optionally restricts rule blocks to names matching one of
	// these glob patterns.
	Include []string

	// Progress, when set, is called as files of each stage complete.
	Progress func(stage string, done, total int)

	Logger func(format string, args ...any) // optional logger, defaults to fmt.Fprintf(os.Stderr, ...)
}

// Loader serves snapshots from the cache and rebuilds them from the source
// when the cache misses or a refresh is requested.
type Loader struct {
	cfg LoaderConfig
	log func(format string, args ...any)
}

// NewLoader creates a new Loader.
func NewLoader(cfg LoaderConfig) *Loader {
	if cfg.Cache == nil {
		cfg.Cache = catalog.NopCache{}
	}
	if cfg.Version == "" {
		cfg.Version = catalog.CacheVersion
	}
	if cfg.Indexer == nil {
		cfg.Indexer = NewIndexer(IndexerConfig{Logger: cfg.Logger})
	}
	logFn := cfg.Logger
	if logFn == nil {
		logFn = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}
	return &Loader{cfg: cfg, log: logFn}
}

// Version returns the cache version tag the loader reads and writes.
func (l *Loader) Version() string { return l.cfg.Version }

// Load returns the cached snapshot for the loader's version unless refresh
// is set or the cache misses. Otherwise it lists, fetches and builds the
// rule pack, saves the result and reports fromCache false. An unreadable
// cache entry is treated as a miss.
func (l *Loader) Load(ctx context.Context, refresh bool) (snap *catalog.Snapshot, fromCache bool, err error) {
	if !refresh {
		cached, err := l.cfg.Cache.Load(ctx, l.cfg.Version)
		switch {
		case err == nil:
			return cached, true, nil
		case !errors.Is(err, catalog.ErrCacheMiss):
			l.log("Cache read failed, rebuilding: %v", err)
		}
	}

	snap, err = l.Rebuild(ctx)
	if err != nil {
		return nil, false, err
	}

	if err := l.cfg.Cache.Save(ctx, l.cfg.Version, snap); err != nil {
		l.log("Cache write failed: %v", err)
	}
	return snap, false, nil
}

// Rebuild lists, fetches and builds the rule pack without touching the cache.
func (l *Loader) Rebuild(ctx context.Context) (*catalog.Snapshot, error) {
	rbFiles, err := l.cfg.Source.ListRuleblocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rule blocks: %w", err)
	}
	if rbFiles, err = source.MatchNames(rbFiles, l.cfg.Include); err != nil {
		return nil, err
	}
	tplFiles, err := l.cfg.Source.ListTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	ruleblocks, err := l.fetch(ctx, StageRuleblocks, rbFiles)
	if err != nil {
		return nil, err
	}
	if len(rbFiles) > 0 && len(ruleblocks) == 0 {
		return nil, fmt.Errorf("none of %d rule blocks could be fetched", len(rbFiles))
	}
	templates, err := l.fetch(ctx, StageTemplates, tplFiles)
	if err != nil {
		return nil, err
	}

	snap := l.cfg.Indexer.Build(ruleblocks, templates)
	snap.RuleblockFiles = rbFiles
	snap.TemplateFiles = tplFiles
	return snap, nil
}

func (l *Loader) fetch(ctx context.Context, stage string, files []catalog.FileInfo) (map[string]string, error) {
	opts := l.cfg.Fetch
	if l.cfg.Progress != nil {
		opts.Progress = func(done, total int, _ catalog.FileInfo) {
			l.cfg.Progress(stage, done, total)
		}
	}

	res, err := source.FetchAll(ctx, l.cfg.Source, files, opts)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", stage, err)
	}
	for name, ferr := range res.Failed {
		l.log("Failed to fetch %s: %v", name, ferr)
	}
	return res.Contents, nil
}
