package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrCacheMiss is returned by Cache.Load when no snapshot exists for a version.
var ErrCacheMiss = errors.New("cache miss")

// Cache persists snapshots keyed by a version tag. Snapshots stored under
// any other tag than the one requested are never returned.
type Cache interface {
	// Load returns the snapshot stored under version, or ErrCacheMiss.
	Load(ctx context.Context, version string) (*Snapshot, error)

	// Save replaces the snapshot stored under version.
	Save(ctx context.Context, version string, snap *Snapshot) error

	// Clear removes the snapshot stored under version. Clearing a missing
	// entry is not an error.
	Clear(ctx context.Context, version string) error

	// Versions lists the version tags that currently hold a snapshot.
	Versions(ctx context.Context) ([]string, error)

	// Close releases resources held by the cache.
	Close() error
}

// NopCache never stores anything; every Load misses.
type NopCache struct{}

func (NopCache) Load(context.Context, string) (*Snapshot, error) { return nil, ErrCacheMiss }
func (NopCache) Save(context.Context, string, *Snapshot) error   { return nil }
func (NopCache) Clear(context.Context, string) error             { return nil }
func (NopCache) Versions(context.Context) ([]string, error)      { return nil, nil }
func (NopCache) Close() error                                    { return nil }

// Prune clears every version held by c other than keep and returns the
// removed tags, sorted.
func Prune(ctx context.Context, c Cache, keep string) ([]string, error) {
	versions, err := c.Versions(ctx)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, v := range versions {
		if v == keep {
			continue
		}
		if err := c.Clear(ctx, v); err != nil {
			return removed, fmt.Errorf("prune %s: %w", v, err)
		}
		removed = append(removed, v)
	}
	sort.Strings(removed)
	return removed, nil
}
