// Package memory implements the catalog cache port in process memory. It
// suits one-shot commands and tests; nothing survives the process.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/maypok86/otter"

	"github.com/asaabey/picorule-sentry/internal/catalog"
)

// DefaultCapacity bounds the number of version tags held at once.
const DefaultCapacity = 16

// Store implements catalog.Cache on an otter cache. Snapshots are held
// encoded so callers never share mutable state with the cache.
type Store struct {
	cache otter.Cache[string, []byte]
}

// NewStore creates an in-memory cache. A zero ttl keeps entries until they
// are evicted by capacity or cleared.
func NewStore(capacity int, ttl time.Duration) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	builder := otter.MustBuilder[string, []byte](capacity)

	var (
		cache otter.Cache[string, []byte]
		err   error
	)
	if ttl > 0 {
		cache, err = builder.WithTTL(ttl).Build()
	} else {
		cache, err = builder.Build()
	}
	if err != nil {
		return nil, fmt.Errorf("build memory cache: %w", err)
	}
	return &Store{cache: cache}, nil
}

func (s *Store) Load(_ context.Context, version string) (*catalog.Snapshot, error) {
	data, ok := s.cache.Get(version)
	if !ok {
		return nil, catalog.ErrCacheMiss
	}
	var snap catalog.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", version, err)
	}
	return &snap, nil
}

func (s *Store) Save(_ context.Context, version string, snap *catalog.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	s.cache.Set(version, data)
	return nil
}

func (s *Store) Clear(_ context.Context, version string) error {
	s.cache.Delete(version)
	return nil
}

// Versions lists the held version tags, sorted.
func (s *Store) Versions(_ context.Context) ([]string, error) {
	var versions []string
	s.cache.Range(func(key string, _ []byte) bool {
		versions = append(versions, key)
		return true
	})
	sort.Strings(versions)
	return versions, nil
}

func (s *Store) Close() error {
	s.cache.Close()
	return nil
}
