// Package embedded implements the catalog cache port on an embedded BadgerDB.
package embedded

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/asaabey/picorule-sentry/internal/catalog"
)

// prefixSnapshot namespaces snapshot keys; the version tag follows it.
const prefixSnapshot = "snap:"

// Store implements catalog.Cache using BadgerDB. Each version tag owns one
// key holding the JSON-encoded snapshot.
type Store struct {
	db *badger.DB
}

// NewStore opens (or creates) a BadgerDB-backed cache at dbPath.
func NewStore(dbPath string) (*Store, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // suppress badger logs
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &Store{db: db}, nil
}

func snapshotKey(version string) []byte { return []byte(prefixSnapshot + version) }

func (s *Store) Load(_ context.Context, version string) (*catalog.Snapshot, error) {
	var snap catalog.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(version))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, catalog.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", version, err)
	}
	return &snap, nil
}

func (s *Store) Save(_ context.Context, version string, snap *catalog.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(version), data)
	})
}

func (s *Store) Clear(_ context.Context, version string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(snapshotKey(version))
	})
}

// Versions lists stored version tags in key order.
func (s *Store) Versions(_ context.Context) ([]string, error) {
	var versions []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixSnapshot)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			versions = append(versions, strings.TrimPrefix(key, prefixSnapshot))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
