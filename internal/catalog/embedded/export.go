package embedded

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dgraph-io/badger/v4"

	"github.com/asaabey/picorule-sentry/internal/catalog"
)

// exportRecord is the JSON-lines format for export/import.
type exportRecord struct {
	Kind    string          `json:"kind"` // "snapshot"
	Version string          `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// Export writes every stored snapshot to w in JSON-lines format.
func (s *Store) Export(_ context.Context, w io.Writer) error {
	enc := json.NewEncoder(w)
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = []byte(prefixSnapshot)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.Valid(); it.Next() {
			item := it.Item()
			version := string(item.Key())[len(prefixSnapshot):]
			data, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read snapshot %s: %w", version, err)
			}
			if err := enc.Encode(exportRecord{Kind: "snapshot", Version: version, Data: data}); err != nil {
				return fmt.Errorf("encode snapshot %s: %w", version, err)
			}
		}
		return nil
	})
}

// Import reads JSON-lines from r, clears the store, and inserts all records.
func (s *Store) Import(ctx context.Context, r io.Reader) error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}

	scanner := bufio.NewScanner(r)
	// Snapshots are single large lines.
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec exportRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("unmarshal record: %w", err)
		}
		if rec.Kind != "snapshot" {
			return fmt.Errorf("unknown record kind: %q", rec.Kind)
		}
		var snap catalog.Snapshot
		if err := json.Unmarshal(rec.Data, &snap); err != nil {
			return fmt.Errorf("unmarshal snapshot %s: %w", rec.Version, err)
		}
		if err := s.Save(ctx, rec.Version, &snap); err != nil {
			return fmt.Errorf("import snapshot %s: %w", rec.Version, err)
		}
	}

	return scanner.Err()
}

// WriteVariables writes one JSON object per variable record of snap to w.
func WriteVariables(w io.Writer, snap *catalog.Snapshot) error {
	enc := json.NewEncoder(w)
	for i := range snap.Variables {
		if err := enc.Encode(&snap.Variables[i]); err != nil {
			return fmt.Errorf("encode variable %s: %w", snap.Variables[i].Key(), err)
		}
	}
	return nil
}
