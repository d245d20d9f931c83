package embedded

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/asaabey/picorule-sentry/internal/catalog"
)

var _ catalog.Cache = (*Store)(nil)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testSnapshot() *catalog.Snapshot {
	vars := []catalog.Variable{
		{Ruleblock: "sales", Variable: "revenue", StatementType: catalog.Functional, DependsOn: "price,qty", ReferencedInTemplates: "summary.txt"},
		{Ruleblock: "sales", Variable: "band", StatementType: catalog.Conditional, DependsOn: "revenue"},
	}
	return &catalog.Snapshot{
		RuleblockFiles: []catalog.FileInfo{{Name: "sales.prb", Path: "rules/sales.prb", Type: "file"}},
		TemplateFiles:  []catalog.FileInfo{{Name: "summary.txt", Path: "templates/summary.txt", Type: "file"}},
		Variables:      vars,
		Templates:      []catalog.TemplateReference{{TemplateName: "summary.txt", VariableReferences: []string{"sales.revenue"}}},
		Stats:          catalog.CalculateStats(vars),
		Timestamp:      time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	want := testSnapshot()

	if err := store.Save(ctx, catalog.CacheVersion, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, catalog.CacheVersion)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got.Variables, want.Variables) {
		t.Errorf("Variables = %+v, want %+v", got.Variables, want.Variables)
	}
	if got.Stats != want.Stats {
		t.Errorf("Stats = %+v, want %+v", got.Stats, want.Stats)
	}
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, want.Timestamp)
	}
}

func TestLoadOtherVersionMisses(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Save(ctx, "v1", testSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Load(ctx, "v2"); !errors.Is(err, catalog.ErrCacheMiss) {
		t.Errorf("Load(v2) error = %v, want ErrCacheMiss", err)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Save(ctx, "v2", testSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Clear(ctx, "v2"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := store.Load(ctx, "v2"); !errors.Is(err, catalog.ErrCacheMiss) {
		t.Errorf("Load after Clear error = %v, want ErrCacheMiss", err)
	}
	if err := store.Clear(ctx, "never-saved"); err != nil {
		t.Errorf("Clear(missing) = %v, want nil", err)
	}
}

func TestCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey("v2"), []byte("{not json"))
	}); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}

	_, err := store.Load(ctx, "v2")
	if err == nil || errors.Is(err, catalog.ErrCacheMiss) {
		t.Errorf("Load(corrupt) error = %v, want decode error", err)
	}
}

func TestVersionsAndPrune(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, v := range []string{"v1", "v2", "v0"} {
		if err := store.Save(ctx, v, testSnapshot()); err != nil {
			t.Fatalf("Save %s: %v", v, err)
		}
	}

	versions, err := store.Versions(ctx)
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if !reflect.DeepEqual(versions, []string{"v0", "v1", "v2"}) {
		t.Errorf("Versions = %v", versions)
	}

	removed, err := catalog.Prune(ctx, store, "v2")
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if !reflect.DeepEqual(removed, []string{"v0", "v1"}) {
		t.Errorf("Prune removed %v, want [v0 v1]", removed)
	}

	versions, _ = store.Versions(ctx)
	if !reflect.DeepEqual(versions, []string{"v2"}) {
		t.Errorf("Versions after prune = %v, want [v2]", versions)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()

	src := newTestStore(t)
	if err := src.Save(ctx, "v2", testSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var buf bytes.Buffer
	if err := src.Export(ctx, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 1 {
		t.Fatalf("Export wrote %d lines, want 1", lines)
	}

	dst := newTestStore(t)
	if err := dst.Save(ctx, "stale", testSnapshot()); err != nil {
		t.Fatalf("Save stale: %v", err)
	}
	if err := dst.Import(ctx, &buf); err != nil {
		t.Fatalf("Import: %v", err)
	}

	versions, _ := dst.Versions(ctx)
	if !reflect.DeepEqual(versions, []string{"v2"}) {
		t.Errorf("Versions after import = %v, want [v2]", versions)
	}
	got, err := dst.Load(ctx, "v2")
	if err != nil {
		t.Fatalf("Load after import: %v", err)
	}
	if len(got.Variables) != 2 || got.Variables[0].Key() != "sales.revenue" {
		t.Errorf("imported variables = %+v", got.Variables)
	}
}

func TestImportRejectsUnknownKind(t *testing.T) {
	store := newTestStore(t)
	err := store.Import(context.Background(), strings.NewReader(`{"kind":"node","version":"v2","data":{}}`+"\n"))
	if err == nil {
		t.Fatal("Import(unknown kind) expected error")
	}
}

func TestWriteVariables(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteVariables(&buf, testSnapshot()); err != nil {
		t.Fatalf("WriteVariables: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], `"referenced_in_templates":"summary.txt"`) {
		t.Errorf("first line = %s", lines[0])
	}
}
