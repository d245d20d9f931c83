package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/asaabey/picorule-sentry/internal/catalog"
	"github.com/asaabey/picorule-sentry/internal/config"
)

const testCKD = `#define_ruleblock(ckd, { description: "CKD staging", is_active: 2 });

egfr_last => eadv.lab_bld_egfr_c.val.last();

#define_attribute(egfr_last, { label: "Last eGFR", type: 2, is_reportable: 1 });

ckd_stage : { egfr_last < 15 => 5 }, { => 0 };

#doc(ckd_stage, { txt: "CKD stage from eGFR" });
`

const testRRT = `rrt_flag => rout_ckd.ckd_stage.val.bind();
`

const testTemplate = `{% if ckd.ckd_stage %}Stage {{ ckd.ckd_stage }}{% endif %}
eGFR {{ picoformat('ckd.egfr_last') }}
{{ ckd.missing_var }}
`

// testPack is a local rule pack with a config file pointing at it.
type testPack struct {
	dir          string
	ruleblockDir string
	templateDir  string
	configFile   string
}

func newTestPack(t *testing.T, cacheBackend string) *testPack {
	t.Helper()
	dir := t.TempDir()
	p := &testPack{
		dir:          dir,
		ruleblockDir: filepath.Join(dir, "rule_blocks"),
		templateDir:  filepath.Join(dir, "template_blocks"),
		configFile:   filepath.Join(dir, "picosentry.yaml"),
	}
	writeTestFile(t, filepath.Join(p.ruleblockDir, "ckd.prb"), testCKD)
	writeTestFile(t, filepath.Join(p.ruleblockDir, "rrt.prb"), testRRT)
	writeTestFile(t, filepath.Join(p.templateDir, "ckd.txt"), testTemplate)

	cfg := fmt.Sprintf(`source:
  kind: local
  local:
    ruleblock_dir: %s
    template_dir: %s
fetch:
  initial_backoff: 1ms
cache:
  backend: %s
  dir: %s
`, p.ruleblockDir, p.templateDir, cacheBackend, filepath.Join(dir, "cache"))
	writeTestFile(t, p.configFile, cfg)
	return p
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// runCLI executes a fresh command tree and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func assertContains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestScan(t *testing.T) {
	p := newTestPack(t, config.CacheNone)
	out := mustRun(t, "scan", "--quiet", "--config", p.configFile)
	assertContains(t, out,
		"Indexed 2 rule blocks and 1 templates",
		"Total variables:     3",
		"Rule blocks:         2",
		"Used in templates:   2",
	)
}

func TestScanUsesCache(t *testing.T) {
	p := newTestPack(t, config.CacheBadger)

	out := mustRun(t, "scan", "-q", "--config", p.configFile)
	assertContains(t, out, "Indexed 2 rule blocks")

	out = mustRun(t, "scan", "-q", "--config", p.configFile)
	assertContains(t, out, "Loaded from cache v2", "Total variables:     3")

	out = mustRun(t, "scan", "-q", "--refresh", "--config", p.configFile)
	assertContains(t, out, "Indexed 2 rule blocks")
}

func TestCacheCommands(t *testing.T) {
	p := newTestPack(t, config.CacheBadger)
	mustRun(t, "scan", "-q", "--config", p.configFile)

	out := mustRun(t, "cache", "status", "--config", p.configFile)
	assertContains(t, out, "Backend: badger", "v2 (current)  3 variables, 1 templates")

	out = mustRun(t, "cache", "prune", "--config", p.configFile)
	assertContains(t, out, "Nothing to prune.")

	dump := filepath.Join(p.dir, "cache.jsonl")
	mustRun(t, "cache", "export", "-o", dump, "--config", p.configFile)

	out = mustRun(t, "cache", "clear", "--config", p.configFile)
	assertContains(t, out, "Cleared v2")
	out = mustRun(t, "cache", "status", "--config", p.configFile)
	assertContains(t, out, "No cached snapshots.")

	mustRun(t, "cache", "import", dump, "--config", p.configFile)
	out = mustRun(t, "cache", "status", "--config", p.configFile)
	assertContains(t, out, "v2 (current)  3 variables")
}

func TestCacheExportNeedsBadger(t *testing.T) {
	p := newTestPack(t, config.CacheMemory)
	if _, err := runCLI(t, "cache", "export", "--config", p.configFile); err == nil {
		t.Fatal("expected error exporting a memory cache")
	}
}

func TestVariablesJSON(t *testing.T) {
	p := newTestPack(t, config.CacheNone)
	out := mustRun(t, "variables", "--ruleblock", "ckd", "--format", "json", "--config", p.configFile)

	var vars []catalog.Variable
	if err := json.Unmarshal([]byte(out), &vars); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(vars) != 2 {
		t.Fatalf("got %d variables, want 2", len(vars))
	}
	if vars[0].Variable != "egfr_last" || vars[1].Variable != "ckd_stage" {
		t.Errorf("variables = %s, %s; want egfr_last, ckd_stage", vars[0].Variable, vars[1].Variable)
	}
	if vars[0].Label != "Last eGFR" {
		t.Errorf("egfr_last label = %q", vars[0].Label)
	}
	if vars[0].ReferencedInTemplates != "ckd.txt" {
		t.Errorf("egfr_last templates = %q, want ckd.txt", vars[0].ReferencedInTemplates)
	}
	if vars[1].StatementType != catalog.Conditional {
		t.Errorf("ckd_stage type = %q, want conditional", vars[1].StatementType)
	}
}

func TestVariablesCSV(t *testing.T) {
	p := newTestPack(t, config.CacheNone)
	out := mustRun(t, "variables", "--has-metadata", "yes", "--format", "csv", "--config", p.configFile)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header plus one record:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "ruleblock,variable,statement_type") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "ckd,egfr_last,functional") {
		t.Errorf("record = %q", lines[1])
	}
}

func TestVariablesTable(t *testing.T) {
	p := newTestPack(t, config.CacheNone)
	out := mustRun(t, "variables", "--search", "STAGE", "--config", p.configFile)
	assertContains(t, out, "ckd_stage", "1 variables")

	out = mustRun(t, "variables", "--search", "nothing-matches", "--config", p.configFile)
	assertContains(t, out, "No variables match.")
}

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name          string
		statementType string
		tristate      string
		wantErr       bool
	}{
		{"defaults", "", "all", false},
		{"functional", "functional", "yes", false},
		{"conditional", "conditional", "no", false},
		{"bad type", "boolean", "all", true},
		{"bad tristate", "", "maybe", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := buildFilter("", "", tt.statementType, tt.tristate, "all", "all")
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildFilter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && string(f.StatementType) != tt.statementType {
				t.Errorf("StatementType = %q, want %q", f.StatementType, tt.statementType)
			}
		})
	}
}

func TestWriteVariablesUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := writeVariables(&buf, nil, "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestShow(t *testing.T) {
	p := newTestPack(t, config.CacheNone)
	out := mustRun(t, "show", "ckd.ckd_stage", "--config", p.configFile)
	assertContains(t, out,
		"ckd.ckd_stage",
		"CKD stage from eGFR",
		"-> ckd.egfr_last",
		filepath.Join(p.templateDir, "ckd.txt"),
	)

	if _, err := runCLI(t, "show", "ckd.nope", "--config", p.configFile); err == nil {
		t.Fatal("expected error for unknown variable")
	}
}

func TestDeps(t *testing.T) {
	p := newTestPack(t, config.CacheNone)

	out := mustRun(t, "deps", "ckd.ckd_stage", "--config", p.configFile)
	assertContains(t, out, "ckd.ckd_stage depends on", "  ckd.egfr_last")

	out = mustRun(t, "deps", "ckd.egfr_last", "--reverse", "--depth", "1", "--config", p.configFile)
	assertContains(t, out, "ckd.egfr_last is used by", "  ckd.ckd_stage")

	out = mustRun(t, "deps", "--cycles", "--config", p.configFile)
	assertContains(t, out, "No dependency cycles.")

	if _, err := runCLI(t, "deps", "ckd.nope", "--config", p.configFile); err == nil {
		t.Fatal("expected error for unknown variable")
	}
}

func TestTemplates(t *testing.T) {
	p := newTestPack(t, config.CacheNone)

	out := mustRun(t, "templates", "--config", p.configFile)
	assertContains(t, out, "ckd.txt", "3 references", "1 templates")

	out = mustRun(t, "templates", "ckd.txt", "--config", p.configFile)
	assertContains(t, out, "ckd.ckd_stage", "ckd.egfr_last", "ckd.missing_var  (unknown)")

	out = mustRun(t, "templates", "--unknown", "--config", p.configFile)
	assertContains(t, out, "ckd.missing_var")
	if strings.Contains(out, "ckd.egfr_last") {
		t.Errorf("known reference listed as unknown:\n%s", out)
	}

	if _, err := runCLI(t, "templates", "other.txt", "--config", p.configFile); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestStatsFiles(t *testing.T) {
	p := newTestPack(t, config.CacheNone)
	out := mustRun(t, "stats", "--files", "--config", p.configFile)
	assertContains(t, out, "Catalog Statistics", "Total variables:     3", "ckd.prb", "rrt.prb", "STATEMENTS")
}

func TestExport(t *testing.T) {
	p := newTestPack(t, config.CacheNone)
	path := filepath.Join(p.dir, "vars.jsonl")
	mustRun(t, "export", "--output", path, "--config", p.configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	var v catalog.Variable
	if err := json.Unmarshal([]byte(lines[0]), &v); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if v.Key() != "ckd.egfr_last" {
		t.Errorf("first record = %s, want ckd.egfr_last", v.Key())
	}
}

func TestParse(t *testing.T) {
	dir := t.TempDir()
	rb := filepath.Join(dir, "ckd.prb")
	tpl := filepath.Join(dir, "ckd.txt")
	writeTestFile(t, rb, testCKD)
	writeTestFile(t, tpl, testTemplate)

	out := mustRun(t, "parse", rb, "--format", "csv")
	assertContains(t, out, "ckd,egfr_last,functional", "ckd,ckd_stage,conditional")

	out = mustRun(t, "parse", tpl)
	if got := strings.Fields(out); strings.Join(got, " ") != "ckd.ckd_stage ckd.egfr_last ckd.missing_var" {
		t.Errorf("references = %v", got)
	}

	other := filepath.Join(dir, "notes.md")
	writeTestFile(t, other, "# notes")
	if _, err := runCLI(t, "parse", other); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestInit(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	path := filepath.Join(t.TempDir(), "picosentry.yaml")

	out := mustRun(t, "init", "--source", "local", "--ruleblock-dir", "/data/rb", "--config", path)
	assertContains(t, out, "Created "+path, "picosentry scan")

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Source.Kind != config.SourceLocal || cfg.Source.Local.RuleblockDir != "/data/rb" {
		t.Errorf("source = %+v", cfg.Source)
	}

	if _, err := runCLI(t, "init", "--config", path); err == nil {
		t.Fatal("expected error when the config file exists")
	}
	mustRun(t, "init", "--force", "--config", path)
}

func TestInitRejectsInvalidSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picosentry.yaml")
	if _, err := runCLI(t, "init", "--source", "ftp", "--config", path); err == nil {
		t.Fatal("expected error for unknown source kind")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("config file written despite invalid source")
	}
}

func TestConfigView(t *testing.T) {
	p := newTestPack(t, config.CacheNone)
	out := mustRun(t, "config", "--config", p.configFile)
	assertContains(t, out, "picosentry Configuration", "local", p.ruleblockDir, "**/.git/**")
}

func TestWatchNeedsLocalSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picosentry.yaml")
	writeTestFile(t, path, "cache:\n  backend: none\n")
	_, err := runCLI(t, "watch", "--config", path)
	if err == nil || !strings.Contains(err.Error(), "source.kind: local") {
		t.Fatalf("err = %v, want local source error", err)
	}
}

func TestRootHelp(t *testing.T) {
	out := mustRun(t, "--help")
	assertContains(t, out,
		"scan       Fetch and index the rule pack",
		"export     Export catalog variables as JSON lines, JSON or CSV",
	)
}

func TestVersion(t *testing.T) {
	out := mustRun(t, "version")
	assertContains(t, out, "picosentry version dev", "cache format: v2")
}
