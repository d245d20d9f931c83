// Package indexer runs the extraction pass over a rule pack and loads
// catalog snapshots through the cache.
package indexer

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/asaabey/picorule-sentry/internal/catalog"
	"github.com/asaabey/picorule-sentry/internal/linker"
	"github.com/asaabey/picorule-sentry/internal/metrics"
	"github.com/asaabey/picorule-sentry/internal/parser"
	"github.com/asaabey/picorule-sentry/internal/parser/picorules"
	"github.com/asaabey/picorule-sentry/internal/parser/template"
)

// IndexerConfig holds configuration for the Indexer.
type IndexerConfig struct {
	ParserRegistry *parser.Registry   // optional, defaults to DefaultRegistry()
	Metrics        metrics.Calculator // optional, defaults to the composite calculator
	Verbose        bool
	Logger         func(format string, args ...any) // optional logger, defaults to fmt.Fprintf(os.Stderr, ...)
}

// Indexer turns fetched file contents into a catalog snapshot.
type Indexer struct {
	registry *parser.Registry
	calc     metrics.Calculator
	verbose  bool
	log      func(format string, args ...any)
}

// DefaultRegistry returns a registry with the rule-block and template parsers.
func DefaultRegistry() *parser.Registry {
	r := parser.NewRegistry()
	r.Register(picorules.NewParser())
	r.Register(template.NewParser())
	return r
}

// NewIndexer creates a new Indexer with the given configuration.
func NewIndexer(cfg IndexerConfig) *Indexer {
	logFn := cfg.Logger
	if logFn == nil {
		logFn = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}
	registry := cfg.ParserRegistry
	if registry == nil {
		registry = DefaultRegistry()
	}
	calc := cfg.Metrics
	if calc == nil {
		calc = metrics.NewCompositeCalculator()
	}
	return &Indexer{
		registry: registry,
		calc:     calc,
		verbose:  cfg.Verbose,
		log:      logFn,
	}
}

// Build parses every rule block, then every template, joins template
// references onto the variables and computes stats. Both maps are keyed by
// file name and processed in sorted order so the result is deterministic.
func (idx *Indexer) Build(ruleblocks, templates map[string]string) *catalog.Snapshot {
	start := time.Now()
	snap := &catalog.Snapshot{
		Variables:   make([]catalog.Variable, 0),
		Templates:   make([]catalog.TemplateReference, 0),
		FileMetrics: make(map[string]map[string]float64),
	}

	if p, ok := idx.registry.Get(parser.LangPicorules); ok {
		for _, name := range sortedKeys(ruleblocks) {
			result := idx.parse(p, name, ruleblocks[name])
			if result == nil {
				continue
			}
			snap.Variables = append(snap.Variables, result.Variables...)
			idx.measure(snap, name, ruleblocks[name], p.Language())
		}
	}

	if p, ok := idx.registry.Get(parser.LangTemplate); ok {
		for _, name := range sortedKeys(templates) {
			result := idx.parse(p, name, templates[name])
			if result == nil || result.Template == nil {
				continue
			}
			snap.Templates = append(snap.Templates, *result.Template)
		}
	}

	linker.NewLinker(idx.log, idx.verbose).RunAll(snap.Variables, snap.Templates)
	snap.Stats = catalog.CalculateStats(snap.Variables)
	snap.Timestamp = time.Now()

	if idx.verbose {
		idx.log("Build complete: %d variables from %d rule blocks, %d templates in %s",
			snap.Stats.TotalVariables, len(ruleblocks), len(templates), time.Since(start))
	}
	return snap
}

func (idx *Indexer) parse(p parser.Parser, name, content string) *parser.ParseResult {
	if idx.verbose {
		idx.log("Parsing %s (%s)...", name, p.Language())
	}
	result, err := p.ParseFile(name, []byte(content))
	if err != nil {
		idx.log("parse %s: %v", name, err)
		return nil
	}
	if idx.verbose {
		if result.Template != nil {
			idx.log("  -> %d references", len(result.Template.VariableReferences))
		} else {
			idx.log("  -> %d variables", len(result.Variables))
		}
	}
	return result
}

func (idx *Indexer) measure(snap *catalog.Snapshot, name, content string, lang parser.Language) {
	m, err := idx.calc.Calculate(name, []byte(content), string(lang))
	if err != nil {
		idx.log("metrics %s: %v", name, err)
		return
	}
	snap.FileMetrics[name] = metrics.ToMap(m)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
