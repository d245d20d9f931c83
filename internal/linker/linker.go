// Package linker resolves cross-file relationships after parsing. It runs as
// a post-parse phase over the whole catalog: template references are
// inverted into a variable -> templates index and joined back onto the
// variable records, and statement dependencies are resolved to catalog keys.
package linker

import (
	"slices"
	"sort"
	"strings"

	"github.com/asaabey/picorule-sentry/internal/catalog"
)

// Linker joins template references onto variable records.
type Linker struct {
	log     func(format string, args ...any)
	verbose bool
}

// NewLinker creates a new Linker. A nil logFn disables logging.
func NewLinker(logFn func(format string, args ...any), verbose bool) *Linker {
	if logFn == nil {
		logFn = func(string, ...any) {}
	}
	return &Linker{log: logFn, verbose: verbose}
}

// RunAll builds the reverse template index and annotates vars in place. It
// must run after every rule block and every template has been parsed.
// It returns the number of annotated records.
func (l *Linker) RunAll(vars []catalog.Variable, refs []catalog.TemplateReference) int {
	if l.verbose {
		l.log("Linking %d templates to %d variables...", len(refs), len(vars))
	}

	refMap := BuildReferenceMap(refs)
	linked := ApplyTemplateReferences(vars, refMap)

	if l.verbose {
		l.log("  %d distinct references, %d records referenced by templates", len(refMap), linked)
		if unknown := UnknownReferences(vars, refMap); len(unknown) > 0 {
			l.log("  %d template references match no variable", len(unknown))
		}
	}
	return linked
}

// BuildReferenceMap inverts per-template reference lists into a mapping from
// "ruleblock.variable" to the template names that reference it, in
// encounter order. A template is listed once per key.
func BuildReferenceMap(refs []catalog.TemplateReference) map[string][]string {
	reverse := make(map[string][]string)
	for _, ref := range refs {
		for _, key := range ref.VariableReferences {
			if slices.Contains(reverse[key], ref.TemplateName) {
				continue
			}
			reverse[key] = append(reverse[key], ref.TemplateName)
		}
	}
	return reverse
}

// ApplyTemplateReferences sets ReferencedInTemplates on every record from
// refMap, keyed by Variable.Key. Records with no entry get "". Every record
// sharing a key receives the same value. It returns the number of records
// with at least one template.
func ApplyTemplateReferences(vars []catalog.Variable, refMap map[string][]string) int {
	linked := 0
	for i := range vars {
		templates := refMap[vars[i].Key()]
		vars[i].ReferencedInTemplates = strings.Join(templates, ",")
		if len(templates) > 0 {
			linked++
		}
	}
	return linked
}

// Link is the package-level shorthand for NewLinker(nil, false).RunAll.
func Link(vars []catalog.Variable, refs []catalog.TemplateReference) int {
	return NewLinker(nil, false).RunAll(vars, refs)
}

// UnknownReferences returns the keys of refMap that match no record, sorted.
func UnknownReferences(vars []catalog.Variable, refMap map[string][]string) []string {
	known := make(map[string]struct{}, len(vars))
	for i := range vars {
		known[vars[i].Key()] = struct{}{}
	}
	var unknown []string
	for key := range refMap {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}
