package catalog

import (
	"sort"
	"strings"
)

// Tristate is a yes/no/any filter selector.
type Tristate string

const (
	Any Tristate = ""
	Yes Tristate = "yes"
	No  Tristate = "no"
)

// ParseTristate maps "yes"/"no"/"all"/"" (case-insensitive) to a Tristate.
func ParseTristate(s string) (Tristate, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "any":
		return Any, true
	case "yes", "true", "y":
		return Yes, true
	case "no", "false", "n":
		return No, true
	}
	return Any, false
}

func (t Tristate) match(v bool) bool {
	switch t {
	case Yes:
		return v
	case No:
		return !v
	default:
		return true
	}
}

// Filter specifies criteria for narrowing a variable set.
type Filter struct {
	Search        string        // case-insensitive substring of variable, label, description or ruleblock
	Ruleblock     string        // exact rule-block match; empty matches all
	StatementType StatementType // empty matches all
	HasMetadata   Tristate      // label present
	IsReportable  Tristate      // is_reportable == "1"
	HasTemplates  Tristate      // referenced by at least one template
}

// Match reports whether v satisfies every criterion of f.
func (f Filter) Match(v *Variable) bool {
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(v.Variable), term) &&
			!strings.Contains(strings.ToLower(v.Label), term) &&
			!strings.Contains(strings.ToLower(v.Description), term) &&
			!strings.Contains(strings.ToLower(v.Ruleblock), term) {
			return false
		}
	}
	if f.Ruleblock != "" && v.Ruleblock != f.Ruleblock {
		return false
	}
	if f.StatementType != "" && v.StatementType != f.StatementType {
		return false
	}
	return f.HasMetadata.match(v.Label != "") &&
		f.IsReportable.match(v.Reportable()) &&
		f.HasTemplates.match(v.ReferencedInTemplates != "")
}

// Apply returns the records of vars matching f, preserving order.
func (f Filter) Apply(vars []Variable) []Variable {
	out := make([]Variable, 0, len(vars))
	for i := range vars {
		if f.Match(&vars[i]) {
			out = append(out, vars[i])
		}
	}
	return out
}

// RuleblockOptions returns the distinct rule-block names of vars, sorted.
func RuleblockOptions(vars []Variable) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range vars {
		rb := vars[i].Ruleblock
		if _, ok := seen[rb]; ok {
			continue
		}
		seen[rb] = struct{}{}
		out = append(out, rb)
	}
	sort.Strings(out)
	return out
}
