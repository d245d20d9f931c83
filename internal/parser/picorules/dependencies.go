package picorules

import (
	"regexp"
	"strings"
)

var (
	// rout_<block>.<name>. binds a variable owned by another rule block
	crossBlockBindingRe = regexp.MustCompile(`rout_([a-zA-Z_][a-zA-Z0-9_]*)\.([a-zA-Z_][a-zA-Z0-9_]*)\.`)
	eadvSpanRe          = regexp.MustCompile(`eadv\.\S+`)
	methodCallRe        = regexp.MustCompile(`\.[a-zA-Z_]+\([^)]*\)`)
	identifierRe        = regexp.MustCompile(`\b([a-zA-Z_][a-zA-Z0-9_]*)\b`)
)

// dependencyKeywords are functions, operators and eadv accessors that look
// like identifiers but never name a variable. Compared lower-cased.
var dependencyKeywords = map[string]struct{}{
	"and": {}, "or": {}, "not": {}, "where": {}, "sysdate": {},
	"coalesce": {}, "greatest": {}, "least": {}, "least_date": {},
	"round": {}, "ceil": {}, "floor": {}, "abs": {}, "nvl": {}, "decode": {},
	"case": {}, "when": {}, "then": {}, "else": {}, "end": {},
	"concat": {}, "substr": {}, "instr": {},
	"eadv": {}, "val": {}, "dt": {}, "att": {}, "eid": {},
}

// scrub blanks out spans already classified so later scans do not see them.
type scrub struct {
	name string
	re   *regexp.Regexp
}

// dependencyScrubs run in order; each consumes what the previous left.
var dependencyScrubs = []scrub{
	{"cross-block bindings", crossBlockBindingRe},
	{"eadv references", eadvSpanRe},
	{"method calls", methodCallRe},
}

// ParseDependencies returns the variables referenced by stmt, excluding name
// itself, comma-joined in first-seen order. Cross-block bindings come first as
// rout_<block>.<name> tokens, followed by bare identifiers.
func ParseDependencies(stmt, name string) string {
	deps := crossBlockBindings(stmt)
	deps = append(deps, bareReferences(scrubStatement(stmt), name)...)
	return strings.Join(dedupe(deps), ",")
}

// crossBlockBindings collects every rout_<block>.<name> binding of stmt.
func crossBlockBindings(stmt string) []string {
	var out []string
	for _, m := range crossBlockBindingRe.FindAllStringSubmatch(stmt, -1) {
		out = append(out, "rout_"+m[1]+"."+m[2])
	}
	return out
}

// scrubStatement applies dependencyScrubs in order, returning a new string.
func scrubStatement(stmt string) string {
	for _, s := range dependencyScrubs {
		stmt = s.re.ReplaceAllLiteralString(stmt, "")
	}
	return stmt
}

// bareReferences scans scrubbed text for identifier tokens that can name a
// variable other than name. Numeric literals never match identifierRe.
func bareReferences(scrubbed, name string) []string {
	var out []string
	for _, m := range identifierRe.FindAllStringSubmatch(scrubbed, -1) {
		token := m[1]
		if isDependencyCandidate(token, name) {
			out = append(out, token)
		}
	}
	return out
}

func isDependencyCandidate(token, name string) bool {
	if _, ok := dependencyKeywords[strings.ToLower(token)]; ok {
		return false
	}
	return token != name && len(token) > 1
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
