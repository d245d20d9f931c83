package picorules

import (
	"regexp"
	"strings"

	"github.com/asaabey/picorule-sentry/internal/catalog"
)

const (
	statementTerminator = ";"
	directiveMarker     = "#"
)

var (
	// name => expression
	functionalHeadRe = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*)\s*=>`)
	// name : { condition => value }
	conditionalHeadRe = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*)\s*:`)
	// #define_attribute(name, {...}) or any other #directive(...) at the head
	// of a fragment; one level of nested parentheses is allowed
	leadingDirectiveRe = regexp.MustCompile(`^#[a-zA-Z_]+\s*\((?:[^()]|\([^()]*\))*\)`)
)

// ExtractVariables returns one record per functional or conditional statement
// of content, in source order. Directives are looked up in the original
// content, so they may sit anywhere in the file. An empty ruleblock yields no
// records.
func ExtractVariables(content, ruleblock string) []catalog.Variable {
	if ruleblock == "" {
		return nil
	}

	e := &extractor{
		content:   content,
		ruleblock: ruleblock,
		metadata:  make(map[string]catalog.VariableMetadata),
		docs:      make(map[string]string),
	}
	e.extract()
	return e.variables
}

type extractor struct {
	content   string
	ruleblock string
	variables []catalog.Variable

	// per-name directive lookups, memoized for names defined more than once
	metadata map[string]catalog.VariableMetadata
	docs     map[string]string
}

func (e *extractor) extract() {
	for _, fragment := range strings.Split(StripComments(e.content), statementTerminator) {
		stmt := stripLeadingDirectives(strings.TrimSpace(fragment))
		if stmt == "" {
			continue
		}

		name, kind, ok := classify(stmt)
		if !ok {
			continue
		}
		e.addVariable(name, kind, stmt)
	}
}

// stripLeadingDirectives drops directive calls at the head of a fragment. A
// directive not terminated by its own ';' would otherwise hide the statement
// that follows it. Fragments that are only directives, or that start with an
// unrecognised '#' line, come back empty. A fragment starting with '#' is
// therefore not skipped outright: a statement glued to an unterminated
// directive, as in `#doc(x, {}) x : {a => 1}`, still yields a record.
func stripLeadingDirectives(stmt string) string {
	for strings.HasPrefix(stmt, directiveMarker) {
		loc := leadingDirectiveRe.FindStringIndex(stmt)
		if loc == nil {
			return ""
		}
		stmt = strings.TrimSpace(stmt[loc[1]:])
	}
	return stmt
}

// classify matches the statement head. Functional takes precedence because a
// functional body may itself contain ':'.
func classify(stmt string) (string, catalog.StatementType, bool) {
	if m := functionalHeadRe.FindStringSubmatch(stmt); m != nil {
		return m[1], catalog.Functional, true
	}
	if m := conditionalHeadRe.FindStringSubmatch(stmt); m != nil {
		return m[1], catalog.Conditional, true
	}
	return "", "", false
}

func (e *extractor) addVariable(name string, kind catalog.StatementType, stmt string) {
	meta := e.lookupMetadata(name)

	var eadv string
	if kind == catalog.Functional {
		eadv = ParseEadvAttributes(stmt)
	}

	e.variables = append(e.variables, catalog.Variable{
		Ruleblock:      e.ruleblock,
		Variable:       name,
		StatementType:  kind,
		Statement:      stmt,
		Label:          meta.Label,
		Description:    e.lookupDoc(name),
		Type:           meta.Type,
		IsReportable:   meta.IsReportable,
		IsBIObj:        meta.IsBIObj,
		EadvAttributes: eadv,
		DependsOn:      ParseDependencies(stmt, name),
	})
}

func (e *extractor) lookupMetadata(name string) catalog.VariableMetadata {
	if meta, ok := e.metadata[name]; ok {
		return meta
	}
	meta := ParseDefineAttribute(e.content, name)
	e.metadata[name] = meta
	return meta
}

func (e *extractor) lookupDoc(name string) string {
	if doc, ok := e.docs[name]; ok {
		return doc
	}
	doc := ParseDoc(e.content, name)
	e.docs[name] = doc
	return doc
}
