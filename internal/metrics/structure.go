package metrics

import (
	"regexp"
	"strings"
)

// StructureCalculator counts statements, directives and conditional arms in
// Picorules sources. Other languages yield no structure metrics.
type StructureCalculator struct{}

var (
	// #define_attribute(, #doc(, #define_ruleblock( ...
	directivePattern = regexp.MustCompile(`(?m)^\s*#[a-zA-Z_]+\s*\(`)
	// { condition => value } arm of a conditional statement
	branchPattern   = regexp.MustCompile(`\{[^{}]*=>[^{}]*\}`)
	lineCommentPat  = regexp.MustCompile(`(?m)//.*$`)
	blockCommentPat = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

func (c *StructureCalculator) Calculate(_ string, content []byte, language string) (map[MetricType]float64, error) {
	if strings.ToLower(language) != "picorules" {
		return map[MetricType]float64{}, nil
	}

	text := lineCommentPat.ReplaceAllLiteralString(string(content), "")
	text = blockCommentPat.ReplaceAllLiteralString(text, "")

	var statements float64
	for _, fragment := range strings.Split(text, ";") {
		if trimmed := strings.TrimSpace(fragment); trimmed != "" {
			statements++
		}
	}

	return map[MetricType]float64{
		StatementCount:      statements,
		DirectiveCount:      float64(len(directivePattern.FindAllStringIndex(text, -1))),
		ConditionalBranches: float64(len(branchPattern.FindAllStringIndex(text, -1))),
	}, nil
}
