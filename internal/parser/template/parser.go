// Package template extracts rule-block variable references from report
// templates. A reference is a dotted "ruleblock.variable" pair appearing in a
// control block, a formatting helper call or a bare interpolation.
package template

import (
	"path/filepath"
	"regexp"

	"github.com/asaabey/picorule-sentry/internal/catalog"
	"github.com/asaabey/picorule-sentry/internal/parser"
)

// TemplateParser extracts variable references from template files.
type TemplateParser struct{}

// NewParser creates a new template parser.
func NewParser() *TemplateParser {
	return &TemplateParser{}
}

func (p *TemplateParser) Language() parser.Language {
	return parser.LangTemplate
}

func (p *TemplateParser) Extensions() []string {
	return parser.FileExtensions[parser.LangTemplate]
}

func (p *TemplateParser) ParseFile(filePath string, content []byte) (*parser.ParseResult, error) {
	ref := ParseTemplateFile(string(content), filepath.Base(filePath))
	return &parser.ParseResult{
		FilePath: filePath,
		Language: parser.LangTemplate,
		Template: &ref,
	}, nil
}

// Reference patterns. Each captures the dotted pair in group 1.
var (
	// {% if ruleblock.variable ... %}
	conditionalBlockRe = regexp.MustCompile(`\{%\s*if\s+([a-zA-Z_][a-zA-Z0-9_]*\.[a-zA-Z_][a-zA-Z0-9_]*)`)
	// picoformat('ruleblock.variable')
	picoformatRe = regexp.MustCompile(`picoformat\(['"]([a-zA-Z_][a-zA-Z0-9_]*\.[a-zA-Z_][a-zA-Z0-9_]*)['"]\)`)
	// picodate('ruleblock.variable')
	picodateRe = regexp.MustCompile(`picodate\(['"]([a-zA-Z_][a-zA-Z0-9_]*\.[a-zA-Z_][a-zA-Z0-9_]*)['"]\)`)
	// {{ ruleblock.variable }} or {% ruleblock.variable %}; the delimiters are
	// matched as character classes, so mixed pairs like {{ a.b %} also count
	directSpanRe = regexp.MustCompile(`\{[{%]\s*([a-zA-Z_][a-zA-Z0-9_]*\.[a-zA-Z_][a-zA-Z0-9_]*)\s*[}%]\}`)
)

// referencePatterns are unioned; no class takes precedence over another.
var referencePatterns = []*regexp.Regexp{
	conditionalBlockRe,
	picoformatRe,
	picodateRe,
	directSpanRe,
}

// ExtractVariableReferences returns the unique "ruleblock.variable" references
// in content, in first-seen order across the pattern classes.
func ExtractVariableReferences(content string) []string {
	seen := make(map[string]struct{})
	refs := make([]string, 0)
	for _, re := range referencePatterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			if _, ok := seen[m[1]]; ok {
				continue
			}
			seen[m[1]] = struct{}{}
			refs = append(refs, m[1])
		}
	}
	return refs
}

// ParseTemplateFile extracts the references of one template.
func ParseTemplateFile(content, templateName string) catalog.TemplateReference {
	return catalog.TemplateReference{
		TemplateName:       templateName,
		VariableReferences: ExtractVariableReferences(content),
	}
}
