// Package picorules extracts variable records from Picorules rule-block
// source. Extraction is pattern based: statements are split on ';', classified
// by their head, and annotated from #define_attribute and #doc directives,
// eadv attribute references and lexical references to other variables.
package picorules

import (
	"path/filepath"
	"strings"

	"github.com/asaabey/picorule-sentry/internal/parser"
)

// RuleblockExt is the file suffix of rule-block sources.
const RuleblockExt = ".prb"

// PicorulesParser extracts catalog variables from .prb files.
type PicorulesParser struct{}

// NewParser creates a new Picorules parser.
func NewParser() *PicorulesParser {
	return &PicorulesParser{}
}

func (p *PicorulesParser) Language() parser.Language {
	return parser.LangPicorules
}

func (p *PicorulesParser) Extensions() []string {
	return parser.FileExtensions[parser.LangPicorules]
}

func (p *PicorulesParser) ParseFile(filePath string, content []byte) (*parser.ParseResult, error) {
	return &parser.ParseResult{
		FilePath:  filePath,
		Language:  parser.LangPicorules,
		Variables: ExtractVariables(string(content), RuleblockName(filePath)),
	}, nil
}

// RuleblockName derives the rule-block identifier from a file name by
// dropping any directory and the .prb suffix.
func RuleblockName(fileName string) string {
	return strings.TrimSuffix(filepath.Base(fileName), RuleblockExt)
}
