package parser

import "github.com/asaabey/picorule-sentry/internal/catalog"

// Language identifies a source language understood by the catalog.
type Language string

const (
	LangPicorules Language = "picorules"
	LangTemplate  Language = "template"
)

// FileExtensions maps each language to its recognized file extensions.
var FileExtensions = map[Language][]string{
	LangPicorules: {".prb"},
	LangTemplate:  {".txt"},
}

// ParseResult holds what was extracted from one file. Rule-block parsers fill
// Variables; template parsers fill Template.
type ParseResult struct {
	FilePath  string
	Language  Language
	Variables []catalog.Variable
	Template  *catalog.TemplateReference
}

// Parser defines the interface for language-specific extractors.
type Parser interface {
	// Language returns which language this parser handles.
	Language() Language

	// Extensions returns the file extensions this parser can handle.
	Extensions() []string

	// ParseFile extracts records from the given file content. Extractors are
	// total over arbitrary text, so the error is reserved for I/O-backed
	// implementations.
	ParseFile(filePath string, content []byte) (*ParseResult, error)
}
