// Package catalog defines the variable catalog data model shared by the
// parsers, the linker, the indexer and the cache backends.
package catalog

import (
	"strings"
	"time"
)

// StatementType classifies a Picorules statement.
type StatementType string

const (
	Functional  StatementType = "functional"
	Conditional StatementType = "conditional"
)

// CacheVersion is the cache tag for the current Variable shape. Bump it
// whenever a field is added so stale snapshots are never served as complete.
const CacheVersion = "v2"

// VariableMetadata holds the fields of a #define_attribute directive.
// Every field is empty when the directive or the field is absent.
type VariableMetadata struct {
	Label        string `json:"label,omitempty"`
	Type         string `json:"type,omitempty"`
	IsReportable string `json:"is_reportable,omitempty"`
	IsBIObj      string `json:"is_bi_obj,omitempty"`
}

// Variable is one classified statement of a rule block. A name redefined by
// several statements yields several records.
type Variable struct {
	Ruleblock             string        `json:"ruleblock"`
	Variable              string        `json:"variable"`
	StatementType         StatementType `json:"statement_type"`
	Statement             string        `json:"statement"`
	Label                 string        `json:"label"`
	Description           string        `json:"description"`
	Type                  string        `json:"type"`
	IsReportable          string        `json:"is_reportable"`
	IsBIObj               string        `json:"is_bi_obj"`
	EadvAttributes        string        `json:"eadv_attributes"`
	DependsOn             string        `json:"depends_on"`
	ReferencedInTemplates string        `json:"referenced_in_templates"`
}

// Key returns the composite "ruleblock.variable" key used for template
// cross-referencing. It is not unique across records.
func (v *Variable) Key() string {
	return v.Ruleblock + "." + v.Variable
}

// Dependencies splits DependsOn into its entries.
func (v *Variable) Dependencies() []string { return splitList(v.DependsOn) }

// EadvAttributeList splits EadvAttributes into its entries.
func (v *Variable) EadvAttributeList() []string { return splitList(v.EadvAttributes) }

// TemplateList splits ReferencedInTemplates into its entries.
func (v *Variable) TemplateList() []string { return splitList(v.ReferencedInTemplates) }

// Reportable reports whether the is_reportable flag is set.
func (v *Variable) Reportable() bool { return v.IsReportable == "1" }

// TemplateReference lists the unique "ruleblock.variable" references found in
// one template, in first-seen order.
type TemplateReference struct {
	TemplateName       string   `json:"template_name"`
	VariableReferences []string `json:"variable_references"`
}

// Stats holds aggregate counters over a variable set.
type Stats struct {
	TotalVariables              int `json:"total_variables"`
	FunctionalCount             int `json:"functional_count"`
	ConditionalCount            int `json:"conditional_count"`
	WithMetadataCount           int `json:"with_metadata_count"`
	WithoutMetadataCount        int `json:"without_metadata_count"`
	TotalRuleblocks             int `json:"total_ruleblocks"`
	WithTemplateReferencesCount int `json:"with_template_references_count"`
}

// FileInfo describes a source file as listed by the retrieval layer. The
// field set mirrors the GitHub contents API.
type FileInfo struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Size        int64  `json:"size"`
	URL         string `json:"url"`
	HTMLURL     string `json:"html_url"`
	GitURL      string `json:"git_url"`
	DownloadURL string `json:"download_url"`
	Type        string `json:"type"`
}

// Snapshot is the unit produced by a full extraction pass and persisted by a
// Cache under a version tag.
type Snapshot struct {
	RuleblockFiles []FileInfo                    `json:"ruleblock_files"`
	TemplateFiles  []FileInfo                    `json:"template_files"`
	Variables      []Variable                    `json:"variables"`
	Templates      []TemplateReference           `json:"templates"`
	Stats          Stats                         `json:"stats"`
	FileMetrics    map[string]map[string]float64 `json:"file_metrics,omitempty"`
	Timestamp      time.Time                     `json:"timestamp"`
}

// FindByKey returns every record whose Key equals key, in catalog order.
func (s *Snapshot) FindByKey(key string) []Variable {
	var out []Variable
	for i := range s.Variables {
		if s.Variables[i].Key() == key {
			out = append(out, s.Variables[i])
		}
	}
	return out
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
