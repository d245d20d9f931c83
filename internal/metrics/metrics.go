// Package metrics computes per-file source metrics for rule blocks and
// templates.
package metrics

// MetricType identifies a specific source metric.
type MetricType string

const (
	LinesOfCode         MetricType = "lines_of_code"
	BlankLines          MetricType = "blank_lines"
	CommentLines        MetricType = "comment_lines"
	CodeLines           MetricType = "code_lines"
	TodoCount           MetricType = "todo_count"
	FixmeCount          MetricType = "fixme_count"
	HackCount           MetricType = "hack_count"
	StatementCount      MetricType = "statement_count"
	DirectiveCount      MetricType = "directive_count"
	ConditionalBranches MetricType = "conditional_branches"
)

// Calculator computes metrics for a given file.
type Calculator interface {
	// Calculate returns metric values for the given file content and language.
	Calculate(filePath string, content []byte, language string) (map[MetricType]float64, error)
}

// CompositeCalculator runs multiple calculators and merges their results.
type CompositeCalculator struct {
	calculators []Calculator
}

// NewCompositeCalculator creates a CompositeCalculator with all built-in calculators.
func NewCompositeCalculator() *CompositeCalculator {
	return &CompositeCalculator{
		calculators: []Calculator{
			&StructureCalculator{},
			&LinesOfCodeCalculator{},
			&TodoCounter{},
		},
	}
}

// Calculate runs all calculators and merges results into a single map.
func (c *CompositeCalculator) Calculate(filePath string, content []byte, language string) (map[MetricType]float64, error) {
	result := make(map[MetricType]float64)
	for _, calc := range c.calculators {
		m, err := calc.Calculate(filePath, content, language)
		if err != nil {
			return nil, err
		}
		for k, v := range m {
			result[k] = v
		}
	}
	return result, nil
}

// ToMap converts a metric set to the string-keyed form stored in snapshots.
func ToMap(m map[MetricType]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}
