package metrics

import (
	"regexp"
	"strings"
)

// TodoCounter counts TODO, FIXME and HACK markers written in comments. Rule
// blocks use // and /* */ comments, templates use {# #}. Markers inside
// labels, doc text or template output are not counted. Other languages are
// scanned whole.
type TodoCounter struct{}

var (
	todoPattern  = regexp.MustCompile(`(?i)\bTODO\b`)
	fixmePattern = regexp.MustCompile(`(?i)\bFIXME\b`)
	hackPattern  = regexp.MustCompile(`(?i)\bHACK\b`)

	templateCommentPat = regexp.MustCompile(`(?s)\{#.*?#\}`)
)

func (c *TodoCounter) Calculate(_ string, content []byte, language string) (map[MetricType]float64, error) {
	text := commentText(string(content), strings.ToLower(language))
	return map[MetricType]float64{
		TodoCount:  float64(len(todoPattern.FindAllStringIndex(text, -1))),
		FixmeCount: float64(len(fixmePattern.FindAllStringIndex(text, -1))),
		HackCount:  float64(len(hackPattern.FindAllStringIndex(text, -1))),
	}, nil
}

// commentText joins the comments of src, one per line.
func commentText(src, lang string) string {
	var comments []string
	switch lang {
	case "picorules":
		comments = append(comments, blockCommentPat.FindAllString(src, -1)...)
		src = blockCommentPat.ReplaceAllLiteralString(src, "")
		comments = append(comments, lineCommentPat.FindAllString(src, -1)...)
	case "template":
		comments = templateCommentPat.FindAllString(src, -1)
	default:
		return src
	}
	return strings.Join(comments, "\n")
}
