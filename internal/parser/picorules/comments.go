package picorules

import "regexp"

var (
	// // to end of line
	lineCommentRe = regexp.MustCompile(`(?m)//.*$`)
	// /* ... */, possibly spanning lines, up to the first closing marker
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// StripComments removes line comments, then block comments, from src.
func StripComments(src string) string {
	cleaned := lineCommentRe.ReplaceAllLiteralString(src, "")
	return blockCommentRe.ReplaceAllLiteralString(cleaned, "")
}
