package picorules

import (
	"regexp"
	"strings"
)

const eadvMarker = "eadv."

var (
	// eadv.[icd_n17%, icd_n18%].dt.max()
	eadvListRe = regexp.MustCompile(`eadv\.\[([^\]]+)\]`)
	// eadv.lab_ua_acr.val.last()
	eadvSingleRe = regexp.MustCompile(`eadv\.([a-zA-Z_][a-zA-Z0-9_%]*)\.`)
)

// ParseEadvAttributes returns the eadv attribute names referenced by a
// functional statement, comma-joined. The bracketed list form wins over the
// single form; list order and duplicates are preserved.
func ParseEadvAttributes(stmt string) string {
	if !strings.Contains(stmt, eadvMarker) {
		return ""
	}

	if m := eadvListRe.FindStringSubmatch(stmt); m != nil {
		attrs := strings.Split(m[1], ",")
		for i := range attrs {
			attrs[i] = strings.TrimSpace(attrs[i])
		}
		return strings.Join(attrs, ",")
	}

	return firstSubmatch(eadvSingleRe, stmt)
}
