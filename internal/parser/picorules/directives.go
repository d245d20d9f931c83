package picorules

import (
	"regexp"

	"github.com/asaabey/picorule-sentry/internal/catalog"
)

// Fields inside a directive body.
var (
	labelFieldRe        = regexp.MustCompile(`label\s*:\s*["']([^"']+)["']`)
	typeFieldRe         = regexp.MustCompile(`type\s*:\s*(\d+)`)
	isReportableFieldRe = regexp.MustCompile(`is_reportable\s*:\s*(\d+)`)
	isBIObjFieldRe      = regexp.MustCompile(`is_bi_obj\s*:\s*(\d+)`)
	txtFieldRe          = regexp.MustCompile(`txt\s*:\s*["']([^"']+)["']`)
)

// directiveBody returns the {...} body of the first `#<directive>(<name>, {...})`
// in content. The body may span lines but cannot contain '}'.
func directiveBody(content, directive, name string) (string, bool) {
	re, err := regexp.Compile(`(?s)#` + directive + `\(` + regexp.QuoteMeta(name) + `\s*,\s*\{([^}]+)\}\s*\)`)
	if err != nil {
		return "", false
	}
	m := re.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParseDefineAttribute extracts the #define_attribute fields declared for
// name. Missing directives and missing fields yield empty values.
func ParseDefineAttribute(content, name string) catalog.VariableMetadata {
	body, ok := directiveBody(content, "define_attribute", name)
	if !ok {
		return catalog.VariableMetadata{}
	}
	return catalog.VariableMetadata{
		Label:        firstSubmatch(labelFieldRe, body),
		Type:         firstSubmatch(typeFieldRe, body),
		IsReportable: firstSubmatch(isReportableFieldRe, body),
		IsBIObj:      firstSubmatch(isBIObjFieldRe, body),
	}
}

// ParseDoc extracts the txt field of the #doc directive declared for name.
func ParseDoc(content, name string) string {
	body, ok := directiveBody(content, "doc", name)
	if !ok {
		return ""
	}
	return firstSubmatch(txtFieldRe, body)
}

func firstSubmatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}
