package registry

import (
	"regexp"
	"strings"
)

// FromTemplate converts a URL template into a pattern source for Register.
//
//   - ":name" captures one path segment as the named group "name"
//   - "*" matches any run of characters
//   - everything else is literal
//
// Unless the template contains a '?', the pattern also accepts any query
// string, so "https://api.test/users" matches "https://api.test/users?page=2".
func FromTemplate(tmpl string) string {
	var b strings.Builder
	b.WriteString("^")

	for i := 0; i < len(tmpl); {
		c := tmpl[i]
		switch {
		case c == ':' && i+1 < len(tmpl) && isIdentStart(tmpl[i+1]):
			j := i + 1
			for j < len(tmpl) && isIdent(tmpl[j]) {
				j++
			}
			b.WriteString("(?P<")
			b.WriteString(tmpl[i+1 : j])
			b.WriteString(">[^/?#]+)")
			i = j
		case c == '*':
			b.WriteString(".*")
			i++
		default:
			j := i + 1
			for j < len(tmpl) && tmpl[j] != '*' && !(tmpl[j] == ':' && j+1 < len(tmpl) && isIdentStart(tmpl[j+1])) {
				j++
			}
			b.WriteString(regexp.QuoteMeta(tmpl[i:j]))
			i = j
		}
	}

	if !strings.Contains(tmpl, "?") {
		b.WriteString(`(?:\?.*)?`)
	}
	b.WriteString("$")
	return b.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
