package matching

import (
	"strings"
	"unicode/utf8"
)

// reservedURI lists the characters whose escapes DecodeURI keeps intact.
const reservedURI = ";/?:@&=+$,#"

// DecodeURI decodes percent-escapes in a full URL, leaving escapes of
// reserved characters untouched so the URL structure is preserved.
// Input with malformed escapes or invalid UTF-8 is returned unchanged.
func DecodeURI(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteByte(s[i])
			continue
		}
		if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
			return s
		}
		c := unhex(s[i+1])<<4 | unhex(s[i+2])
		if c < utf8.RuneSelf && strings.IndexByte(reservedURI, c) >= 0 {
			b.WriteString(s[i : i+3])
		} else {
			b.WriteByte(c)
		}
		i += 2
	}

	out := b.String()
	if !utf8.ValidString(out) {
		return s
	}
	return out
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
