package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CompareKey folds an answer or choice into the form used for equality:
// NFKC-normalized, with whitespace, TeX spacing commands (\, \; \: \! \ ~)
// and unescaped $ delimiters removed. An escaped \$ stays a literal $.
// Under this key "10$\Omega$" and "10\,\Omega" are equal.
func CompareKey(s string) string {
	rs := []rune(norm.NFKC.String(s))
	var b strings.Builder
	b.Grow(len(rs))
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if r == '\\' && i+1 < len(rs) {
			switch rs[i+1] {
			case ',', ';', ':', '!', ' ':
				i++
				continue
			case '$':
				b.WriteRune('$')
				i++
				continue
			}
		}
		if r == '$' || r == '~' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SameAnswer reports whether a and b are equal under CompareKey.
func SameAnswer(a, b string) bool {
	return CompareKey(a) == CompareKey(b)
}
