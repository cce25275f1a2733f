package question

import (
	"regexp"
	"sort"
	"strings"
)

// placeholderRe matches [key] placeholders.
var placeholderRe = regexp.MustCompile(`\[([A-Za-z0-9_\-]+)\]`)

// blankIDRe is the accepted shape of a blank id.
var blankIDRe = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

// ValidBlankID reports whether id can be used as a [id] placeholder.
func ValidBlankID(id string) bool {
	return blankIDRe.MatchString(id)
}

// Placeholders returns the distinct [key] placeholder names in text, in
// order of first appearance. A bracket preceded by a backslash opens
// display math (\[ … \]) and is not a placeholder.
func Placeholders(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > 0 && text[m[0]-1] == '\\' {
			continue
		}
		key := text[m[2]:m[3]]
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}

// ParseBlanks decodes a "blank1=value; blank2=value" answer string. Pairs
// are separated by newlines, or by semicolons outside $…$ math that are
// not escaped (so the TeX spacing \; survives). The first '=' splits id
// from value. Segments without '=' are returned as malformed.
func ParseBlanks(s string) (blanks []Blank, malformed []string) {
	for _, p := range splitBlanks(s) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, value, ok := strings.Cut(p, "=")
		if !ok {
			malformed = append(malformed, p)
			continue
		}
		blanks = append(blanks, Blank{ID: strings.TrimSpace(id), Value: strings.TrimSpace(value)})
	}
	return blanks, malformed
}

func splitBlanks(s string) []string {
	var (
		parts  []string
		cur    strings.Builder
		inMath bool
	)
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '\\' && i+1 < len(rs) && rs[i+1] != '\n':
			cur.WriteRune(r)
			cur.WriteRune(rs[i+1])
			i++
			continue
		case r == '\n', r == ';' && !inMath:
			parts = append(parts, cur.String())
			cur.Reset()
			inMath = false
			continue
		case r == '$':
			inMath = !inMath
		}
		cur.WriteRune(r)
	}
	return append(parts, cur.String())
}

func decodeBlanks(answer any) FillInBlanks {
	switch a := answer.(type) {
	case string:
		blanks, malformed := ParseBlanks(a)
		return FillInBlanks{Blanks: blanks, Malformed: malformed}
	case map[string]any:
		ids := make([]string, 0, len(a))
		for id := range a {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		blanks := make([]Blank, 0, len(ids))
		for _, id := range ids {
			blanks = append(blanks, Blank{ID: id, Value: scalarString(a[id])})
		}
		return FillInBlanks{Blanks: blanks}
	}
	return FillInBlanks{}
}

// SortedKeys returns the keys of m in sorted order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
