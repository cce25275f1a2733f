package symbols

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Entry maps a Unicode symbol (a single rune or a short fixed sequence)
// to its markup-math replacement.
type Entry struct {
	// Symbol is the raw Unicode text to replace, e.g. "Ω" or "°C".
	Symbol string `yaml:"symbol" json:"symbol"`

	// Replacement is the markup-math text without delimiters, e.g. `\Omega`.
	Replacement string `yaml:"replacement" json:"replacement"`
}

// Map is an immutable, ordered substitution table. Longer symbols are
// ordered before shorter ones so multi-rune sequences win over their
// constituent runes. The zero value is an empty map.
type Map struct {
	entries []Entry
	byFirst map[rune][]int // first rune -> entry indexes, longest first
}

// New builds a Map from entries. It rejects empty or duplicate symbols and
// any replacement that itself contains a mapped symbol, since such a table
// would not normalize idempotently.
func New(entries []Entry) (*Map, error) {
	seen := make(map[string]bool, len(entries))
	sorted := make([]Entry, 0, len(entries))
	for i, e := range entries {
		if e.Symbol == "" {
			return nil, fmt.Errorf("entry %d: empty symbol", i)
		}
		if e.Replacement == "" {
			return nil, fmt.Errorf("entry %d (%q): empty replacement", i, e.Symbol)
		}
		if seen[e.Symbol] {
			return nil, fmt.Errorf("entry %d: duplicate symbol %q", i, e.Symbol)
		}
		seen[e.Symbol] = true
		sorted = append(sorted, e)
	}

	for _, e := range sorted {
		for _, other := range sorted {
			if strings.Contains(e.Replacement, other.Symbol) {
				return nil, fmt.Errorf("replacement %q for %q contains mapped symbol %q", e.Replacement, e.Symbol, other.Symbol)
			}
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return utf8.RuneCountInString(sorted[i].Symbol) > utf8.RuneCountInString(sorted[j].Symbol)
	})

	m := &Map{entries: sorted, byFirst: make(map[rune][]int)}
	for i, e := range sorted {
		r, _ := utf8.DecodeRuneInString(e.Symbol)
		m.byFirst[r] = append(m.byFirst[r], i)
	}
	return m, nil
}

// With returns a new Map holding m's entries followed by extra. Entries in
// extra override entries in m with the same symbol.
func (m *Map) With(extra ...Entry) (*Map, error) {
	override := make(map[string]bool, len(extra))
	for _, e := range extra {
		override[e.Symbol] = true
	}
	merged := make([]Entry, 0, m.Len()+len(extra))
	for _, e := range m.Entries() {
		if !override[e.Symbol] {
			merged = append(merged, e)
		}
	}
	merged = append(merged, extra...)
	return New(merged)
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns a copy of the entries in match order.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Match reports the longest entry whose symbol starts at text[i].
// The returned width is the number of runes the symbol covers.
func (m *Map) Match(text []rune, i int) (e Entry, width int, ok bool) {
	if m == nil || i < 0 || i >= len(text) {
		return Entry{}, 0, false
	}
	for _, idx := range m.byFirst[text[i]] {
		cand := m.entries[idx]
		sym := []rune(cand.Symbol)
		if i+len(sym) > len(text) {
			continue
		}
		if string(text[i:i+len(sym)]) == cand.Symbol {
			return cand, len(sym), true
		}
	}
	return Entry{}, 0, false
}

