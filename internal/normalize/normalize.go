// Package normalize rewrites raw Unicode math symbols in free text into
// markup-math notation.
//
// The scanner walks the text once, left to right, and keeps two pieces of
// state: whether it is inside a math segment ($…$, $$…$$, \(…\), \[…\])
// and where the last inline segment closed in the output. Markup tokens
// are copied verbatim:
//
//   - a backslash followed by ASCII letters is a command (`\Omega`) and the
//     whole letter run is one token;
//   - a backslash followed by any other rune is a two-rune escape (`\$`,
//     `\,`, `\°`). An escaped symbol is deliberately left alone.
//
// Mapped symbols inside math are replaced by their bare markup. Outside
// math the replacement is wrapped in $…$; a run of symbols, or a symbol
// directly after a closing $, extends the same inline segment instead of
// producing an ambiguous "$$". Nothing the normalizer emits contains a
// mapped symbol, so a second pass finds nothing to do.
package normalize

import (
	"unicode"

	"github.com/abhisek/quizprep/internal/symbols"
)

// Substitution records one replaced symbol.
type Substitution struct {
	// Original is the symbol text as it appeared in the input.
	Original string `json:"original"`

	// Offset is the rune offset of Original in the input text.
	Offset int `json:"offset"`

	// Replacement is the markup that replaced it, without delimiters.
	Replacement string `json:"replacement"`
}

// Unrecognized is a non-ASCII math-like rune with no mapping.
type Unrecognized struct {
	Rune   rune `json:"rune"`
	Offset int  `json:"offset"`
}

// Result is the outcome of normalizing one text field.
type Result struct {
	Text          string         `json:"text"`
	Substitutions []Substitution `json:"substitutions"`
	Unrecognized  []Unrecognized `json:"unrecognized"`
}

// Changed reports whether any substitution was made.
func (r Result) Changed() bool {
	return len(r.Substitutions) > 0
}

// Normalizer applies a symbol map to text. It is stateless between calls
// and safe for concurrent use.
type Normalizer struct {
	symbols *symbols.Map
}

// New returns a Normalizer backed by m.
func New(m *symbols.Map) *Normalizer {
	return &Normalizer{symbols: m}
}

type mathMode int

const (
	textMode mathMode = iota
	inlineMode
	displayMode
	parenMode
	bracketMode
)

type scanner struct {
	in  []rune
	out []rune

	mode mathMode

	// reopenAt is len(out) right after an inline segment closed, or -1.
	// A symbol arriving there reopens the segment.
	reopenAt int

	// wrappedAt is len(out) right after a wrap this scanner emitted, or -1.
	wrappedAt int

	// guard is set after a bare replacement ending in a letter so the next
	// letter does not extend the command name.
	guard bool
}

// Normalize rewrites text and reports what changed. It never fails.
func (n *Normalizer) Normalize(text string) Result {
	res := Result{Text: text}
	if text == "" {
		return res
	}

	s := &scanner{
		in:        []rune(text),
		reopenAt:  -1,
		wrappedAt: -1,
	}
	s.out = make([]rune, 0, len(s.in)+8)

	for i := 0; i < len(s.in); {
		r := s.in[i]

		switch {
		case r == '\\':
			i = s.token(i)
			continue

		case r == '$':
			i = s.dollar(i)
			continue
		}

		if e, width, ok := n.symbols.Match(s.in, i); ok {
			s.replace(e.Replacement)
			res.Substitutions = append(res.Substitutions, Substitution{
				Original:    e.Symbol,
				Offset:      i,
				Replacement: e.Replacement,
			})
			i += width
			continue
		}

		if isMathLike(r) {
			res.Unrecognized = append(res.Unrecognized, Unrecognized{Rune: r, Offset: i})
		}
		s.write(r)
		i++
	}

	if len(res.Substitutions) > 0 {
		res.Text = string(s.out)
	}
	return res
}

// token copies a backslash token starting at i and returns the next index.
func (s *scanner) token(i int) int {
	if i+1 >= len(s.in) {
		s.write('\\')
		return i + 1
	}
	next := s.in[i+1]
	if isASCIILetter(next) {
		j := i + 1
		for j < len(s.in) && isASCIILetter(s.in[j]) {
			j++
		}
		s.write(s.in[i:j]...)
		return j
	}

	switch {
	case next == '(' && s.mode == textMode:
		s.mode = parenMode
	case next == ')' && s.mode == parenMode:
		s.mode = textMode
	case next == '[' && s.mode == textMode:
		s.mode = bracketMode
	case next == ']' && s.mode == bracketMode:
		s.mode = textMode
	}
	s.write('\\', next)
	return i + 2
}

// dollar handles $ and $$ starting at i and returns the next index.
func (s *scanner) dollar(i int) int {
	double := i+1 < len(s.in) && s.in[i+1] == '$'

	if s.mode == inlineMode {
		s.write('$')
		s.mode = textMode
		s.reopenAt = len(s.out)
		return i + 1
	}

	// Keep our own wrap from fusing with an opening delimiter.
	if s.mode == textMode && s.wrappedAt == len(s.out) {
		s.write(' ')
	}

	if double {
		switch s.mode {
		case textMode:
			s.mode = displayMode
		case displayMode:
			s.mode = textMode
		}
		s.write('$', '$')
		return i + 2
	}

	if s.mode == textMode {
		s.mode = inlineMode
	}
	s.write('$')
	return i + 1
}

// replace emits a replacement for a matched symbol.
func (s *scanner) replace(rep string) {
	r := []rune(rep)

	if s.mode != textMode {
		s.write(r...)
		s.guard = isASCIILetter(r[len(r)-1])
		return
	}

	if s.reopenAt >= 0 && s.reopenAt == len(s.out) {
		s.out = s.out[:len(s.out)-1]
	} else {
		s.write('$')
	}
	s.write(r...)
	s.write('$')
	s.reopenAt = len(s.out)
	s.wrappedAt = len(s.out)
}

func (s *scanner) write(rs ...rune) {
	if len(rs) == 0 {
		return
	}
	if s.guard && isASCIILetter(rs[0]) {
		s.out = append(s.out, ' ')
	}
	s.guard = false
	s.out = append(s.out, rs...)
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// isMathLike reports whether an unmapped rune looks like math notation:
// math symbols, non-decimal numbers (superscripts, fractions) and Greek.
func isMathLike(r rune) bool {
	if r < 0x80 {
		return false
	}
	return unicode.Is(unicode.Sm, r) || unicode.Is(unicode.No, r) || unicode.Is(unicode.Greek, r)
}
