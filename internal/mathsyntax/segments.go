package mathsyntax

import (
	"fmt"

	"github.com/abhisek/quizprep/internal/finding"
)

// Kind identifies the delimiter style of a math segment.
type Kind string

const (
	Inline  Kind = "inline"  // $…$
	Display Kind = "display" // $$…$$
	Paren   Kind = "paren"   // \(…\)
	Bracket Kind = "bracket" // \[…\]
)

// Segment is a delimited math region. Offsets are rune offsets; Start/End
// include the delimiters, InnerStart/InnerEnd exclude them.
type Segment struct {
	Kind       Kind
	Start      int
	End        int
	InnerStart int
	InnerEnd   int

	// Closed is false for a segment that runs to the end of the text
	// without a closing delimiter.
	Closed bool
}

// Contains reports whether the rune offset i lies inside the segment.
func (s Segment) Contains(i int) bool {
	return i >= s.Start && i < s.End
}

func (k Kind) open() string {
	switch k {
	case Inline:
		return "$"
	case Display:
		return "$$"
	case Paren:
		return `\(`
	case Bracket:
		return `\[`
	}
	return ""
}

func (k Kind) close() string {
	switch k {
	case Inline:
		return "$"
	case Display:
		return "$$"
	case Paren:
		return `\)`
	case Bracket:
		return `\]`
	}
	return ""
}

// Segments returns the math segments of text in order.
func Segments(text string) []Segment {
	segs, _ := scanSegments([]rune(text))
	return segs
}

// HasMath reports whether text contains at least one math segment.
func HasMath(text string) bool {
	return len(Segments(text)) > 0
}

// scanSegments splits rs into math segments and reports delimiter
// problems. Escaped dollars (\$) are not delimiters.
func scanSegments(rs []rune) ([]Segment, []finding.Issue) {
	var (
		segs   []Segment
		issues []finding.Issue
		open   *Segment
	)

	begin := func(kind Kind, at, width int) {
		open = &Segment{Kind: kind, Start: at, InnerStart: at + width}
	}
	end := func(at, width int) {
		open.InnerEnd = at
		open.End = at + width
		open.Closed = true
		segs = append(segs, *open)
		open = nil
	}
	stray := func(at int, delim string) {
		issues = append(issues, finding.Issue{
			Severity: finding.Critical,
			Code:     finding.CodeUnbalancedDelimiter,
			Message:  fmt.Sprintf("closing %s has no matching opening delimiter", delim),
			Span:     finding.SpanAt(at, at+len([]rune(delim))),
		})
	}

	for i := 0; i < len(rs); {
		r := rs[i]

		if r == '\\' && i+1 < len(rs) {
			next := rs[i+1]
			switch next {
			case '(':
				if open == nil {
					begin(Paren, i, 2)
				}
			case '[':
				if open == nil {
					begin(Bracket, i, 2)
				}
			case ')':
				if open != nil && open.Kind == Paren {
					end(i, 2)
				} else if open == nil {
					stray(i, `\)`)
				}
			case ']':
				if open != nil && open.Kind == Bracket {
					end(i, 2)
				} else if open == nil {
					stray(i, `\]`)
				}
			}
			i += tokenWidth(rs, i)
			continue
		}

		if r != '$' {
			i++
			continue
		}

		double := i+1 < len(rs) && rs[i+1] == '$'
		switch {
		case open == nil && double:
			begin(Display, i, 2)
			i += 2
		case open == nil:
			begin(Inline, i, 1)
			i++
		case open.Kind == Inline:
			end(i, 1)
			i++
		case open.Kind == Display && double:
			end(i, 2)
			i += 2
		default:
			i++
		}
	}

	if open != nil {
		open.InnerEnd = len(rs)
		open.End = len(rs)
		segs = append(segs, *open)

		msg := fmt.Sprintf("opening %s is never closed; expected %s", open.Kind.open(), open.Kind.close())
		if open.Kind == Inline {
			msg = "odd number of inline $ delimiters; this $ is never closed"
		}
		issues = append(issues, finding.Issue{
			Severity: finding.Critical,
			Code:     finding.CodeUnbalancedDelimiter,
			Message:  msg,
			Span:     finding.SpanAt(open.Start, open.InnerStart),
		})
	}

	return segs, issues
}

// tokenWidth returns the rune width of the backslash token at i: a
// command name (\frac) or a single escaped rune (\$, \{).
func tokenWidth(rs []rune, i int) int {
	if i+1 >= len(rs) {
		return 1
	}
	if !isLetter(rs[i+1]) {
		return 2
	}
	j := i + 1
	for j < len(rs) && isLetter(rs[j]) {
		j++
	}
	return j - i
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func segmentAt(segs []Segment, i int) (Segment, bool) {
	for _, s := range segs {
		if s.Contains(i) {
			return s, true
		}
	}
	return Segment{}, false
}
