// Package mathsyntax checks markup-math in free text for well-formedness.
// It looks at delimiter and brace balance plus a fixed list of risky
// patterns; it does not parse the math grammar.
package mathsyntax

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/abhisek/quizprep/internal/finding"
	"github.com/abhisek/quizprep/internal/symbols"
)

// deprecatedCommands are plain-TeX commands that render inconsistently in
// web math renderers.
var deprecatedCommands = map[string]string{
	"over": `\frac{a}{b}`,
	"bf":   `\mathbf{…}`,
	"it":   `\mathit{…}`,
	"rm":   `\mathrm{…}`,
	"cal":  `\mathcal{…}`,
	"sc":   `\textsc{…}`,
}

// baseMathCommands only make sense inside math. Commands produced by the
// symbol map are added per Checker.
var baseMathCommands = []string{
	"frac", "dfrac", "tfrac", "sqrt", "sum", "prod", "int", "lim",
	"log", "ln", "sin", "cos", "tan", "vec", "hat", "bar", "overline",
	"mathrm", "mathbf", "left", "right", "cdot", "times", "div",
	"circ", "pm", "leq", "geq", "neq", "approx", "infty",
}

var commandNameRe = regexp.MustCompile(`\\([A-Za-z]+)`)

// Checker finds markup-math problems in text. Safe for concurrent use.
type Checker struct {
	symbols      *symbols.Map
	mathCommands map[string]bool
}

// New returns a Checker that flags raw symbols from m.
func New(m *symbols.Map) *Checker {
	cmds := make(map[string]bool, len(baseMathCommands)+m.Len())
	for _, c := range baseMathCommands {
		cmds[c] = true
	}
	for _, e := range m.Entries() {
		for _, sub := range commandNameRe.FindAllStringSubmatch(e.Replacement, -1) {
			cmds[sub[1]] = true
		}
	}
	return &Checker{symbols: m, mathCommands: cmds}
}

// Check returns findings for text ordered by offset. Findings carry no
// Field; callers attach it.
func (c *Checker) Check(text string) []finding.Issue {
	if text == "" {
		return nil
	}
	rs := []rune(text)

	segs, issues := scanSegments(rs)
	for _, seg := range segs {
		if !seg.Closed {
			continue
		}
		issues = append(issues, checkBraces(rs, seg)...)
		issues = append(issues, checkLeftRight(rs, seg)...)
		if strings.TrimSpace(string(rs[seg.InnerStart:seg.InnerEnd])) == "" {
			issues = append(issues, finding.Issue{
				Severity: finding.Info,
				Code:     finding.CodeRiskyNotation,
				Message:  "empty math segment",
				Span:     finding.SpanAt(seg.Start, seg.End),
			})
		}
	}
	issues = append(issues, c.checkTokens(rs, segs)...)

	finding.SortByOffset(issues)
	return issues
}

// checkBraces reports unmatched { and } inside a closed segment. Escaped
// braces (\{ \}) are literal.
func checkBraces(rs []rune, seg Segment) []finding.Issue {
	var (
		issues []finding.Issue
		stack  []int
	)
	for i := seg.InnerStart; i < seg.InnerEnd; {
		switch rs[i] {
		case '\\':
			i += tokenWidth(rs, i)
			continue
		case '{':
			stack = append(stack, i)
		case '}':
			if len(stack) == 0 {
				issues = append(issues, finding.Issue{
					Severity: finding.Critical,
					Code:     finding.CodeUnbalancedBrace,
					Message:  "closing } has no matching {",
					Span:     finding.SpanAt(i, i+1),
				})
			} else {
				stack = stack[:len(stack)-1]
			}
		}
		i++
	}
	if len(stack) > 0 {
		issues = append(issues, finding.Issue{
			Severity: finding.Critical,
			Code:     finding.CodeUnbalancedBrace,
			Message:  fmt.Sprintf("%d unclosed { in math segment", len(stack)),
			Span:     finding.SpanAt(stack[0], stack[0]+1),
		})
	}
	return issues
}

func checkLeftRight(rs []rune, seg Segment) []finding.Issue {
	var left, right int
	for i := seg.InnerStart; i < seg.InnerEnd; {
		if rs[i] != '\\' {
			i++
			continue
		}
		w := tokenWidth(rs, i)
		switch string(rs[i+1 : i+w]) {
		case "left":
			left++
		case "right":
			right++
		}
		i += w
	}
	if left == right {
		return nil
	}
	return []finding.Issue{{
		Severity: finding.Warning,
		Code:     finding.CodeRiskyNotation,
		Message:  fmt.Sprintf(`\left used %d times but \right %d times`, left, right),
		Span:     finding.SpanAt(seg.Start, seg.End),
	}}
}

// checkTokens walks command tokens and raw runes for risky notation.
func (c *Checker) checkTokens(rs []rune, segs []Segment) []finding.Issue {
	var issues []finding.Issue
	for i := 0; i < len(rs); {
		if rs[i] == '\\' {
			w := tokenWidth(rs, i)
			if w > 1 && isLetter(rs[i+1]) {
				issues = append(issues, c.checkCommand(string(rs[i+1:i+w]), i, w, segs)...)
			}
			// An escaped symbol survives normalization and is still a raw glyph.
			if w == 2 {
				if e, sw, ok := c.symbols.Match(rs, i+1); ok {
					issues = append(issues, finding.Issue{
						Severity: finding.Warning,
						Code:     finding.CodeRiskyNotation,
						Message:  fmt.Sprintf("escaped Unicode symbol %q; use %s inside math", e.Symbol, e.Replacement),
						Span:     finding.SpanAt(i, i+1+sw),
					})
					w = 1 + sw
				}
			}
			i += w
			continue
		}

		if e, w, ok := c.symbols.Match(rs, i); ok {
			issues = append(issues, finding.Issue{
				Severity: finding.Warning,
				Code:     finding.CodeRiskyNotation,
				Message:  fmt.Sprintf("raw Unicode symbol %q; use %s inside math", e.Symbol, e.Replacement),
				Span:     finding.SpanAt(i, i+w),
			})
			i += w
			continue
		}
		i++
	}
	return issues
}

func (c *Checker) checkCommand(name string, at, width int, segs []Segment) []finding.Issue {
	_, inMath := segmentAt(segs, at)

	if repl, ok := deprecatedCommands[name]; ok && inMath {
		return []finding.Issue{{
			Severity: finding.Warning,
			Code:     finding.CodeDeprecatedCommand,
			Message:  fmt.Sprintf(`deprecated \%s; use %s`, name, repl),
			Span:     finding.SpanAt(at, at+width),
		}}
	}
	if !inMath && c.mathCommands[name] {
		return []finding.Issue{{
			Severity: finding.Warning,
			Code:     finding.CodeCommandOutsideMath,
			Message:  fmt.Sprintf(`\%s is only valid inside math delimiters`, name),
			Span:     finding.SpanAt(at, at+width),
		}}
	}
	return nil
}
