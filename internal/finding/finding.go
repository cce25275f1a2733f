package finding

import (
	"fmt"
	"sort"
)

// Severity classifies how much an issue matters for import readiness.
type Severity string

const (
	// Critical blocks the record from import.
	Critical Severity = "critical"

	// Warning leaves the record usable but flags it for review.
	Warning Severity = "warning"

	// Info is advisory only.
	Info Severity = "info"
)

// Rank orders severities from most to least severe (critical = 0).
// Unknown severities rank last.
func (s Severity) Rank() int {
	switch s {
	case Critical:
		return 0
	case Warning:
		return 1
	case Info:
		return 2
	default:
		return 3
	}
}

// AtLeast reports whether s is as severe as, or more severe than, other.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() <= other.Rank()
}

// ParseSeverity converts a string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case Critical, Warning, Info:
		return Severity(s), nil
	}
	return "", fmt.Errorf("unknown severity %q (want critical, warning or info)", s)
}

// Severities lists all severities, most severe first.
var Severities = []Severity{Critical, Warning, Info}

// Code is a stable identifier for a kind of issue.
type Code string

const (
	CodeUnparseableRecord   Code = "unparseable_record"
	CodeMissingField        Code = "missing_field"
	CodeInvalidType         Code = "invalid_type"
	CodeInvalidFieldType    Code = "invalid_field_type"
	CodeEmptyField          Code = "empty_field"
	CodeSchemaViolation     Code = "schema_violation"
	CodeInvalidPoints       Code = "invalid_points"
	CodeInvalidDifficulty   Code = "invalid_difficulty"
	CodeInvalidChoice       Code = "invalid_choice"
	CodeInvalidChoiceCount  Code = "invalid_choice_count"
	CodeDuplicateChoice     Code = "duplicate_choice"
	CodeNonNumericAnswer    Code = "non_numeric_answer"
	CodeInvalidTolerance    Code = "invalid_tolerance"
	CodeInvalidBlank        Code = "invalid_blank"
	CodeUnmappedBlank       Code = "unmapped_blank"
	CodeUnusedPlaceholder   Code = "unused_placeholder"
	CodeUnmappedDropdownKey Code = "unmapped_dropdown_key"

	CodeUnicodeFound        Code = "unicode_found"
	CodeUnrecognizedUnicode Code = "unrecognized_unicode"

	CodeUnbalancedDelimiter Code = "unbalanced_delimiter"
	CodeUnbalancedBrace     Code = "unbalanced_brace"
	CodeRiskyNotation       Code = "risky_notation"
	CodeDeprecatedCommand   Code = "deprecated_command"
	CodeCommandOutsideMath  Code = "command_outside_math"
)

// Span is a half-open range of rune offsets [Start, End) within a field.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Issue is a single classified observation about a record.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Span     *Span    `json:"span,omitempty"`
}

func (i Issue) String() string {
	loc := i.Field
	if i.Span != nil {
		loc = fmt.Sprintf("%s@%d:%d", i.Field, i.Span.Start, i.Span.End)
	}
	if loc == "" {
		return fmt.Sprintf("%s %s: %s", i.Severity, i.Code, i.Message)
	}
	return fmt.Sprintf("%s %s [%s]: %s", i.Severity, i.Code, loc, i.Message)
}

// At returns a copy of i located at the given field.
func (i Issue) At(field string) Issue {
	i.Field = field
	return i
}

// SpanAt returns a pointer to a Span covering [start, end).
func SpanAt(start, end int) *Span {
	return &Span{Start: start, End: end}
}

type dedupKey struct {
	code  Code
	field string
	span  Span
	spans bool
}

// Dedup removes exact (code, field, span) repeats, keeping the first
// occurrence and preserving order.
func Dedup(issues []Issue) []Issue {
	if len(issues) == 0 {
		return issues
	}
	seen := make(map[dedupKey]bool, len(issues))
	out := make([]Issue, 0, len(issues))
	for _, is := range issues {
		k := dedupKey{code: is.Code, field: is.Field}
		if is.Span != nil {
			k.span = *is.Span
			k.spans = true
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, is)
	}
	return out
}

// SortByOffset stably orders issues by span start. Issues without a span
// sort first.
func SortByOffset(issues []Issue) {
	sort.SliceStable(issues, func(a, b int) bool {
		return start(issues[a]) < start(issues[b])
	})
}

func start(i Issue) int {
	if i.Span == nil {
		return -1
	}
	return i.Span.Start
}

// HasCritical reports whether any issue is critical.
func HasCritical(issues []Issue) bool {
	for _, is := range issues {
		if is.Severity == Critical {
			return true
		}
	}
	return false
}

// CountBySeverity tallies issues per severity.
func CountBySeverity(issues []Issue) map[Severity]int {
	counts := make(map[Severity]int, len(Severities))
	for _, is := range issues {
		counts[is.Severity]++
	}
	return counts
}

// Max returns the most severe severity present, or "" for no issues.
func Max(issues []Issue) Severity {
	var max Severity
	for _, is := range issues {
		if max == "" || is.Severity.Rank() < max.Rank() {
			max = is.Severity
		}
	}
	return max
}
