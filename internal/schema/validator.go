// Package schema checks question records against their variant's
// structure: a JSON Schema for field presence and types, then Go checks
// for the invariants a schema cannot express (answer membership, blank
// and dropdown placeholders, numeric answers).
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/quizprep/internal/finding"
	"github.com/abhisek/quizprep/internal/question"
)

// Validator validates records. Compiled schemas are built once by New;
// the Validator is immutable and safe for concurrent use.
type Validator struct {
	compiled map[string]*jsonschema.Schema
}

// New compiles the schema for every variant.
func New() (*Validator, error) {
	compiled, err := compileAll(Definitions())
	if err != nil {
		return nil, err
	}
	return &Validator{compiled: compiled}, nil
}

// variantCheck holds the per-record state shared by the variant checks.
type variantCheck struct {
	rec    *question.Record
	broken map[string]bool
	issues []finding.Issue
}

func (c *variantCheck) usable(field string) bool {
	return c.rec.Has(field) && !c.broken[field]
}

func (c *variantCheck) add(code finding.Code, field, format string, args ...any) {
	c.issues = append(c.issues, finding.Issue{
		Severity: finding.Critical,
		Code:     code,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *variantCheck) warn(code finding.Code, field, format string, args ...any) {
	c.issues = append(c.issues, finding.Issue{
		Severity: finding.Warning,
		Code:     code,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Validate returns the structural findings for rec. Text comparisons use
// rec as given, so callers pass the Unicode-normalized record.
func (v *Validator) Validate(rec *question.Record) []finding.Issue {
	key := string(rec.Type)
	if !rec.Type.Known() {
		key = commonName
	}

	shape, broken := shapeIssues(v.compiled[key], rec.Document())
	c := &variantCheck{rec: rec, broken: broken}

	if !rec.Type.Known() {
		known := make([]string, 0, len(question.Types))
		for _, t := range question.Types {
			known = append(known, string(t))
		}
		c.add(finding.CodeInvalidType, question.FieldType, "unknown question type %q (want one of %s)", rec.Type, strings.Join(known, ", "))
	}

	c.checkCommon()

	switch body := rec.Body.(type) {
	case question.MultipleChoice:
		c.checkMultipleChoice(body)
	case question.Numerical:
		c.checkNumerical(body)
	case question.TrueFalse:
		c.checkTrueFalse(body)
	case question.FillInBlanks:
		c.checkBlanks(body)
	case question.Dropdowns:
		c.checkDropdowns(body)
	}

	issues := append(shape, c.issues...)
	sortByField(issues)
	return issues
}

func (c *variantCheck) checkCommon() {
	for _, f := range []string{question.FieldTitle, question.FieldQuestionText, question.FieldTopic} {
		if !c.usable(f) {
			continue
		}
		s, _ := c.rec.Value(f)
		if str, ok := s.(string); ok && strings.TrimSpace(str) == "" {
			c.add(finding.CodeEmptyField, f, "%s is empty", f)
		}
	}

	if c.usable(question.FieldDifficulty) && !question.ValidDifficulty(c.rec.Difficulty) {
		c.warn(finding.CodeInvalidDifficulty, question.FieldDifficulty,
			"difficulty %q is not one of Easy, Medium, Hard", c.rec.Difficulty)
	}
}

// fieldRank orders schema findings: required fields in declaration
// order, then everything else by name.
func fieldRank(field string) int {
	top, _, _ := strings.Cut(field, ".")
	top, _, _ = strings.Cut(top, "[")
	for i, f := range question.RequiredFields {
		if f == top {
			return i
		}
	}
	return len(question.RequiredFields)
}

func sortByField(issues []finding.Issue) {
	sort.SliceStable(issues, func(a, b int) bool {
		ra, rb := fieldRank(issues[a].Field), fieldRank(issues[b].Field)
		if ra != rb {
			return ra < rb
		}
		if issues[a].Field != issues[b].Field {
			return issues[a].Field < issues[b].Field
		}
		return issues[a].Code < issues[b].Code
	})
}
