package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/abhisek/quizprep/internal/finding"
	"github.com/abhisek/quizprep/internal/question"
)

var printer = message.NewPrinter(language.English)

// shapeIssues validates doc against compiled and converts every leaf
// error into an issue. It also returns the top-level fields whose shape
// is wrong or missing, so invariant checks can skip them.
func shapeIssues(compiled *jsonschema.Schema, doc map[string]any) ([]finding.Issue, map[string]bool) {
	broken := make(map[string]bool)

	err := compiled.Validate(doc)
	if err == nil {
		return nil, broken
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []finding.Issue{{
			Severity: finding.Critical,
			Code:     finding.CodeSchemaViolation,
			Message:  err.Error(),
		}}, broken
	}

	var issues []finding.Issue
	for _, leaf := range leaves(verr) {
		issues = append(issues, leafIssues(leaf, broken)...)
	}
	return issues, broken
}

func leaves(e *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(e.Causes) == 0 {
		return []*jsonschema.ValidationError{e}
	}
	var out []*jsonschema.ValidationError
	for _, c := range e.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

func leafIssues(e *jsonschema.ValidationError, broken map[string]bool) []finding.Issue {
	field := fieldName(e.InstanceLocation)
	if len(e.InstanceLocation) > 0 {
		broken[e.InstanceLocation[0]] = true
	}

	switch k := e.ErrorKind.(type) {
	case *kind.Required:
		issues := make([]finding.Issue, 0, len(k.Missing))
		for _, name := range k.Missing {
			missing := joinField(field, name)
			if len(e.InstanceLocation) == 0 {
				broken[name] = true
			}
			issues = append(issues, finding.Issue{
				Severity: finding.Critical,
				Code:     finding.CodeMissingField,
				Field:    missing,
				Message:  fmt.Sprintf("required field %s is missing", missing),
			})
		}
		return issues

	case *kind.Type:
		return []finding.Issue{{
			Severity: finding.Critical,
			Code:     finding.CodeInvalidFieldType,
			Field:    field,
			Message:  fmt.Sprintf("%s must be %s, got %s", field, strings.Join(k.Want, " or "), k.Got),
		}}

	case *kind.Minimum:
		code := finding.CodeSchemaViolation
		switch field {
		case question.FieldPoints:
			code = finding.CodeInvalidPoints
		case question.FieldTolerance:
			code = finding.CodeInvalidTolerance
		}
		return []finding.Issue{{
			Severity: finding.Critical,
			Code:     code,
			Field:    field,
			Message:  fmt.Sprintf("%s must be >= 0", field),
		}}

	case *kind.MinItems:
		return []finding.Issue{{
			Severity: finding.Critical,
			Code:     finding.CodeInvalidChoiceCount,
			Field:    field,
			Message:  fmt.Sprintf("%s needs at least %d entries, got %d", field, k.Want, k.Got),
		}}
	}

	return []finding.Issue{{
		Severity: finding.Critical,
		Code:     finding.CodeSchemaViolation,
		Field:    field,
		Message:  e.ErrorKind.LocalizedString(printer),
	}}
}

// fieldName renders a JSON instance location as an issue field:
// ["choices","2"] -> "choices[2]", ["choices","color","0"] -> "choices.color[0]".
func fieldName(loc []string) string {
	var b strings.Builder
	for i, part := range loc {
		if i > 0 {
			if _, err := strconv.Atoi(part); err == nil {
				b.WriteString("[" + part + "]")
				continue
			}
			b.WriteString(".")
		}
		b.WriteString(part)
	}
	return b.String()
}

func joinField(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
