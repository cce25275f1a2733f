package schema

import "github.com/abhisek/quizprep/internal/question"

// Definition is a named JSON Schema document.
type Definition struct {
	Name        string
	Description string
	Definition  map[string]any
}

// commonName is the schema used for records whose type is unknown.
const commonName = "question-common"

func stringProp() map[string]any {
	return map[string]any{"type": "string"}
}

func commonProperties() map[string]any {
	return map[string]any{
		question.FieldID:           map[string]any{"type": []any{"string", "integer"}},
		question.FieldType:         stringProp(),
		question.FieldTitle:        stringProp(),
		question.FieldQuestionText: stringProp(),
		question.FieldPoints: map[string]any{
			"type":    "number",
			"minimum": 0,
		},
		question.FieldTopic:             stringProp(),
		question.FieldSubtopic:          stringProp(),
		question.FieldDifficulty:        stringProp(),
		question.FieldFeedbackCorrect:   stringProp(),
		question.FieldFeedbackIncorrect: stringProp(),
		question.FieldImageFile: map[string]any{
			"type":  []any{"array", "string"},
			"items": stringProp(),
		},
		question.FieldTolerance: map[string]any{
			"type":    "number",
			"minimum": 0,
		},
	}
}

func requiredFields(extra ...string) []any {
	out := make([]any, 0, len(question.RequiredFields)+len(extra))
	for _, f := range question.RequiredFields {
		out = append(out, f)
	}
	for _, f := range extra {
		out = append(out, f)
	}
	return out
}

func objectSchema(name, description string, props map[string]any, required []any) Definition {
	return Definition{
		Name:        name,
		Description: description,
		Definition: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   required,
		},
	}
}

// Definitions returns the JSON Schema for every variant plus the common
// schema used for unknown types.
func Definitions() map[string]Definition {
	defs := map[string]Definition{
		commonName: objectSchema(commonName, "Fields shared by every question record", commonProperties(), requiredFields()),
	}

	mc := commonProperties()
	mc[question.FieldChoices] = map[string]any{
		"type":     "array",
		"items":    stringProp(),
		"minItems": 2,
	}
	mc[question.FieldCorrectAnswer] = map[string]any{"type": []any{"string", "number"}}
	defs[string(question.TypeMultipleChoice)] = objectSchema("question-multiple-choice",
		"A question with an ordered list of choices and one correct choice",
		mc, requiredFields(question.FieldChoices))

	num := commonProperties()
	num[question.FieldCorrectAnswer] = map[string]any{"type": []any{"string", "number"}}
	defs[string(question.TypeNumerical)] = objectSchema("question-numerical",
		"A question with a real-valued answer and optional tolerance",
		num, requiredFields())

	tf := commonProperties()
	tf[question.FieldChoices] = map[string]any{
		"type":  "array",
		"items": stringProp(),
	}
	tf[question.FieldCorrectAnswer] = map[string]any{"type": []any{"string", "boolean"}}
	defs[string(question.TypeTrueFalse)] = objectSchema("question-true-false",
		"A question answered True or False",
		tf, requiredFields(question.FieldChoices))

	fb := commonProperties()
	fb[question.FieldCorrectAnswer] = map[string]any{
		"type":                 []any{"string", "object"},
		"additionalProperties": map[string]any{"type": []any{"string", "number"}},
	}
	defs[string(question.TypeFillInMultipleBlanks)] = objectSchema("question-fill-in-multiple-blanks",
		"A question with [blankN] placeholders answered by blankId=value pairs",
		fb, requiredFields())

	dd := commonProperties()
	dd[question.FieldChoices] = map[string]any{
		"type": "object",
		"additionalProperties": map[string]any{
			"type":     "array",
			"items":    stringProp(),
			"minItems": 1,
		},
	}
	dd[question.FieldCorrectAnswer] = map[string]any{
		"type":                 "object",
		"additionalProperties": stringProp(),
	}
	defs[string(question.TypeMultipleDropdowns)] = objectSchema("question-multiple-dropdowns",
		"A question with [key] placeholders, each answered from its own option list",
		dd, requiredFields(question.FieldChoices))

	return defs
}
