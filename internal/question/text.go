package question

import "fmt"

// Path locates a free-text value inside a record: a top-level field, an
// entry of a list field (Index), a value of a mapping field (Key), or an
// entry of a list inside a mapping (Key and Index).
type Path struct {
	Field string
	Key   string
	Index int // -1 when the value is not a list entry
}

// FieldPath returns the path of a top-level field.
func FieldPath(field string) Path {
	return Path{Field: field, Index: -1}
}

// String renders the path as used in issue fields, e.g. "choices[2]",
// "choices.color[0]" or "correct_answer.color".
func (p Path) String() string {
	s := p.Field
	if p.Key != "" {
		s += "." + p.Key
	}
	if p.Index >= 0 {
		s += fmt.Sprintf("[%d]", p.Index)
	}
	return s
}

// TextField is one free-text value of a record.
type TextField struct {
	Path  Path
	Value string
}

// textFieldOrder is the canonical order of free-text fields.
var textFieldOrder = []string{
	FieldQuestionText,
	FieldFeedbackCorrect,
	FieldFeedbackIncorrect,
	FieldCorrectAnswer,
	FieldChoices,
}

// TextFields returns the record's free-text values in canonical order:
// question_text, feedback_correct, feedback_incorrect, then every string
// inside correct_answer and choices. Mapping keys are visited sorted.
// Non-string values are skipped.
func (r *Record) TextFields() []TextField {
	var out []TextField
	for _, field := range textFieldOrder {
		switch v := r.doc[field].(type) {
		case string:
			out = append(out, TextField{Path: FieldPath(field), Value: v})
		case []any:
			out = appendList(out, field, "", v)
		case map[string]any:
			for _, key := range SortedKeys(v) {
				switch inner := v[key].(type) {
				case string:
					out = append(out, TextField{Path: Path{Field: field, Key: key, Index: -1}, Value: inner})
				case []any:
					out = appendList(out, field, key, inner)
				}
			}
		}
	}
	return out
}

func appendList(out []TextField, field, key string, items []any) []TextField {
	for i, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, TextField{Path: Path{Field: field, Key: key, Index: i}, Value: s})
		}
	}
	return out
}

// WithTexts returns a new record with the given text values replaced.
// The receiver is not modified. Paths that do not resolve to a string
// location are ignored.
func (r *Record) WithTexts(values map[Path]string) *Record {
	doc := r.Document()
	for p, v := range values {
		setText(doc, p, v)
	}
	out, err := fromDoc(doc)
	if err != nil {
		// The type field is never rewritten, so the copy stays parseable.
		return r
	}
	return out
}

func setText(doc map[string]any, p Path, v string) {
	cur, ok := doc[p.Field]
	if !ok {
		return
	}
	if p.Key == "" && p.Index < 0 {
		if _, isString := cur.(string); isString {
			doc[p.Field] = v
		}
		return
	}

	if p.Key != "" {
		m, ok := cur.(map[string]any)
		if !ok {
			return
		}
		if p.Index < 0 {
			if _, isString := m[p.Key].(string); isString {
				m[p.Key] = v
			}
			return
		}
		cur = m[p.Key]
	}

	list, ok := cur.([]any)
	if !ok || p.Index >= len(list) {
		return
	}
	if _, isString := list[p.Index].(string); isString {
		list[p.Index] = v
	}
}
