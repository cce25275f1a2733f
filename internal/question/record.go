package question

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// ParseError describes input that is not a usable record at all.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unparseable record: %s: %v", e.Reason, e.Err)
	}
	return "unparseable record: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// Record is a decoded question. The typed fields are a lenient view over
// the underlying JSON document: a field whose JSON type is wrong is left
// at its zero value here and reported by schema validation. Every field
// of the document, modelled or not, is kept and re-encoded by MarshalJSON.
type Record struct {
	ID                string
	Type              Type
	Title             string
	QuestionText      string
	Points            *float64
	Topic             string
	Subtopic          string
	Difficulty        string
	FeedbackCorrect   string
	FeedbackIncorrect string
	ImageFile         []string

	// Body is nil when Type is not a known variant.
	Body Body

	doc map[string]any
}

// Parse decodes one JSON record. It fails only for structural problems:
// invalid JSON, a non-object value, or a missing or non-string type.
func Parse(raw []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ParseError{Reason: "invalid JSON", Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ParseError{Reason: "trailing data after record"}
	}

	doc, ok := v.(map[string]any)
	if !ok {
		return nil, &ParseError{Reason: fmt.Sprintf("expected a JSON object, got %s", jsonKind(v))}
	}
	return fromDoc(doc)
}

func fromDoc(doc map[string]any) (*Record, error) {
	rawType, ok := doc[FieldType]
	if !ok {
		return nil, &ParseError{Reason: "missing type"}
	}
	typ, ok := rawType.(string)
	if !ok || typ == "" {
		return nil, &ParseError{Reason: fmt.Sprintf("type must be a non-empty string, got %s", jsonKind(rawType))}
	}

	r := &Record{
		Type: Type(typ),
		doc:  doc,
	}
	r.ID = idString(doc[FieldID])
	r.Title, _ = doc[FieldTitle].(string)
	r.QuestionText, _ = doc[FieldQuestionText].(string)
	r.Points = number(doc[FieldPoints])
	r.Topic, _ = doc[FieldTopic].(string)
	r.Subtopic, _ = doc[FieldSubtopic].(string)
	r.Difficulty, _ = doc[FieldDifficulty].(string)
	r.FeedbackCorrect, _ = doc[FieldFeedbackCorrect].(string)
	r.FeedbackIncorrect, _ = doc[FieldFeedbackIncorrect].(string)
	r.ImageFile = imageFiles(doc[FieldImageFile])
	r.Body = decodeBody(r.Type, doc)
	return r, nil
}

func decodeBody(t Type, doc map[string]any) Body {
	choices := doc[FieldChoices]
	answer := doc[FieldCorrectAnswer]

	switch t {
	case TypeMultipleChoice:
		return MultipleChoice{Choices: stringList(choices), Answer: scalarString(answer)}
	case TypeNumerical:
		return Numerical{Answer: scalarString(answer), Tolerance: number(doc[FieldTolerance])}
	case TypeTrueFalse:
		ans := scalarString(answer)
		if b, ok := answer.(bool); ok {
			ans = "False"
			if b {
				ans = "True"
			}
		}
		return TrueFalse{Choices: stringList(choices), Answer: ans}
	case TypeFillInMultipleBlanks:
		return decodeBlanks(answer)
	case TypeMultipleDropdowns:
		return Dropdowns{Options: optionMap(choices), Answers: stringMap(answer)}
	}
	return nil
}

// Has reports whether the document carries field.
func (r *Record) Has(field string) bool {
	_, ok := r.doc[field]
	return ok
}

// Value returns the raw decoded value of field. Numbers are json.Number.
func (r *Record) Value(field string) (any, bool) {
	v, ok := r.doc[field]
	return v, ok
}

// Document returns a deep copy of the underlying JSON document.
func (r *Record) Document() map[string]any {
	return deepCopy(r.doc).(map[string]any)
}

// MarshalJSON encodes the full document, including fields the typed view
// does not model.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.doc)
}

// UnmarshalJSON decodes a record with the same rules as Parse.
func (r *Record) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*r = *parsed
	return nil
}

func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case json.Number:
		return id.String()
	default:
		b, err := json.Marshal(id)
		if err != nil {
			return fmt.Sprint(id)
		}
		return string(b)
	}
}

func number(v any) *float64 {
	n, ok := v.(json.Number)
	if !ok {
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil
	}
	return &f
}

// scalarString returns strings as-is and numbers in their literal form.
func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			s = scalarString(it)
		}
		out = append(out, s)
	}
	return out
}

func imageFiles(v any) []string {
	if s, ok := v.(string); ok {
		return []string{s}
	}
	return stringList(v)
}

func stringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[k] = scalarString(val)
	}
	return out
}

func optionMap(v any) map[string][]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, val := range m {
		out[k] = stringList(val)
	}
	return out
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
