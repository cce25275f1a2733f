package question

// Type is the question variant discriminator.
type Type string

const (
	TypeMultipleChoice       Type = "multiple_choice"
	TypeNumerical            Type = "numerical"
	TypeTrueFalse            Type = "true_false"
	TypeFillInMultipleBlanks Type = "fill_in_multiple_blanks"
	TypeMultipleDropdowns    Type = "multiple_dropdowns"
)

// Types lists every supported variant.
var Types = []Type{
	TypeMultipleChoice,
	TypeNumerical,
	TypeTrueFalse,
	TypeFillInMultipleBlanks,
	TypeMultipleDropdowns,
}

// Known reports whether t is a supported variant.
func (t Type) Known() bool {
	for _, k := range Types {
		if t == k {
			return true
		}
	}
	return false
}

// Difficulty levels accepted without a warning.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// ValidDifficulty reports whether d is one of Easy, Medium or Hard.
func ValidDifficulty(d string) bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// JSON field names of a record.
const (
	FieldID                = "id"
	FieldType              = "type"
	FieldTitle             = "title"
	FieldQuestionText      = "question_text"
	FieldCorrectAnswer     = "correct_answer"
	FieldPoints            = "points"
	FieldTopic             = "topic"
	FieldSubtopic          = "subtopic"
	FieldDifficulty        = "difficulty"
	FieldFeedbackCorrect   = "feedback_correct"
	FieldFeedbackIncorrect = "feedback_incorrect"
	FieldChoices           = "choices"
	FieldTolerance         = "tolerance"
	FieldImageFile         = "image_file"
)

// RequiredFields must be present on every record.
var RequiredFields = []string{
	FieldType,
	FieldTitle,
	FieldQuestionText,
	FieldCorrectAnswer,
	FieldPoints,
	FieldTopic,
	FieldDifficulty,
}

// Body is the variant-specific part of a record. The set of
// implementations is closed: MultipleChoice, Numerical, TrueFalse,
// FillInBlanks and Dropdowns.
type Body interface {
	Type() Type
	body()
}

// MultipleChoice has an ordered list of choices and one correct choice.
type MultipleChoice struct {
	Choices []string
	Answer  string
}

// Numerical has a real-valued answer with an optional tolerance.
type Numerical struct {
	// Answer is the answer text as given (a JSON number is kept in its
	// literal form).
	Answer    string
	Tolerance *float64
}

// TrueFalse must offer exactly "True" and "False".
type TrueFalse struct {
	Choices []string
	Answer  string
}

// Blank is one blankId=value pair of a fill-in-multiple-blanks answer.
type Blank struct {
	ID    string
	Value string
}

// FillInBlanks maps [blankN] placeholders in the question text to values.
type FillInBlanks struct {
	Blanks []Blank

	// Malformed holds answer segments that are not id=value pairs.
	Malformed []string
}

// Dropdowns maps [key] placeholders to option lists and answers.
type Dropdowns struct {
	Options map[string][]string
	Answers map[string]string
}

func (MultipleChoice) Type() Type { return TypeMultipleChoice }
func (Numerical) Type() Type      { return TypeNumerical }
func (TrueFalse) Type() Type      { return TypeTrueFalse }
func (FillInBlanks) Type() Type   { return TypeFillInMultipleBlanks }
func (Dropdowns) Type() Type      { return TypeMultipleDropdowns }

func (MultipleChoice) body() {}
func (Numerical) body()      {}
func (TrueFalse) body()      {}
func (FillInBlanks) body()   {}
func (Dropdowns) body()      {}
