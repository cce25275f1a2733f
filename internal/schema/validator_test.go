package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizprep/internal/finding"
	"github.com/abhisek/quizprep/internal/question"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New()
	require.NoError(t, err)
	return v
}

func parse(t *testing.T, raw string) *question.Record {
	t.Helper()
	rec, err := question.Parse([]byte(raw))
	require.NoError(t, err)
	return rec
}

func codes(issues []finding.Issue) []finding.Code {
	out := make([]finding.Code, 0, len(issues))
	for _, is := range issues {
		out = append(out, is.Code)
	}
	return out
}

func issuesWith(issues []finding.Issue, code finding.Code) []finding.Issue {
	var out []finding.Issue
	for _, is := range issues {
		if is.Code == code {
			out = append(out, is)
		}
	}
	return out
}

func TestDefinitionsCompile(t *testing.T) {
	defs := Definitions()
	for _, typ := range question.Types {
		_, ok := defs[string(typ)]
		assert.True(t, ok, "missing definition for %s", typ)
	}
	_, err := compileAll(defs)
	require.NoError(t, err)
}

func TestValidate_ValidRecords(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name string
		raw  string
	}{
		{"multiple choice", `{"type":"multiple_choice","title":"T","question_text":"Pick one","choices":["$10\\Omega$","$20\\Omega$"],"correct_answer":"10\\,\\Omega","points":1,"topic":"Circuits","difficulty":"Easy"}`},
		{"numerical", `{"type":"numerical","title":"T","question_text":"Q","correct_answer":"5","tolerance":0.5,"points":1,"topic":"X","difficulty":"Medium"}`},
		{"numerical number answer", `{"type":"numerical","title":"T","question_text":"Q","correct_answer":-2.5e3,"points":0,"topic":"X","difficulty":"Hard"}`},
		{"true false reversed", `{"type":"true_false","title":"T","question_text":"Q","choices":["False","True"],"correct_answer":"False","points":1,"topic":"X","difficulty":"Easy"}`},
		{"true false boolean", `{"type":"true_false","title":"T","question_text":"Q","choices":["True","False"],"correct_answer":true,"points":1,"topic":"X","difficulty":"Easy"}`},
		{"fill in blanks string", `{"type":"fill_in_multiple_blanks","title":"T","question_text":"V=[blank1] I=[blank2]","correct_answer":"blank1=5; blank2=2","points":2,"topic":"X","difficulty":"Easy"}`},
		{"fill in blanks object", `{"type":"fill_in_multiple_blanks","title":"T","question_text":"V=[v]","correct_answer":{"v":5},"points":2,"topic":"X","difficulty":"Easy"}`},
		{"dropdowns", `{"type":"multiple_dropdowns","title":"T","question_text":"Sky is [color]","choices":{"color":["blue","green"]},"correct_answer":{"color":"blue"},"points":1,"topic":"X","difficulty":"Easy"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := v.Validate(parse(t, tt.raw))
			assert.Empty(t, issues)
		})
	}
}

func TestValidate_MissingCorrectAnswerIsReportedOnce(t *testing.T) {
	v := newValidator(t)
	issues := v.Validate(parse(t, `{"type":"multiple_choice","title":"T","question_text":"Q","choices":["a","b"],"points":1,"topic":"X","difficulty":"Easy"}`))

	require.Len(t, issues, 1)
	assert.Equal(t, finding.CodeMissingField, issues[0].Code)
	assert.Equal(t, question.FieldCorrectAnswer, issues[0].Field)
	assert.Equal(t, finding.Critical, issues[0].Severity)
}

func TestValidate_TrueFalseMaybe(t *testing.T) {
	v := newValidator(t)
	issues := v.Validate(parse(t, `{"type":"true_false","title":"T","question_text":"X","choices":["True","False"],"correct_answer":"Maybe"}`))

	invalid := issuesWith(issues, finding.CodeInvalidChoice)
	require.Len(t, invalid, 1)
	assert.Equal(t, question.FieldCorrectAnswer, invalid[0].Field)
	assert.True(t, finding.HasCritical(issues))

	// points, topic and difficulty are missing too.
	assert.Len(t, issuesWith(issues, finding.CodeMissingField), 3)
}

func TestValidate_MissingFieldsInDeclarationOrder(t *testing.T) {
	v := newValidator(t)
	issues := v.Validate(parse(t, `{"type":"numerical"}`))

	var fields []string
	for _, is := range issuesWith(issues, finding.CodeMissingField) {
		fields = append(fields, is.Field)
	}
	assert.Equal(t, question.RequiredFields[1:], fields)
}

func TestValidate_UnknownType(t *testing.T) {
	v := newValidator(t)
	issues := v.Validate(parse(t, `{"type":"essay","title":"T","question_text":"Q","correct_answer":"x","points":1,"topic":"X","difficulty":"Easy"}`))

	require.Len(t, issues, 1)
	assert.Equal(t, finding.CodeInvalidType, issues[0].Code)
	assert.Equal(t, question.FieldType, issues[0].Field)
}

func TestValidate_FieldTypes(t *testing.T) {
	v := newValidator(t)

	t.Run("points negative", func(t *testing.T) {
		issues := v.Validate(parse(t, `{"type":"numerical","title":"T","question_text":"Q","correct_answer":"1","points":-1,"topic":"X","difficulty":"Easy"}`))
		assert.Equal(t, []finding.Code{finding.CodeInvalidPoints}, codes(issues))
	})

	t.Run("points not a number", func(t *testing.T) {
		issues := v.Validate(parse(t, `{"type":"numerical","title":"T","question_text":"Q","correct_answer":"1","points":"one","topic":"X","difficulty":"Easy"}`))
		require.Len(t, issues, 1)
		assert.Equal(t, finding.CodeInvalidFieldType, issues[0].Code)
		assert.Equal(t, question.FieldPoints, issues[0].Field)
	})

	t.Run("tolerance negative", func(t *testing.T) {
		issues := v.Validate(parse(t, `{"type":"numerical","title":"T","question_text":"Q","correct_answer":"1","tolerance":-0.1,"points":1,"topic":"X","difficulty":"Easy"}`))
		assert.Equal(t, []finding.Code{finding.CodeInvalidTolerance}, codes(issues))
	})

	t.Run("choice entry not a string", func(t *testing.T) {
		issues := v.Validate(parse(t, `{"type":"multiple_choice","title":"T","question_text":"Q","choices":["a",{"b":1}],"correct_answer":"a","points":1,"topic":"X","difficulty":"Easy"}`))
		require.Len(t, issues, 1)
		assert.Equal(t, finding.CodeInvalidFieldType, issues[0].Code)
		assert.Equal(t, "choices[1]", issues[0].Field)
	})

	t.Run("too few choices", func(t *testing.T) {
		issues := v.Validate(parse(t, `{"type":"multiple_choice","title":"T","question_text":"Q","choices":["a"],"correct_answer":"a","points":1,"topic":"X","difficulty":"Easy"}`))
		assert.Equal(t, []finding.Code{finding.CodeInvalidChoiceCount}, codes(issues))
	})
}

func TestValidate_CommonFields(t *testing.T) {
	v := newValidator(t)
	issues := v.Validate(parse(t, `{"type":"numerical","title":"  ","question_text":"Q","correct_answer":"1","points":1,"topic":"X","difficulty":"Tricky"}`))

	require.Len(t, issues, 2)
	assert.Equal(t, finding.CodeEmptyField, issues[0].Code)
	assert.Equal(t, question.FieldTitle, issues[0].Field)
	assert.Equal(t, finding.CodeInvalidDifficulty, issues[1].Code)
	assert.Equal(t, finding.Warning, issues[1].Severity)
}

func TestValidate_MultipleChoice(t *testing.T) {
	v := newValidator(t)

	t.Run("answer not a choice", func(t *testing.T) {
		issues := v.Validate(parse(t, `{"type":"multiple_choice","title":"T","question_text":"Q","choices":["a","b"],"correct_answer":"c","points":1,"topic":"X","difficulty":"Easy"}`))
		assert.Equal(t, []finding.Code{finding.CodeInvalidChoice}, codes(issues))
	})

	t.Run("duplicate choices", func(t *testing.T) {
		issues := v.Validate(parse(t, `{"type":"multiple_choice","title":"T","question_text":"Q","choices":["$5$","b","5"],"correct_answer":"b","points":1,"topic":"X","difficulty":"Easy"}`))
		dups := issuesWith(issues, finding.CodeDuplicateChoice)
		require.Len(t, dups, 1)
		assert.Equal(t, "choices[2]", dups[0].Field)
	})
}

func TestValidate_Numerical(t *testing.T) {
	v := newValidator(t)
	for _, answer := range []string{`"five"`, `"NaN"`, `"Inf"`, `""`, `"5 ohms"`} {
		t.Run(answer, func(t *testing.T) {
			issues := v.Validate(parse(t, `{"type":"numerical","title":"T","question_text":"Q","correct_answer":`+answer+`,"points":1,"topic":"X","difficulty":"Easy"}`))
			assert.Equal(t, []finding.Code{finding.CodeNonNumericAnswer}, codes(issues))
		})
	}
}

func TestValidate_TrueFalseChoices(t *testing.T) {
	v := newValidator(t)

	t.Run("three choices", func(t *testing.T) {
		issues := v.Validate(parse(t, `{"type":"true_false","title":"T","question_text":"Q","choices":["True","False","Maybe"],"correct_answer":"True","points":1,"topic":"X","difficulty":"Easy"}`))
		assert.Equal(t, []finding.Code{finding.CodeInvalidChoiceCount}, codes(issues))
	})

	t.Run("wrong labels", func(t *testing.T) {
		issues := v.Validate(parse(t, `{"type":"true_false","title":"T","question_text":"Q","choices":["Yes","No"],"correct_answer":"True","points":1,"topic":"X","difficulty":"Easy"}`))
		assert.Equal(t, []finding.Code{finding.CodeInvalidChoice}, codes(issues))
		assert.Equal(t, question.FieldChoices, issues[0].Field)
	})

	t.Run("missing choices", func(t *testing.T) {
		issues := v.Validate(parse(t, `{"type":"true_false","title":"T","question_text":"Q","correct_answer":"True","points":1,"topic":"X","difficulty":"Easy"}`))
		require.Len(t, issues, 1)
		assert.Equal(t, finding.CodeMissingField, issues[0].Code)
		assert.Equal(t, question.FieldChoices, issues[0].Field)
	})
}

func TestValidate_FillInBlanks(t *testing.T) {
	v := newValidator(t)
	base := `{"type":"fill_in_multiple_blanks","title":"T","points":1,"topic":"X","difficulty":"Easy",`

	tests := []struct {
		name string
		body string
		want []finding.Code
	}{
		{"no pairs", `"question_text":"[a]","correct_answer":" ; "}`,
			[]finding.Code{finding.CodeInvalidBlank}},
		{"malformed segment", `"question_text":"[a]","correct_answer":"a=1; oops"}`,
			[]finding.Code{finding.CodeInvalidBlank}},
		{"duplicate id", `"question_text":"[a]","correct_answer":"a=1; a=2"}`,
			[]finding.Code{finding.CodeInvalidBlank}},
		{"empty value", `"question_text":"[a]","correct_answer":"a="}`,
			[]finding.Code{finding.CodeInvalidBlank}},
		{"bad id", `"question_text":"[a]","correct_answer":"a=1; b c=2"}`,
			[]finding.Code{finding.CodeInvalidBlank}},
		{"unmapped blank", `"question_text":"[a]","correct_answer":"a=1; b=2"}`,
			[]finding.Code{finding.CodeUnmappedBlank}},
		{"unused placeholder", `"question_text":"[a] [b]","correct_answer":"a=1"}`,
			[]finding.Code{finding.CodeUnusedPlaceholder}},
		{"display math is not a placeholder", `"question_text":"[a] \\[x\\]","correct_answer":"a=1"}`,
			[]finding.Code{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := v.Validate(parse(t, base+tt.body))
			assert.Equal(t, tt.want, codes(issues))
		})
	}
}

func TestValidate_Dropdowns(t *testing.T) {
	v := newValidator(t)
	base := `{"type":"multiple_dropdowns","title":"T","points":1,"topic":"X","difficulty":"Easy",`

	t.Run("answer not an option", func(t *testing.T) {
		issues := v.Validate(parse(t, base+`"question_text":"[c]","choices":{"c":["red","blue"]},"correct_answer":{"c":"green"}}`))
		require.Len(t, issues, 1)
		assert.Equal(t, finding.CodeInvalidChoice, issues[0].Code)
		assert.Equal(t, "correct_answer.c", issues[0].Field)
	})

	t.Run("key sets differ", func(t *testing.T) {
		issues := v.Validate(parse(t, base+`"question_text":"[c] [d]","choices":{"c":["red"],"d":["x"]},"correct_answer":{"c":"red","e":"y"}}`))
		got := issuesWith(issues, finding.CodeUnmappedDropdownKey)
		require.Len(t, got, 2)
		assert.Equal(t, "correct_answer.e", got[0].Field)
		assert.Equal(t, "choices.d", got[1].Field)
	})

	t.Run("key without placeholder", func(t *testing.T) {
		issues := v.Validate(parse(t, base+`"question_text":"none","choices":{"c":["red"]},"correct_answer":{"c":"red"}}`))
		assert.Equal(t, []finding.Code{finding.CodeUnmappedDropdownKey}, codes(issues))
	})

	t.Run("placeholder without dropdown", func(t *testing.T) {
		issues := v.Validate(parse(t, base+`"question_text":"[c] [z]","choices":{"c":["red"]},"correct_answer":{"c":"red"}}`))
		assert.Equal(t, []finding.Code{finding.CodeUnusedPlaceholder}, codes(issues))
	})

	t.Run("empty option list", func(t *testing.T) {
		issues := v.Validate(parse(t, base+`"question_text":"[c]","choices":{"c":[]},"correct_answer":{"c":"red"}}`))
		assert.Equal(t, []finding.Code{finding.CodeInvalidChoiceCount}, codes(issues))
	})
}

func TestCompareKey(t *testing.T) {
	assert.True(t, SameAnswer(`10$\Omega$`, `10\,\Omega`))
	assert.True(t, SameAnswer(" 5 V", "5V"))
	assert.True(t, SameAnswer("x~y", "x y"))
	assert.True(t, SameAnswer("ﬁ", "fi"))
	assert.False(t, SameAnswer(`\$5`, "5"))
	assert.Equal(t, "$5", CompareKey(`\$5`))
}
