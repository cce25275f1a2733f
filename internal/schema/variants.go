package schema

import (
	"math"
	"strconv"
	"strings"

	"github.com/abhisek/quizprep/internal/finding"
	"github.com/abhisek/quizprep/internal/question"
)

// trueFalseChoices is the only choice set a true_false record may offer.
var trueFalseChoices = []string{"True", "False"}

func (c *variantCheck) checkMultipleChoice(b question.MultipleChoice) {
	if c.usable(question.FieldChoices) {
		c.checkDuplicates(question.FieldChoices, b.Choices)
	}
	if !c.usable(question.FieldChoices) || !c.usable(question.FieldCorrectAnswer) {
		return
	}
	for _, choice := range b.Choices {
		if SameAnswer(choice, b.Answer) {
			return
		}
	}
	c.add(finding.CodeInvalidChoice, question.FieldCorrectAnswer,
		"correct_answer %q is not one of the choices", b.Answer)
}

// checkDuplicates flags every entry whose comparison key repeats an
// earlier entry.
func (c *variantCheck) checkDuplicates(field string, items []string) {
	seen := make(map[string]int, len(items))
	for i, it := range items {
		key := CompareKey(it)
		if first, ok := seen[key]; ok {
			c.add(finding.CodeDuplicateChoice, question.Path{Field: field, Index: i}.String(),
				"choice %q duplicates choice %d", it, first)
			continue
		}
		seen[key] = i
	}
}

func (c *variantCheck) checkNumerical(b question.Numerical) {
	if !c.usable(question.FieldCorrectAnswer) {
		return
	}
	if _, err := parseReal(b.Answer); err != nil {
		c.add(finding.CodeNonNumericAnswer, question.FieldCorrectAnswer,
			"correct_answer %q is not a number", b.Answer)
	}
}

// parseReal accepts finite decimal numbers only.
func parseReal(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrRange
	}
	return f, nil
}

func (c *variantCheck) checkTrueFalse(b question.TrueFalse) {
	if c.usable(question.FieldChoices) {
		switch {
		case len(b.Choices) != len(trueFalseChoices):
			c.add(finding.CodeInvalidChoiceCount, question.FieldChoices,
				"true_false needs exactly 2 choices, got %d", len(b.Choices))
		case !sameSet(b.Choices, trueFalseChoices):
			c.add(finding.CodeInvalidChoice, question.FieldChoices,
				"true_false choices must be True and False, got %q", b.Choices)
		}
	}

	if !c.usable(question.FieldCorrectAnswer) {
		return
	}
	for _, want := range trueFalseChoices {
		if strings.TrimSpace(b.Answer) == want {
			return
		}
	}
	c.add(finding.CodeInvalidChoice, question.FieldCorrectAnswer,
		"correct_answer %q is not True or False", b.Answer)
}

func sameSet(got, want []string) bool {
	left := make(map[string]int, len(want))
	for _, w := range want {
		left[w]++
	}
	for _, g := range got {
		g = strings.TrimSpace(g)
		if left[g] == 0 {
			return false
		}
		left[g]--
	}
	return true
}

func (c *variantCheck) checkBlanks(b question.FillInBlanks) {
	var placeholders []string
	textOK := c.usable(question.FieldQuestionText)
	if textOK {
		placeholders = question.Placeholders(c.rec.QuestionText)
	}

	if !c.usable(question.FieldCorrectAnswer) {
		return
	}
	if len(b.Blanks) == 0 && len(b.Malformed) == 0 {
		c.add(finding.CodeInvalidBlank, question.FieldCorrectAnswer,
			"correct_answer has no blankId=value pairs")
		return
	}
	for _, seg := range b.Malformed {
		c.add(finding.CodeInvalidBlank, question.FieldCorrectAnswer,
			"segment %q is not a blankId=value pair", seg)
	}

	seen := make(map[string]bool, len(b.Blanks))
	for _, blank := range b.Blanks {
		field := question.Path{Field: question.FieldCorrectAnswer, Key: blank.ID, Index: -1}.String()
		switch {
		case !question.ValidBlankID(blank.ID):
			c.add(finding.CodeInvalidBlank, question.FieldCorrectAnswer,
				"blank id %q must be letters, digits, '_' or '-'", blank.ID)
			continue
		case seen[blank.ID]:
			c.add(finding.CodeInvalidBlank, field, "blank %q is answered more than once", blank.ID)
			continue
		}
		seen[blank.ID] = true

		if strings.TrimSpace(blank.Value) == "" {
			c.add(finding.CodeInvalidBlank, field, "blank %q has an empty value", blank.ID)
		}
		if textOK && !contains(placeholders, blank.ID) {
			c.add(finding.CodeUnmappedBlank, field,
				"blank %q has no [%s] placeholder in question_text", blank.ID, blank.ID)
		}
	}

	for _, p := range placeholders {
		if !seen[p] {
			c.warn(finding.CodeUnusedPlaceholder, question.FieldQuestionText,
				"placeholder [%s] has no answer", p)
		}
	}
}

func (c *variantCheck) checkDropdowns(b question.Dropdowns) {
	var placeholders []string
	textOK := c.usable(question.FieldQuestionText)
	if textOK {
		placeholders = question.Placeholders(c.rec.QuestionText)
	}
	choicesOK := c.usable(question.FieldChoices)
	answersOK := c.usable(question.FieldCorrectAnswer)

	if choicesOK {
		for _, key := range question.SortedKeys(b.Options) {
			field := question.Path{Field: question.FieldChoices, Key: key, Index: -1}.String()
			if answersOK {
				if _, ok := b.Answers[key]; !ok {
					c.add(finding.CodeUnmappedDropdownKey, field, "dropdown %q has no answer", key)
				}
			}
			if textOK && !contains(placeholders, key) {
				c.add(finding.CodeUnmappedDropdownKey, field,
					"dropdown %q has no [%s] placeholder in question_text", key, key)
			}
			c.checkDuplicates(field, b.Options[key])
		}
	}

	if answersOK {
		for _, key := range question.SortedKeys(b.Answers) {
			field := question.Path{Field: question.FieldCorrectAnswer, Key: key, Index: -1}.String()
			if !choicesOK {
				continue
			}
			options, ok := b.Options[key]
			if !ok {
				c.add(finding.CodeUnmappedDropdownKey, field, "answer %q has no dropdown options", key)
				continue
			}
			if !containsAnswer(options, b.Answers[key]) {
				c.add(finding.CodeInvalidChoice, field,
					"answer %q is not one of the options for %q", b.Answers[key], key)
			}
		}
	}

	if !choicesOK && !answersOK {
		return
	}
	for _, p := range placeholders {
		_, hasOptions := b.Options[p]
		_, hasAnswer := b.Answers[p]
		if !hasOptions && !hasAnswer {
			c.warn(finding.CodeUnusedPlaceholder, question.FieldQuestionText,
				"placeholder [%s] has no dropdown", p)
		}
	}
}

func contains(items []string, s string) bool {
	for _, it := range items {
		if it == s {
			return true
		}
	}
	return false
}

func containsAnswer(options []string, answer string) bool {
	for _, o := range options {
		if SameAnswer(o, answer) {
			return true
		}
	}
	return false
}
