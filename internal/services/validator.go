package services

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/paulexconde/surveypulse/internal/models"
)

type answerRule func(q models.Question, rules models.Validation, value any) *models.ValidationError

// One rule per question type. A new type needs one entry here and one storage
// slot in models.NewAnswerValue.
var answerRules = map[models.QuestionType]answerRule{
	models.Text:                    validateText,
	models.Textarea:                validateText,
	models.MultipleChoice:          validateChoice,
	models.MultipleSelect:          validateSelection(false),
	models.MultipleSelectWithOther: validateSelection(true),
	models.Rating:                  validateRating,
	models.YesNo:                   validateYesNo,
}

func fieldError(q models.Question, format string, args ...any) *models.ValidationError {
	return &models.ValidationError{
		Field:   q.Slug,
		Message: q.Label() + " " + fmt.Sprintf(format, args...),
	}
}

// ValidateAnswer checks one active question's answer. It returns nil when the
// answer is acceptable. Callers decide activity with IsActive first.
func ValidateAnswer(q models.Question, value any, _ models.Answers) *models.ValidationError {
	rules := q.Rules()

	if models.IsEmptyAnswer(value) {
		if rules.Required {
			return fieldError(q, "is required")
		}
		return nil
	}

	rule, ok := answerRules[q.Type]
	if !ok {
		return fieldError(q, "has an unsupported question type %q", string(q.Type))
	}
	return rule(q, rules, value)
}

func validateText(q models.Question, rules models.Validation, value any) *models.ValidationError {
	s, ok := value.(string)
	if !ok {
		return fieldError(q, "must be a string")
	}

	length := utf8.RuneCountInString(s)
	if rules.MinLength > 0 && length < rules.MinLength {
		return fieldError(q, "must be at least %d characters", rules.MinLength)
	}
	if rules.MaxLength > 0 && length > rules.MaxLength {
		return fieldError(q, "must be no more than %d characters", rules.MaxLength)
	}
	return nil
}

func validateChoice(q models.Question, _ models.Validation, value any) *models.ValidationError {
	s, ok := value.(string)
	if !ok {
		return fieldError(q, "must be a string")
	}

	options := q.OptionValues()
	if !slices.Contains(options, s) {
		return fieldError(q, "must be one of: %s", strings.Join(options, ", "))
	}
	return nil
}

// validateSelection checks list answers. With allowOther any string is
// accepted as an element.
func validateSelection(allowOther bool) answerRule {
	return func(q models.Question, rules models.Validation, value any) *models.ValidationError {
		list, ok := models.ToList(value)
		if !ok {
			return fieldError(q, "must be an array")
		}

		if rules.MinChoices > 0 && len(list) < rules.MinChoices {
			return fieldError(q, "requires at least %d selection(s)", rules.MinChoices)
		}
		if rules.MaxChoices > 0 && len(list) > rules.MaxChoices {
			return fieldError(q, "allows no more than %d selection(s)", rules.MaxChoices)
		}

		options := q.OptionValues()
		for _, el := range list {
			s, ok := el.(string)
			if !ok {
				return fieldError(q, "values must be strings")
			}
			if !allowOther && !slices.Contains(options, s) {
				return fieldError(q, "contains invalid option: %s", s)
			}
		}
		return nil
	}
}

// Non-integer ratings inside the range are accepted.
func validateRating(q models.Question, _ models.Validation, value any) *models.ValidationError {
	n, ok := models.ToNumber(value)
	if !ok {
		return fieldError(q, "must be a number")
	}

	scale := q.MaxRating()
	if n < 1 || n > float64(scale) {
		return fieldError(q, "must be between 1 and %d", scale)
	}
	return nil
}

func validateYesNo(q models.Question, _ models.Validation, value any) *models.ValidationError {
	if _, ok := value.(bool); !ok {
		return fieldError(q, "must be a boolean")
	}
	return nil
}
