package services

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/paulexconde/surveypulse/internal/models"
)

const conditionExpression = `answer == expected`

// ComparableValue is a condition operand after conversion to the type of the
// referenced question.
type ComparableValue interface {
	operand() any
}

type BoolOperand bool

type NumberOperand float64

type TextOperand string

func (b BoolOperand) operand() any   { return bool(b) }
func (n NumberOperand) operand() any { return float64(n) }
func (t TextOperand) operand() any   { return string(t) }

// ExpectedOperand converts the stored expected value of a condition.
func ExpectedOperand(refType models.QuestionType, expected string) (ComparableValue, bool) {
	switch refType {
	case models.YesNo:
		switch expected {
		case "true":
			return BoolOperand(true), true
		case "false":
			return BoolOperand(false), true
		}
		return nil, false
	case models.Rating:
		n, err := strconv.ParseFloat(strings.TrimSpace(expected), 64)
		if err != nil {
			return nil, false
		}
		return NumberOperand(n), true
	default:
		return TextOperand(expected), true
	}
}

// ActualOperand converts a submitted answer of the referenced question.
func ActualOperand(refType models.QuestionType, actual any) (ComparableValue, bool) {
	if actual == nil {
		return nil, false
	}
	switch refType {
	case models.YesNo:
		return BoolOperand(truthy(actual)), true
	case models.Rating:
		n, ok := models.ToNumber(actual)
		if !ok {
			return nil, false
		}
		return NumberOperand(n), true
	default:
		s, ok := actual.(string)
		if !ok {
			return nil, false
		}
		return TextOperand(s), true
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	}
	if n, ok := models.ToNumber(v); ok {
		return n != 0
	}
	return true
}

// IsActive decides whether question must be answered and validated given the
// current answers. referenced is the question named by the condition, nil
// when it cannot be resolved. A condition without an expected value is
// ignored.
func IsActive(question models.Question, referenced *models.Question, answers models.Answers) bool {
	if question.Condition == nil || question.Condition.Value == "" || referenced == nil || referenced.Slug == "" {
		return true
	}

	actual, ok := answers[referenced.Slug]
	if !ok {
		return false
	}

	want, ok := ExpectedOperand(referenced.Type, question.Condition.Value)
	if !ok {
		return false
	}
	got, ok := ActualOperand(referenced.Type, actual)
	if !ok {
		return false
	}

	match, err := evaluateExpression(conditionExpression, map[string]any{
		"answer":   got.operand(),
		"expected": want.operand(),
	})
	if err != nil {
		return false
	}
	return match
}

var programs sync.Map // expression -> *vm.Program

func compileExpression(expression string) (*vm.Program, error) {
	if p, ok := programs.Load(expression); ok {
		return p.(*vm.Program), nil
	}

	program, err := expr.Compile(expression)
	if err != nil {
		return nil, err
	}

	programs.Store(expression, program)
	return program, nil
}

func evaluateExpression(expression string, input map[string]any) (bool, error) {
	program, err := compileExpression(expression)
	if err != nil {
		return false, err
	}

	output, err := expr.Run(program, input)
	if err != nil {
		return false, err
	}

	result, ok := output.(bool)

	if !ok {
		return false, errors.New("expression did not return a boolean")
	}

	return result, nil
}
