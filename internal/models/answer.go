package models

import "fmt"

// AnswerValue is the stored form of an answer. Exactly one of TextValue,
// NumberValue, BoolValue or ListValue.
type AnswerValue interface {
	isAnswerValue()
}

type TextValue string

type NumberValue float64

type BoolValue bool

type ListValue []string

func (TextValue) isAnswerValue()   {}
func (NumberValue) isAnswerValue() {}
func (BoolValue) isAnswerValue()   {}
func (ListValue) isAnswerValue()   {}

// NewAnswerValue converts a validated raw answer into the slot selected by
// the question type.
func NewAnswerValue(t QuestionType, raw any) (AnswerValue, error) {
	switch t {
	case Text, Textarea, MultipleChoice:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string for %s, got %T", t, raw)
		}
		return TextValue(s), nil
	case Rating:
		n, ok := ToNumber(raw)
		if !ok {
			return nil, fmt.Errorf("expected number for %s, got %T", t, raw)
		}
		return NumberValue(n), nil
	case YesNo:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean for %s, got %T", t, raw)
		}
		return BoolValue(b), nil
	case MultipleSelect, MultipleSelectWithOther:
		list, ok := ToStringList(raw)
		if !ok {
			return nil, fmt.Errorf("expected list of strings for %s, got %T", t, raw)
		}
		return ListValue(list), nil
	default:
		return nil, fmt.Errorf("unsupported question type %q", t)
	}
}

// ToNumber accepts the numeric shapes produced by encoding/json and by
// callers building answer maps in Go.
func ToNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ToList reports v as a list of elements when it is one.
func ToList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func ToStringList(v any) ([]string, bool) {
	list, ok := ToList(v)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, el := range list {
		s, ok := el.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// IsEmptyAnswer is true for an absent answer, an empty string or an empty list.
func IsEmptyAnswer(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	if l, ok := ToList(v); ok {
		return len(l) == 0
	}
	return false
}

// Answers maps question slugs to submitted raw values.
type Answers map[string]any
