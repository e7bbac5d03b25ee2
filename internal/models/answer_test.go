package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnswerValue(t *testing.T) {
	tests := []struct {
		name    string
		qt      QuestionType
		raw     any
		want    AnswerValue
		wantErr bool
	}{
		{"text", Text, "hi", TextValue("hi"), false},
		{"textarea", Textarea, "long", TextValue("long"), false},
		{"choice", MultipleChoice, "red", TextValue("red"), false},
		{"rating float", Rating, 4.0, NumberValue(4), false},
		{"rating int", Rating, 3, NumberValue(3), false},
		{"rating json number", Rating, json.Number("2.5"), NumberValue(2.5), false},
		{"yes no", YesNo, true, BoolValue(true), false},
		{"select", MultipleSelect, []any{"a", "b"}, ListValue{"a", "b"}, false},
		{"select with other", MultipleSelectWithOther, []string{"x"}, ListValue{"x"}, false},
		{"text mismatch", Text, 1.0, nil, true},
		{"select mixed", MultipleSelect, []any{"a", 1.0}, nil, true},
		{"unknown type", QuestionType("dropdown"), "a", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewAnswerValue(tt.qt, tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsEmptyAnswer(t *testing.T) {
	assert.True(t, IsEmptyAnswer(nil))
	assert.True(t, IsEmptyAnswer(""))
	assert.True(t, IsEmptyAnswer([]any{}))
	assert.True(t, IsEmptyAnswer([]string{}))

	assert.False(t, IsEmptyAnswer(0.0))
	assert.False(t, IsEmptyAnswer(false))
	assert.False(t, IsEmptyAnswer(" "))
	assert.False(t, IsEmptyAnswer([]any{""}))
}

func TestOrderedQuestionIDs(t *testing.T) {
	s := Survey{Questions: []SurveyQuestion{
		{QuestionID: "c", Order: 2},
		{QuestionID: "a", Order: 0},
		{QuestionID: "b", Order: 2},
	}}

	assert.Equal(t, []string{"a", "c", "b"}, s.OrderedQuestionIDs())
	assert.Equal(t, "c", s.Questions[0].QuestionID, "survey questions must not be reordered in place")
}

func TestSurveyMembers(t *testing.T) {
	open := Survey{}
	assert.False(t, open.Restricted())
	assert.True(t, open.AllowsRespondent("anyone"))

	closed := Survey{Members: []string{"r1"}}
	assert.True(t, closed.Restricted())
	assert.True(t, closed.AllowsRespondent("r1"))
	assert.False(t, closed.AllowsRespondent("r2"))
}

func TestQuestionHelpers(t *testing.T) {
	q := Question{Slug: "score", Type: Rating}
	assert.Equal(t, "score", q.Label())
	assert.Equal(t, DefaultRatingScale, q.MaxRating())
	assert.Equal(t, Validation{}, q.Rules())

	q.Title, q.Scale = "Score", 10
	assert.Equal(t, "Score", q.Label())
	assert.Equal(t, 10, q.MaxRating())

	assert.True(t, YesNo.Valid())
	assert.False(t, QuestionType("dropdown").Valid())
}
