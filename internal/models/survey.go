package models

import (
	"sort"
	"time"
)

// The type of question being asked.
type QuestionType string

const (
	Text                    QuestionType = "text"
	Textarea                QuestionType = "textarea"
	MultipleChoice          QuestionType = "multiple_choice"
	MultipleSelect          QuestionType = "multiple_select"
	MultipleSelectWithOther QuestionType = "multiple_select_with_other"
	Rating                  QuestionType = "rating"
	YesNo                   QuestionType = "yes_no"
)

// QuestionTypes lists every supported question type.
var QuestionTypes = []QuestionType{Text, Textarea, MultipleChoice, MultipleSelect, MultipleSelectWithOther, Rating, YesNo}

func (t QuestionType) Valid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

const DefaultRatingScale = 5

type Option struct {
	Value string `json:"value" yaml:"value"`
}

// Validation bounds are unset when zero.
type Validation struct {
	Required   bool `json:"required" yaml:"required"`
	MinLength  int  `json:"minLength,omitempty" yaml:"min_length"`
	MaxLength  int  `json:"maxLength,omitempty" yaml:"max_length"`
	MinChoices int  `json:"minChoices,omitempty" yaml:"min_choices"`
	MaxChoices int  `json:"maxChoices,omitempty" yaml:"max_choices"`
}

// Condition shows a question only while another question's answer equals Value.
//
// Value is always stored as a string and reinterpreted according to the
// type of the referenced question.
type Condition struct {
	QuestionID string `json:"questionId" yaml:"question_id"`
	Value      string `json:"value" yaml:"value"`
}

// The Question object.
type Question struct {
	ID         string       `json:"id" yaml:"id"`
	Slug       string       `json:"slug" yaml:"slug"`
	Title      string       `json:"title" yaml:"title"`
	Type       QuestionType `json:"type" yaml:"type"`
	Options    []Option     `json:"options,omitempty" yaml:"options"`
	Scale      int          `json:"scale,omitempty" yaml:"scale"`
	Validation *Validation  `json:"validation,omitempty" yaml:"validation"`
	Condition  *Condition   `json:"condition,omitempty" yaml:"condition"`
}

// Label is the name used in messages shown to respondents.
func (q Question) Label() string {
	if q.Title != "" {
		return q.Title
	}
	return q.Slug
}

// MaxRating is the inclusive upper bound of a rating answer.
func (q Question) MaxRating() int {
	if q.Scale > 0 {
		return q.Scale
	}
	return DefaultRatingScale
}

func (q Question) OptionValues() []string {
	values := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		values = append(values, opt.Value)
	}
	return values
}

func (q Question) Rules() Validation {
	if q.Validation == nil {
		return Validation{}
	}
	return *q.Validation
}

// Position of a question inside a survey.
type SurveyQuestion struct {
	QuestionID string `json:"questionId" yaml:"question_id"`
	Order      int    `json:"order" yaml:"order"`
}

// The Survey object.
type Survey struct {
	ID          string           `json:"id" yaml:"id"`
	Title       string           `json:"title" yaml:"title"`
	Description string           `json:"description,omitempty" yaml:"description"`
	Questions   []SurveyQuestion `json:"questions" yaml:"questions"`
	Members     []string         `json:"members,omitempty" yaml:"members"`
	Active      bool             `json:"active" yaml:"active"`
}

// OrderedQuestionIDs returns question ids by ascending Order. Ties keep
// their position in the survey.
func (s Survey) OrderedQuestionIDs() []string {
	refs := make([]SurveyQuestion, len(s.Questions))
	copy(refs, s.Questions)
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].Order < refs[j].Order })

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.QuestionID)
	}
	return ids
}

// AllowsRespondent reports whether the survey is open to respondentID.
// An empty member list means any authenticated respondent.
func (s Survey) AllowsRespondent(respondentID string) bool {
	if len(s.Members) == 0 {
		return true
	}
	for _, m := range s.Members {
		if m == respondentID {
			return true
		}
	}
	return false
}

func (s Survey) Restricted() bool {
	return len(s.Members) > 0
}

type Respondent struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// One respondent's completed attempt at one survey.
type SurveyResponse struct {
	ID           string    `json:"id"`
	SurveyID     string    `json:"surveyId"`
	RespondentID string    `json:"respondentId"`
	Completed    bool      `json:"completed"`
	CompletedAt  time.Time `json:"completedAt"`
	SubmittedBy  string    `json:"submittedBy,omitempty"`
}

// One persisted answer.
type ResponseItem struct {
	ID               string       `json:"id"`
	SurveyResponseID string       `json:"surveyResponseId"`
	QuestionID       string       `json:"questionId"`
	QuestionSlug     string       `json:"questionSlug"`
	QuestionType     QuestionType `json:"questionType"`
	Value            AnswerValue  `json:"value"`
	Sentiment        *float64     `json:"sentiment,omitempty"`
}

// ValidationError points at one invalid answer.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
