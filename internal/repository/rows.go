package repository

import (
	"time"

	"github.com/lib/pq"
	"github.com/paulexconde/surveypulse/internal/models"
)

type questionRow struct {
	ID                  string         `db:"id"`
	Slug                string         `db:"slug"`
	Title               string         `db:"title"`
	Type                string         `db:"type"`
	Options             pq.StringArray `db:"options"`
	Scale               *int           `db:"scale"`
	Required            bool           `db:"required"`
	MinLength           *int           `db:"min_length"`
	MaxLength           *int           `db:"max_length"`
	MinChoices          *int           `db:"min_choices"`
	MaxChoices          *int           `db:"max_choices"`
	ConditionQuestionID *string        `db:"condition_question_id"`
	ConditionValue      *string        `db:"condition_value"`
}

func (r questionRow) ToModel(id string) *questionRow {
	r.ID = id
	return &r
}

func newQuestionRow(q models.Question) questionRow {
	row := questionRow{
		ID:    q.ID,
		Slug:  q.Slug,
		Title: q.Title,
		Type:  string(q.Type),
		Scale: intOrNil(q.Scale),
	}
	for _, opt := range q.Options {
		row.Options = append(row.Options, opt.Value)
	}
	if v := q.Validation; v != nil {
		row.Required = v.Required
		row.MinLength = intOrNil(v.MinLength)
		row.MaxLength = intOrNil(v.MaxLength)
		row.MinChoices = intOrNil(v.MinChoices)
		row.MaxChoices = intOrNil(v.MaxChoices)
	}
	if c := q.Condition; c != nil && c.QuestionID != "" {
		row.ConditionQuestionID = &c.QuestionID
		row.ConditionValue = &c.Value
	}
	return row
}

func (r questionRow) toModel() models.Question {
	q := models.Question{
		ID:    r.ID,
		Slug:  r.Slug,
		Title: r.Title,
		Type:  models.QuestionType(r.Type),
		Scale: intValue(r.Scale),
	}
	for _, v := range r.Options {
		q.Options = append(q.Options, models.Option{Value: v})
	}
	if r.Required || r.MinLength != nil || r.MaxLength != nil || r.MinChoices != nil || r.MaxChoices != nil {
		q.Validation = &models.Validation{
			Required:   r.Required,
			MinLength:  intValue(r.MinLength),
			MaxLength:  intValue(r.MaxLength),
			MinChoices: intValue(r.MinChoices),
			MaxChoices: intValue(r.MaxChoices),
		}
	}
	if r.ConditionQuestionID != nil && *r.ConditionQuestionID != "" {
		q.Condition = &models.Condition{QuestionID: *r.ConditionQuestionID}
		if r.ConditionValue != nil {
			q.Condition.Value = *r.ConditionValue
		}
	}
	return q
}

type surveyRow struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Active      bool   `db:"active"`
}

// surveyDTO carries the child rows written by the survey PostSave hook.
type surveyDTO struct {
	ID          string                  `db:"id"`
	Title       string                  `db:"title"`
	Description string                  `db:"description"`
	Active      bool                    `db:"active"`
	Questions   []models.SurveyQuestion `db:"-"`
	Members     []string                `db:"-"`
}

func (d *surveyDTO) ToModel(id string) *surveyRow {
	return &surveyRow{ID: id, Title: d.Title, Description: d.Description, Active: d.Active}
}

type surveyQuestionRow struct {
	ID         string `db:"id"`
	SurveyID   string `db:"survey_id"`
	QuestionID string `db:"question_id"`
	SortOrder  int    `db:"sort_order"`
}

type surveyMemberRow struct {
	ID           string `db:"id"`
	SurveyID     string `db:"survey_id"`
	RespondentID string `db:"respondent_id"`
}

type respondentRow struct {
	ID    string `db:"id"`
	Email string `db:"email"`
}

func (r respondentRow) ToModel(id string) *respondentRow {
	r.ID = id
	return &r
}

type responseRow struct {
	ID           string     `db:"id"`
	SurveyID     string     `db:"survey_id"`
	RespondentID string     `db:"respondent_id"`
	Completed    bool       `db:"completed"`
	CompletedAt  *time.Time `db:"completed_at"`
	SubmittedBy  string     `db:"submitted_by"`
}

func (r responseRow) ToModel(id string) *responseRow {
	r.ID = id
	return &r
}

func newResponseRow(m *models.SurveyResponse) responseRow {
	row := responseRow{
		ID:           m.ID,
		SurveyID:     m.SurveyID,
		RespondentID: m.RespondentID,
		Completed:    m.Completed,
		SubmittedBy:  m.SubmittedBy,
	}
	if !m.CompletedAt.IsZero() {
		at := m.CompletedAt
		row.CompletedAt = &at
	}
	return row
}

func (r responseRow) toModel() models.SurveyResponse {
	m := models.SurveyResponse{
		ID:           r.ID,
		SurveyID:     r.SurveyID,
		RespondentID: r.RespondentID,
		Completed:    r.Completed,
		SubmittedBy:  r.SubmittedBy,
	}
	if r.CompletedAt != nil {
		m.CompletedAt = *r.CompletedAt
	}
	return m
}

// itemRow flattens the answer into one nullable column per value shape.
type itemRow struct {
	ID               string         `db:"id"`
	SurveyResponseID string         `db:"survey_response_id"`
	QuestionID       string         `db:"question_id"`
	QuestionSlug     string         `db:"question_slug"`
	QuestionType     string         `db:"question_type"`
	TextValue        *string        `db:"text_value"`
	NumberValue      *float64       `db:"number_value"`
	BooleanValue     *bool          `db:"boolean_value"`
	ArrayValue       pq.StringArray `db:"array_value"`
	Sentiment        *float64       `db:"sentiment"`
}

func (r itemRow) ToModel(id string) *itemRow {
	r.ID = id
	return &r
}

func newItemRow(item *models.ResponseItem) itemRow {
	row := itemRow{
		ID:               item.ID,
		SurveyResponseID: item.SurveyResponseID,
		QuestionID:       item.QuestionID,
		QuestionSlug:     item.QuestionSlug,
		QuestionType:     string(item.QuestionType),
		Sentiment:        item.Sentiment,
	}

	switch v := item.Value.(type) {
	case models.TextValue:
		s := string(v)
		row.TextValue = &s
	case models.NumberValue:
		n := float64(v)
		row.NumberValue = &n
	case models.BoolValue:
		b := bool(v)
		row.BooleanValue = &b
	case models.ListValue:
		row.ArrayValue = pq.StringArray(append([]string{}, v...))
	}

	return row
}

func (r itemRow) toModel() models.ResponseItem {
	item := models.ResponseItem{
		ID:               r.ID,
		SurveyResponseID: r.SurveyResponseID,
		QuestionID:       r.QuestionID,
		QuestionSlug:     r.QuestionSlug,
		QuestionType:     models.QuestionType(r.QuestionType),
		Sentiment:        r.Sentiment,
	}

	switch {
	case r.TextValue != nil:
		item.Value = models.TextValue(*r.TextValue)
	case r.NumberValue != nil:
		item.Value = models.NumberValue(*r.NumberValue)
	case r.BooleanValue != nil:
		item.Value = models.BoolValue(*r.BooleanValue)
	case r.ArrayValue != nil:
		item.Value = models.ListValue(r.ArrayValue)
	}

	return item
}

// itemSentimentDTO updates only the sentiment column.
type itemSentimentDTO struct {
	Sentiment *float64 `db:"sentiment"`
}

func (d itemSentimentDTO) ToModel(id string) *itemRow {
	return &itemRow{ID: id, Sentiment: d.Sentiment}
}

func intOrNil(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func intValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
