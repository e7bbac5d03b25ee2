package models

// Sentiment thresholds used by the dashboard buckets.
const (
	PositiveSentiment = 0.6
	NegativeSentiment = 0.4
	NeutralSentiment  = 0.5
)

// SentimentEntry is one scored free-text answer as shown on the dashboard.
type SentimentEntry struct {
	ItemID          string  `db:"item_id" json:"itemId"`
	SurveyID        string  `db:"survey_id" json:"surveyId"`
	SurveyTitle     string  `db:"survey_title" json:"surveyTitle"`
	RespondentEmail string  `db:"respondent_email" json:"respondentEmail"`
	QuestionSlug    string  `db:"question_slug" json:"questionSlug"`
	QuestionTitle   string  `db:"question_title" json:"questionTitle"`
	Text            string  `db:"text_value" json:"text"`
	Sentiment       float64 `db:"sentiment" json:"sentiment"`
}

type SentimentBuckets struct {
	Positive int `db:"positive" json:"positive"`
	Neutral  int `db:"neutral" json:"neutral"`
	Negative int `db:"negative" json:"negative"`
}

func (b SentimentBuckets) Total() int {
	return b.Positive + b.Neutral + b.Negative
}

// RatingAnswer is one stored rating with the question it answers.
type RatingAnswer struct {
	QuestionID    string  `db:"question_id"`
	QuestionSlug  string  `db:"question_slug"`
	QuestionTitle string  `db:"question_title"`
	Scale         int     `db:"scale"`
	Value         float64 `db:"number_value"`
}
