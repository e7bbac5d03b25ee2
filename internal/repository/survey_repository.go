package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/paulexconde/surveypulse/internal/models"
	"github.com/paulexconde/surveypulse/internal/pkg/paginator"
	datastore "github.com/paulexconde/surveypulse/internal/pkg/store"
	"github.com/paulexconde/surveypulse/internal/services"
	"github.com/paulexconde/surveypulse/pkg/store"
)

// SurveyRepository is the Postgres backing of the survey, response and
// report services.
type SurveyRepository struct {
	questions       store.Datastorer[questionRow]
	surveys         store.Datastorer[surveyRow]
	surveyQuestions store.Datastorer[surveyQuestionRow]
	members         store.Datastorer[surveyMemberRow]
	respondents     store.Datastorer[respondentRow]
	responses       store.Datastorer[responseRow]
	items           store.Datastorer[itemRow]
	entries         store.Datastorer[models.SentimentEntry]
	buckets         store.Datastorer[models.SentimentBuckets]
	ratings         store.Datastorer[models.RatingAnswer]
	entryPaginator  paginator.Paginator[models.SentimentEntry]
	newID           func() string
}

var (
	_ services.ResponseStore = (*SurveyRepository)(nil)
	_ services.ReportStore   = (*SurveyRepository)(nil)
)

func NewSurveyRepository(db *sqlx.DB) *SurveyRepository {
	r := &SurveyRepository{
		questions:       datastore.NewDataStore[questionRow](db, "questions"),
		surveys:         datastore.NewDataStore[surveyRow](db, "surveys"),
		surveyQuestions: datastore.NewDataStore[surveyQuestionRow](db, "survey_questions"),
		members:         datastore.NewDataStore[surveyMemberRow](db, "survey_members"),
		respondents:     datastore.NewDataStore[respondentRow](db, "respondents"),
		responses:       datastore.NewDataStore[responseRow](db, "survey_responses"),
		items:           datastore.NewDataStore[itemRow](db, "response_items"),
		entries:         datastore.NewDataStore[models.SentimentEntry](db, "response_items"),
		buckets:         datastore.NewDataStore[models.SentimentBuckets](db, "response_items"),
		ratings:         datastore.NewDataStore[models.RatingAnswer](db, "response_items"),
		newID:           uuid.NewString,
	}
	r.entryPaginator = paginator.NewPaginator[models.SentimentEntry](r.entries)

	r.surveys.SetHooks(store.Hooks[surveyRow]{
		PostSave: []func(ctx context.Context, tx *sqlx.Tx, data store.DTO[surveyRow], model *surveyRow, isNew bool) error{
			r.saveSurveyChildren,
		},
	})
	r.responses.SetHooks(store.Hooks[responseRow]{
		PreDelete: []func(ctx context.Context, tx *sqlx.Tx, id string) error{
			r.deleteResponseItems,
		},
	})

	return r
}

func (r *SurveyRepository) GetSurvey(ctx context.Context, id string) (*models.Survey, error) {
	row, err := r.surveys.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	refs, err := r.surveyQuestions.Find(ctx, store.Filter{"survey_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to load survey questions: %w", err)
	}

	members, err := r.members.Find(ctx, store.Filter{"survey_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to load survey members: %w", err)
	}

	survey := &models.Survey{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Active:      row.Active,
		Questions:   make([]models.SurveyQuestion, 0, len(refs)),
	}
	for _, ref := range refs {
		survey.Questions = append(survey.Questions, models.SurveyQuestion{QuestionID: ref.QuestionID, Order: ref.SortOrder})
	}
	for _, m := range members {
		survey.Members = append(survey.Members, m.RespondentID)
	}

	return survey, nil
}

const questionColumns = "id, slug, title, type, options, scale, required, min_length, max_length, min_choices, max_choices, condition_question_id, condition_value"

func (r *SurveyRepository) GetQuestions(ctx context.Context, ids []string) ([]models.Question, error) {
	if len(ids) == 0 {
		return []models.Question{}, nil
	}

	query := fmt.Sprintf("SELECT %s FROM questions WHERE id = ANY($1)", questionColumns)

	rows, err := r.questions.Select(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}

	questions := make([]models.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, row.toModel())
	}
	return questions, nil
}

func (r *SurveyRepository) FindCompletedResponses(ctx context.Context, surveyID, respondentID string) ([]models.SurveyResponse, error) {
	rows, err := r.responses.Find(ctx, store.Filter{
		"survey_id":     surveyID,
		"respondent_id": respondentID,
		"completed":     true,
	})
	if err != nil {
		return nil, err
	}

	responses := make([]models.SurveyResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, row.toModel())
	}
	return responses, nil
}

func (r *SurveyRepository) CreateResponse(ctx context.Context, response *models.SurveyResponse) (*models.SurveyResponse, error) {
	if response.ID == "" {
		response.ID = r.newID()
	}

	row, err := r.responses.Create(ctx, newResponseRow(response))
	if err != nil {
		return nil, err
	}

	created := row.toModel()
	return &created, nil
}

func (r *SurveyRepository) CreateResponseItem(ctx context.Context, item *models.ResponseItem) (*models.ResponseItem, error) {
	if item.ID == "" {
		item.ID = r.newID()
	}

	row, err := r.items.Create(ctx, newItemRow(item))
	if err != nil {
		return nil, err
	}

	created := row.toModel()
	return &created, nil
}

// DeleteResponse removes a response together with its items.
func (r *SurveyRepository) DeleteResponse(ctx context.Context, id string) error {
	return r.responses.Delete(ctx, id)
}

// UpdateItemSentiment stores the score of one free-text answer.
func (r *SurveyRepository) UpdateItemSentiment(ctx context.Context, itemID string, score float64) error {
	_, err := r.items.Update(ctx, itemID, itemSentimentDTO{Sentiment: &score})
	return err
}

// OnItemCreated registers fn to run after each response item is committed.
func (r *SurveyRepository) OnItemCreated(fn func(item models.ResponseItem)) {
	r.items.SetHooks(store.Hooks[itemRow]{
		AfterSaveCommit: []func(ctx context.Context, data store.DTO[itemRow], model *itemRow, isNew bool) store.AfterSaveCommitHook{
			func(ctx context.Context, data store.DTO[itemRow], model *itemRow, isNew bool) store.AfterSaveCommitHook {
				if !isNew || model == nil {
					return nil
				}
				item := model.toModel()
				return func() { fn(item) }
			},
		},
	})
}

func (r *SurveyRepository) saveSurveyChildren(ctx context.Context, tx *sqlx.Tx, data store.DTO[surveyRow], model *surveyRow, isNew bool) error {
	dto, ok := data.(*surveyDTO)
	if !ok {
		return nil
	}

	if !isNew {
		if _, err := tx.ExecContext(ctx, "DELETE FROM survey_questions WHERE survey_id = $1", model.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM survey_members WHERE survey_id = $1", model.ID); err != nil {
			return err
		}
	}

	for _, q := range dto.Questions {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO survey_questions (id, survey_id, question_id, sort_order) VALUES ($1, $2, $3, $4)",
			r.newID(), model.ID, q.QuestionID, q.Order); err != nil {
			return err
		}
	}
	for _, m := range dto.Members {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO survey_members (id, survey_id, respondent_id) VALUES ($1, $2, $3)",
			r.newID(), model.ID, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *SurveyRepository) deleteResponseItems(ctx context.Context, tx *sqlx.Tx, id string) error {
	return r.items.DeleteWhere(ctx, tx, "survey_response_id", id)
}

// sentimentOrder maps report sort fields to ORDER BY expressions.
var sentimentOrder = map[string]string{
	services.SortByRespondent: "respondent_email",
	services.SortByQuestion:   "question_title",
	services.SortBySentiment:  "sentiment",
}

const sentimentFrom = `FROM response_items ri
JOIN survey_responses sr ON sr.id = ri.survey_response_id
JOIN surveys s ON s.id = sr.survey_id
LEFT JOIN respondents rs ON rs.id = sr.respondent_id
LEFT JOIN questions qn ON qn.id = ri.question_id
WHERE ri.question_type = 'textarea' AND ri.sentiment IS NOT NULL`

func (r *SurveyRepository) SentimentEntries(ctx context.Context, q services.ReportQuery) (*paginator.PaginatedResponse[models.SentimentEntry], error) {
	q = q.Normalize()

	var sb strings.Builder
	sb.WriteString(`SELECT ri.id AS item_id, s.id AS survey_id, s.title AS survey_title,
COALESCE(rs.email, sr.submitted_by) AS respondent_email, ri.question_slug,
COALESCE(qn.title, ri.question_slug) AS question_title,
COALESCE(ri.text_value, '') AS text_value, ri.sentiment `)
	sb.WriteString(sentimentFrom)

	var args []any
	if q.SurveyID != "" {
		args = append(args, q.SurveyID)
		sb.WriteString(" AND sr.survey_id = $1")
	}

	direction := "DESC"
	if q.Direction == "asc" {
		direction = "ASC"
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s, item_id ASC", sentimentOrder[q.Sort], direction)

	return r.entryPaginator.PaginateQuery(ctx, sb.String(), args, q.Page, q.Limit)
}

func (r *SurveyRepository) SentimentBuckets(ctx context.Context, surveyID string) (models.SentimentBuckets, error) {
	query := fmt.Sprintf(`SELECT
COUNT(*) FILTER (WHERE ri.sentiment >= %[1]g) AS positive,
COUNT(*) FILTER (WHERE ri.sentiment >= %[2]g AND ri.sentiment < %[1]g) AS neutral,
COUNT(*) FILTER (WHERE ri.sentiment < %[2]g) AS negative
%[3]s`, models.PositiveSentiment, models.NegativeSentiment, sentimentFrom)

	var args []any
	if surveyID != "" {
		query += " AND sr.survey_id = $1"
		args = append(args, surveyID)
	}

	buckets, err := r.buckets.Get(ctx, query, args...)
	if err != nil {
		return models.SentimentBuckets{}, err
	}
	return *buckets, nil
}

func (r *SurveyRepository) RatingAnswers(ctx context.Context, surveyID string) ([]models.RatingAnswer, error) {
	query := fmt.Sprintf(`SELECT ri.question_id, ri.question_slug,
COALESCE(qn.title, ri.question_slug) AS question_title,
COALESCE(qn.scale, %d) AS scale, ri.number_value
FROM response_items ri
JOIN survey_responses sr ON sr.id = ri.survey_response_id
LEFT JOIN questions qn ON qn.id = ri.question_id
WHERE sr.survey_id = $1 AND ri.question_type = 'rating' AND ri.number_value IS NOT NULL
ORDER BY ri.question_id`, models.DefaultRatingScale)

	answers, err := r.ratings.Select(ctx, query, surveyID)
	if err != nil {
		return nil, err
	}
	if answers == nil {
		answers = []models.RatingAnswer{}
	}
	return answers, nil
}

// SaveQuestion inserts a question definition.
func (r *SurveyRepository) SaveQuestion(ctx context.Context, q models.Question) (*models.Question, error) {
	if q.ID == "" {
		q.ID = r.newID()
	}
	row, err := r.questions.Create(ctx, newQuestionRow(q))
	if err != nil {
		return nil, err
	}
	saved := row.toModel()
	return &saved, nil
}

// SaveSurvey inserts a survey with its question references and members in
// one transaction.
func (r *SurveyRepository) SaveSurvey(ctx context.Context, s models.Survey) (string, error) {
	if s.ID == "" {
		s.ID = r.newID()
	}
	row, err := r.surveys.Create(ctx, &surveyDTO{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Active:      s.Active,
		Questions:   s.Questions,
		Members:     s.Members,
	})
	if err != nil {
		return "", err
	}
	return row.ID, nil
}

func (r *SurveyRepository) SaveRespondent(ctx context.Context, respondent models.Respondent) (*models.Respondent, error) {
	if respondent.ID == "" {
		respondent.ID = r.newID()
	}
	row, err := r.respondents.Create(ctx, respondentRow{ID: respondent.ID, Email: respondent.Email})
	if err != nil {
		return nil, err
	}
	return &models.Respondent{ID: row.ID, Email: row.Email}, nil
}
