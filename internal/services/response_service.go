package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulexconde/surveypulse/internal/models"
	"github.com/paulexconde/surveypulse/pkg/fault"
)

// ResponseStore abstracts persistence operations required by SurveyResponseService.
type ResponseStore interface {
	SurveyReader
	// FindCompletedResponses lists completed responses of one respondent to one survey.
	FindCompletedResponses(ctx context.Context, surveyID, respondentID string) ([]models.SurveyResponse, error)
	// CreateResponse returns fault.ErrUniqueViolation when a completed response
	// for the same survey and respondent already exists.
	CreateResponse(ctx context.Context, response *models.SurveyResponse) (*models.SurveyResponse, error)
	CreateResponseItem(ctx context.Context, item *models.ResponseItem) (*models.ResponseItem, error)
}

// SubmissionResult is returned once a response and its items are stored.
type SubmissionResult struct {
	ResponseID string
	ItemCount  int
}

// Handles every response for every survey.
type SurveyResponseService interface {
	// CompleteSurvey validates and stores a respondent's answers to a survey.
	// rawAnswers must be a mapping of question slug to value.
	CompleteSurvey(ctx context.Context, surveyID string, respondent *models.Respondent, rawAnswers any) (*SubmissionResult, error)
}

type surveyResponseServiceImpl struct {
	store       ResponseStore
	logger      *slog.Logger
	now         func() time.Time
	idGenerator func() string
}

// Instantiate the `SurveyResponseService`.
func NewSurveyResponseService(store ResponseStore, logger *slog.Logger) SurveyResponseService {
	if logger == nil {
		logger = slog.Default()
	}
	return &surveyResponseServiceImpl{
		store:       store,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: uuid.NewString,
	}
}

func (s *surveyResponseServiceImpl) CompleteSurvey(ctx context.Context, surveyID string, respondent *models.Respondent, rawAnswers any) (*SubmissionResult, error) {
	if respondent == nil || respondent.ID == "" {
		return nil, fault.Unauthorized("Authentication required. Please log in to complete surveys.")
	}

	survey, err := loadSurvey(ctx, s.store, surveyID)
	if err != nil {
		return nil, err
	}

	if !survey.Active {
		return nil, fault.Forbidden("This survey is not currently accepting responses")
	}

	if !survey.AllowsRespondent(respondent.ID) {
		return nil, fault.Forbidden("You are not authorized to complete this survey")
	}

	existing, err := s.store.FindCompletedResponses(ctx, survey.ID, respondent.ID)
	if err != nil {
		return nil, fault.NewInternalError("failed to check existing responses", err)
	}
	if len(existing) > 0 {
		return nil, fault.Conflict("You have already completed this survey", nil)
	}

	answers, ok := parseAnswers(rawAnswers)
	if !ok {
		return nil, fault.NewClientError("Invalid request: responses must be an object", nil)
	}

	questions, known, err := resolveQuestions(ctx, s.store, survey)
	if err != nil {
		return nil, err
	}

	if verrs := ValidateAll(questions, known, answers); len(verrs) > 0 {
		details := make([]fault.Detail, 0, len(verrs))
		for _, v := range verrs {
			details = append(details, fault.Detail{Field: v.Field, Message: v.Message})
		}
		return nil, fault.Invalid("Validation failed", details)
	}

	items, err := buildItems(questions, known, answers)
	if err != nil {
		return nil, fault.NewInternalError("failed to prepare answers", err)
	}

	submittedBy := respondent.Email
	if submittedBy == "" {
		submittedBy = respondent.ID
	}

	response, err := s.store.CreateResponse(ctx, &models.SurveyResponse{
		ID:           s.idGenerator(),
		SurveyID:     survey.ID,
		RespondentID: respondent.ID,
		Completed:    true,
		CompletedAt:  s.now(),
		SubmittedBy:  submittedBy,
	})
	if err != nil {
		if errors.Is(err, fault.ErrUniqueViolation) {
			return nil, fault.Conflict("You have already completed this survey", err)
		}
		return nil, fault.NewInternalError("failed to create survey response", err)
	}

	if err := s.storeItems(ctx, response.ID, items); err != nil {
		s.logger.Error("partial survey submission",
			slog.String("surveyID", survey.ID),
			slog.String("responseID", response.ID),
			slog.String("error", err.Error()))
		return nil, fault.NewInternalError(fmt.Sprintf("failed to store answers for response %s", response.ID), err)
	}

	s.logger.Info("survey completed",
		slog.String("surveyID", survey.ID),
		slog.String("respondentID", respondent.ID),
		slog.String("responseID", response.ID),
		slog.Int("items", len(items)))

	return &SubmissionResult{ResponseID: response.ID, ItemCount: len(items)}, nil
}

// storeItems creates the items concurrently. There is no rollback of the
// response when one of them fails.
func (s *surveyResponseServiceImpl) storeItems(ctx context.Context, responseID string, items []*models.ResponseItem) error {
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		item.ID = s.idGenerator()
		item.SurveyResponseID = responseID

		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.store.CreateResponseItem(ctx, item); err != nil {
				errs[i] = fmt.Errorf("item %s: %w", item.QuestionSlug, err)
			}
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

// buildItems keeps one item per active question with a non-empty answer, in
// survey order.
func buildItems(questions []models.Question, known map[string]models.Question, answers models.Answers) ([]*models.ResponseItem, error) {
	items := make([]*models.ResponseItem, 0, len(questions))

	for _, q := range questions {
		if q.Slug == "" || !IsActive(q, referencedQuestion(q, known), answers) {
			continue
		}

		value := answers[q.Slug]
		if models.IsEmptyAnswer(value) {
			continue
		}

		stored, err := models.NewAnswerValue(q.Type, value)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", q.Slug, err)
		}

		items = append(items, &models.ResponseItem{
			QuestionID:   q.ID,
			QuestionSlug: q.Slug,
			QuestionType: q.Type,
			Value:        stored,
		})
	}

	return items, nil
}

func parseAnswers(raw any) (models.Answers, bool) {
	switch v := raw.(type) {
	case models.Answers:
		if v == nil {
			return nil, false
		}
		return v, true
	case map[string]any:
		if v == nil {
			return nil, false
		}
		return models.Answers(v), true
	default:
		return nil, false
	}
}
