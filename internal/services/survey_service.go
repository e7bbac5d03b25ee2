package services

import (
	"context"
	"errors"

	"github.com/paulexconde/surveypulse/internal/models"
	"github.com/paulexconde/surveypulse/pkg/fault"
)

// SurveyReader loads surveys and their questions.
type SurveyReader interface {
	// GetSurvey returns fault.ErrNotFound when the survey does not exist.
	GetSurvey(ctx context.Context, id string) (*models.Survey, error)
	// GetQuestions returns the questions that exist among ids, in any order.
	GetQuestions(ctx context.Context, ids []string) ([]models.Question, error)
}

// SurveyDetail is a survey with its questions expanded in survey order.
type SurveyDetail struct {
	models.Survey
	QuestionList []models.Question `json:"questionList"`
}

// Serves surveys to respondents.
type SurveyService interface {
	// GetSurvey applies the same activity and access checks as a submission.
	// respondent may be nil for anonymous callers.
	GetSurvey(ctx context.Context, surveyID string, respondent *models.Respondent) (*SurveyDetail, error)
}

type surveyServiceImpl struct {
	store SurveyReader
}

// Instantiate the SurveyService.
func NewSurveyService(store SurveyReader) SurveyService {
	return &surveyServiceImpl{store: store}
}

func (s *surveyServiceImpl) GetSurvey(ctx context.Context, surveyID string, respondent *models.Respondent) (*SurveyDetail, error) {
	survey, err := loadSurvey(ctx, s.store, surveyID)
	if err != nil {
		return nil, err
	}

	if !survey.Active {
		return nil, fault.Forbidden("This survey is not currently accepting responses")
	}

	if survey.Restricted() {
		if respondent == nil || respondent.ID == "" {
			return nil, fault.Unauthorized("Authentication required to access this survey")
		}
		if !survey.AllowsRespondent(respondent.ID) {
			return nil, fault.Forbidden("You are not authorized to access this survey")
		}
	}

	questions, _, err := resolveQuestions(ctx, s.store, survey)
	if err != nil {
		return nil, err
	}

	return &SurveyDetail{Survey: *survey, QuestionList: questions}, nil
}

func loadSurvey(ctx context.Context, store SurveyReader, surveyID string) (*models.Survey, error) {
	survey, err := store.GetSurvey(ctx, surveyID)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return nil, fault.NotFound("Survey not found", err)
		}
		return nil, fault.NewInternalError("failed to load survey", err)
	}
	if survey == nil {
		return nil, fault.NotFound("Survey not found", fault.ErrNotFound)
	}
	return survey, nil
}

// resolveQuestions expands the survey's question references in order and
// also loads questions that conditions point at outside the survey.
// References that no longer resolve are skipped.
func resolveQuestions(ctx context.Context, store SurveyReader, survey *models.Survey) ([]models.Question, map[string]models.Question, error) {
	ids := survey.OrderedQuestionIDs()

	found, err := store.GetQuestions(ctx, ids)
	if err != nil {
		return nil, nil, fault.NewInternalError("failed to load survey questions", err)
	}
	known := IndexQuestions(found)

	var missing []string
	for _, q := range found {
		if q.Condition == nil || q.Condition.QuestionID == "" {
			continue
		}
		if _, ok := known[q.Condition.QuestionID]; !ok {
			missing = append(missing, q.Condition.QuestionID)
		}
	}
	if len(missing) > 0 {
		extra, err := store.GetQuestions(ctx, missing)
		if err != nil {
			return nil, nil, fault.NewInternalError("failed to load condition questions", err)
		}
		for _, q := range extra {
			known[q.ID] = q
		}
	}

	ordered := make([]models.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := known[id]; ok {
			ordered = append(ordered, q)
		}
	}

	return ordered, known, nil
}
