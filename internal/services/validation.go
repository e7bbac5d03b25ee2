package services

import "github.com/paulexconde/surveypulse/internal/models"

// ValidateAll runs every question of a survey, in order, through IsActive and
// ValidateAnswer and collects all errors. known resolves condition references
// by question id and may include questions outside the survey.
func ValidateAll(questions []models.Question, known map[string]models.Question, answers models.Answers) []models.ValidationError {
	errs := []models.ValidationError{}

	for _, q := range questions {
		if q.Slug == "" {
			continue
		}
		if !IsActive(q, referencedQuestion(q, known), answers) {
			continue
		}
		if verr := ValidateAnswer(q, answers[q.Slug], answers); verr != nil {
			errs = append(errs, *verr)
		}
	}

	return errs
}

func referencedQuestion(q models.Question, known map[string]models.Question) *models.Question {
	if q.Condition == nil || q.Condition.QuestionID == "" {
		return nil
	}
	ref, ok := known[q.Condition.QuestionID]
	if !ok {
		return nil
	}
	return &ref
}

// IndexQuestions keys questions by id.
func IndexQuestions(questions ...[]models.Question) map[string]models.Question {
	index := map[string]models.Question{}
	for _, group := range questions {
		for _, q := range group {
			index[q.ID] = q
		}
	}
	return index
}
