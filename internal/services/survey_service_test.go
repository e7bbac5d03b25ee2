package services

import (
	"context"
	"testing"

	"github.com/paulexconde/surveypulse/internal/models"
	"github.com/paulexconde/surveypulse/pkg/fault"
)

func TestGetSurveyExpandsQuestionsInOrder(t *testing.T) {
	store := newMemoryStore(
		models.Question{ID: "a", Slug: "a", Type: models.Text},
		models.Question{ID: "b", Slug: "b", Type: models.Text},
		models.Question{ID: "c", Slug: "c", Type: models.Text},
	)
	store.addSurvey(models.Survey{ID: "s1", Active: true, Questions: []models.SurveyQuestion{
		{QuestionID: "c", Order: 3},
		{QuestionID: "a", Order: 1},
		{QuestionID: "deleted", Order: 2},
		{QuestionID: "b", Order: 2},
	}})

	detail, err := NewSurveyService(store).GetSurvey(context.Background(), "s1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []string
	for _, q := range detail.QuestionList {
		got = append(got, q.ID)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("expected [a b c], got %v", got)
	}
}

func TestGetSurveyAccess(t *testing.T) {
	tests := []struct {
		name       string
		survey     models.Survey
		respondent *models.Respondent
		kind       fault.Kind
		allowed    bool
	}{
		{
			name:    "open survey anonymous",
			survey:  models.Survey{ID: "s1", Active: true},
			allowed: true,
		},
		{
			name:   "inactive",
			survey: models.Survey{ID: "s1"},
			kind:   fault.KindForbidden,
		},
		{
			name:   "restricted anonymous",
			survey: models.Survey{ID: "s1", Active: true, Members: []string{"r1"}},
			kind:   fault.KindUnauthorized,
		},
		{
			name:       "restricted non member",
			survey:     models.Survey{ID: "s1", Active: true, Members: []string{"r1"}},
			respondent: &models.Respondent{ID: "r2"},
			kind:       fault.KindForbidden,
		},
		{
			name:       "restricted member",
			survey:     models.Survey{ID: "s1", Active: true, Members: []string{"r1"}},
			respondent: &models.Respondent{ID: "r1"},
			allowed:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			store.addSurvey(tt.survey)

			_, err := NewSurveyService(store).GetSurvey(context.Background(), "s1", tt.respondent)
			if tt.allowed {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if got := fault.KindOf(err); got != tt.kind {
				t.Errorf("expected kind %v, got %v (%v)", tt.kind, got, err)
			}
		})
	}
}

func TestGetSurveyNotFound(t *testing.T) {
	_, err := NewSurveyService(newMemoryStore()).GetSurvey(context.Background(), "missing", nil)
	if fault.KindOf(err) != fault.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}
