package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paulexconde/surveypulse/internal/models"
	"github.com/paulexconde/surveypulse/internal/services"
	"github.com/paulexconde/surveypulse/pkg/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSignKey = "test-sign-key"

type stubSurveys struct {
	detail *services.SurveyDetail
	err    error
	seen   *models.Respondent
}

func (s *stubSurveys) GetSurvey(ctx context.Context, surveyID string, respondent *models.Respondent) (*services.SurveyDetail, error) {
	s.seen = respondent
	return s.detail, s.err
}

type stubResponses struct {
	result     *services.SubmissionResult
	err        error
	respondent *models.Respondent
	raw        any
}

func (s *stubResponses) CompleteSurvey(ctx context.Context, surveyID string, respondent *models.Respondent, rawAnswers any) (*services.SubmissionResult, error) {
	s.respondent = respondent
	s.raw = rawAnswers
	return s.result, s.err
}

type stubReports struct {
	query services.ReportQuery
}

func (s *stubReports) SentimentReport(ctx context.Context, q services.ReportQuery) (*services.SentimentReport, error) {
	s.query = q
	return &services.SentimentReport{Buckets: models.SentimentBuckets{Positive: 1}}, nil
}

func (s *stubReports) RatingSummary(ctx context.Context, surveyID string) ([]services.RatingSummary, error) {
	return []services.RatingSummary{{QuestionID: "q1", Count: 2, Average: 4.5}}, nil
}

func newTestRouter(surveys *stubSurveys, responses *stubResponses, reports *stubReports) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(surveys, responses, reports, testSignKey, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewRouter(h, []string{"http://localhost:3000"}, true)
}

func bearer(t *testing.T, id, email string) string {
	t.Helper()
	token, err := SignRespondentToken(models.Respondent{ID: id, Email: email}, testSignKey, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func adminBearer(t *testing.T) string {
	t.Helper()
	token, err := SignAdminToken("ops", testSignKey, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(router http.Handler, method, path, body, auth string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&stubSurveys{}, &stubResponses{}, &stubReports{})

	rec := doRequest(router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCompleteSurveyCreated(t *testing.T) {
	responses := &stubResponses{result: &services.SubmissionResult{ResponseID: "resp1", ItemCount: 2}}
	router := newTestRouter(&stubSurveys{}, responses, &stubReports{})

	rec := doRequest(router, http.MethodPost, "/v1/surveys/s1/complete",
		`{"responses":{"color":"red","score":4}}`, bearer(t, "r1", "r1@example.com"))

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "resp1", body["id"])
	assert.NotEmpty(t, body["message"])

	require.NotNil(t, responses.respondent)
	assert.Equal(t, "r1", responses.respondent.ID)
	assert.Equal(t, "r1@example.com", responses.respondent.Email)

	answers, ok := responses.raw.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "red", answers["color"])
	assert.Equal(t, 4.0, answers["score"])
}

func TestCompleteSurveyAnonymousReachesService(t *testing.T) {
	responses := &stubResponses{err: fault.Unauthorized("Authentication required. Please log in to complete surveys.")}
	router := newTestRouter(&stubSurveys{}, responses, &stubReports{})

	rec := doRequest(router, http.MethodPost, "/v1/surveys/s1/complete", `{"responses":{}}`, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, responses.respondent)
	assert.Equal(t, "Authentication required. Please log in to complete surveys.", decode(t, rec)["error"])
}

func TestCompleteSurveyValidationErrors(t *testing.T) {
	responses := &stubResponses{err: fault.Invalid("Validation failed", []fault.Detail{
		{Field: "color", Message: "Favourite color is required"},
		{Field: "score", Message: "Score must be between 1 and 5"},
	})}
	router := newTestRouter(&stubSurveys{}, responses, &stubReports{})

	rec := doRequest(router, http.MethodPost, "/v1/surveys/s1/complete", `{"responses":{}}`, bearer(t, "r1", ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Validation failed", body["error"])
	errs, ok := body["errors"].([]any)
	require.True(t, ok)
	assert.Len(t, errs, 2)
}

func TestCompleteSurveyStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fault.NotFound("Survey not found", fault.ErrNotFound), http.StatusNotFound},
		{"forbidden", fault.Forbidden("This survey is not currently accepting responses"), http.StatusForbidden},
		{"conflict", fault.Conflict("You have already completed this survey", nil), http.StatusConflict},
		{"internal", fault.NewInternalError("failed to store answers for response resp1", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubSurveys{}, &stubResponses{err: tt.err}, &stubReports{})

			rec := doRequest(router, http.MethodPost, "/v1/surveys/s1/complete", `{"responses":{}}`, bearer(t, "r1", ""))

			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestCompleteSurveyMalformedBody(t *testing.T) {
	responses := &stubResponses{err: fault.NewClientError("Invalid request: responses must be an object", nil)}
	router := newTestRouter(&stubSurveys{}, responses, &stubReports{})

	rec := doRequest(router, http.MethodPost, "/v1/surveys/s1/complete", `{"responses":`, bearer(t, "r1", ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, responses.respondent)
	assert.Equal(t, "r1", responses.respondent.ID)
	assert.Nil(t, responses.raw)
}

func TestCompleteSurveyBodyCheckedAfterAccess(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		auth   bool
		err    error
		status int
	}{
		{"anonymous empty body", "", false, fault.Unauthorized("Authentication required. Please log in to complete surveys."), http.StatusUnauthorized},
		{"anonymous invalid json", `{"responses":`, false, fault.Unauthorized("Authentication required. Please log in to complete surveys."), http.StatusUnauthorized},
		{"already completed invalid json", `not json`, true, fault.Conflict("You have already completed this survey", nil), http.StatusConflict},
		{"unknown survey empty body", "", true, fault.NotFound("Survey not found", fault.ErrNotFound), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responses := &stubResponses{err: tt.err}
			router := newTestRouter(&stubSurveys{}, responses, &stubReports{})

			auth := ""
			if tt.auth {
				auth = bearer(t, "r1", "")
			}
			rec := doRequest(router, http.MethodPost, "/v1/surveys/s1/complete", tt.body, auth)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.err.(*fault.Fault).Message, decode(t, rec)["error"])
			assert.Nil(t, responses.raw)
		})
	}
}

func TestGetSurveyPassesOptionalRespondent(t *testing.T) {
	surveys := &stubSurveys{detail: &services.SurveyDetail{Survey: models.Survey{ID: "s1", Active: true}}}
	router := newTestRouter(surveys, &stubResponses{}, &stubReports{})

	rec := doRequest(router, http.MethodGet, "/v1/surveys/s1", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, surveys.seen)

	rec = doRequest(router, http.MethodGet, "/v1/surveys/s1", "", bearer(t, "r2", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, surveys.seen)
	assert.Equal(t, "r2", surveys.seen.ID)
}

func TestReportsRequireAuth(t *testing.T) {
	router := newTestRouter(&stubSurveys{}, &stubResponses{}, &stubReports{})

	rec := doRequest(router, http.MethodGet, "/v1/reports/sentiment", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(router, http.MethodGet, "/v1/reports/sentiment", "", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReportsRequireAdmin(t *testing.T) {
	reports := &stubReports{}
	router := newTestRouter(&stubSurveys{}, &stubResponses{}, reports)

	for _, path := range []string{"/v1/reports/sentiment", "/v1/reports/surveys/s1/ratings"} {
		rec := doRequest(router, http.MethodGet, path, "", bearer(t, "r1", "r1@example.com"))
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
		assert.Equal(t, "Admin access required", decode(t, rec)["error"])
	}
	assert.Equal(t, services.ReportQuery{}, reports.query)
}

func TestSentimentReportQuery(t *testing.T) {
	reports := &stubReports{}
	router := newTestRouter(&stubSurveys{}, &stubResponses{}, reports)

	rec := doRequest(router, http.MethodGet, "/v1/reports/sentiment?surveyId=s1&sort=question&direction=asc&page=2&limit=20", "", adminBearer(t))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.ReportQuery{SurveyID: "s1", Sort: "question", Direction: "asc", Page: 2, Limit: 20}, reports.query)
}

func TestRatingSummary(t *testing.T) {
	router := newTestRouter(&stubSurveys{}, &stubResponses{}, &stubReports{})

	rec := doRequest(router, http.MethodGet, "/v1/reports/surveys/s1/ratings", "", adminBearer(t))

	assert.Equal(t, http.StatusOK, rec.Code)
	questions, ok := decode(t, rec)["questions"].([]any)
	require.True(t, ok)
	assert.Len(t, questions, 1)
}

func TestValidateRespondentToken(t *testing.T) {
	token, err := SignRespondentToken(models.Respondent{ID: "r1", Email: "a@b.c"}, testSignKey, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateRespondentToken(token, testSignKey)
	require.NoError(t, err)
	assert.Equal(t, "r1", claims.Subject)
	assert.Equal(t, "a@b.c", claims.Email)

	_, err = ValidateRespondentToken(token, "other-key")
	assert.Error(t, err)

	expired, err := SignRespondentToken(models.Respondent{ID: "r1"}, testSignKey, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateRespondentToken(expired, testSignKey)
	assert.Error(t, err)
}

func TestSignAdminToken(t *testing.T) {
	token, err := SignAdminToken("ops", testSignKey, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateRespondentToken(token, testSignKey)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)

	plain, err := SignRespondentToken(models.Respondent{ID: "r1"}, testSignKey, time.Hour)
	require.NoError(t, err)
	claims, err = ValidateRespondentToken(plain, testSignKey)
	require.NoError(t, err)
	assert.Empty(t, claims.Role)
}
