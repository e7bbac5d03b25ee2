package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paulexconde/surveypulse/internal/services"
	"github.com/paulexconde/surveypulse/pkg/fault"
)

type Handler struct {
	surveys   services.SurveyService
	responses services.SurveyResponseService
	reports   services.ReportService
	signKey   string
	logger    *slog.Logger
}

func NewHandler(surveys services.SurveyService, responses services.SurveyResponseService, reports services.ReportService, signKey string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		surveys:   surveys,
		responses: responses,
		reports:   reports,
		signKey:   signKey,
		logger:    logger,
	}
}

func (h *Handler) AddRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.health)

	v1 := rg.Group("/v1")

	surveys := v1.Group("/surveys")
	surveys.Use(OptionalAuth(h.signKey))
	{
		surveys.GET("/:id", h.getSurvey)
		// the service answers anonymous callers with its own 401
		surveys.POST("/:id/complete", h.completeSurvey)
	}

	reports := v1.Group("/reports")
	reports.Use(RequireAuth(h.signKey), RequireAdmin())
	{
		reports.GET("/sentiment", h.sentimentReport)
		reports.GET("/surveys/:id/ratings", h.ratingSummary)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getSurvey(c *gin.Context) {
	detail, err := h.surveys.GetSurvey(c.Request.Context(), c.Param("id"), respondentFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type completeSurveyRequest struct {
	Responses any `json:"responses"`
}

func (h *Handler) completeSurvey(c *gin.Context) {
	// an unreadable body counts as missing answers; the service reports it
	// only after its access checks pass
	var req completeSurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("unreadable submission body", slog.String("error", err.Error()))
		req.Responses = nil
	}

	result, err := h.responses.CompleteSurvey(c.Request.Context(), c.Param("id"), respondentFrom(c), req.Responses)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Survey completed successfully",
		"id":      result.ResponseID,
	})
}

func (h *Handler) sentimentReport(c *gin.Context) {
	q := services.ReportQuery{
		SurveyID:  c.Query("surveyId"),
		Sort:      c.Query("sort"),
		Direction: c.Query("direction"),
		Page:      queryInt(c, "page"),
		Limit:     queryInt(c, "limit"),
	}

	report, err := h.reports.SentimentReport(c.Request.Context(), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) ratingSummary(c *gin.Context) {
	summary, err := h.reports.RatingSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": summary})
}

func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := fault.HTTPStatus(err)

	var f *fault.Fault
	if !errors.As(err, &f) {
		h.logger.Error("unhandled error", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": f.Message})
		return
	}

	body := gin.H{"error": f.Message}
	if len(f.Details) > 0 {
		body["errors"] = f.Details
	}
	c.JSON(status, body)
}
