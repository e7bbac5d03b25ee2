package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/paulexconde/surveypulse/internal/models"
	"github.com/paulexconde/surveypulse/internal/pkg/paginator"
	"github.com/paulexconde/surveypulse/pkg/fault"
)

// Sort fields accepted by the sentiment report.
const (
	SortByRespondent = "respondent"
	SortByQuestion   = "question"
	SortBySentiment  = "sentiment"
)

type ReportQuery struct {
	SurveyID  string `json:"surveyId"`
	Sort      string `json:"sort"`
	Direction string `json:"direction"`
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
}

// Normalize applies the dashboard defaults: sentiment, descending, page 1 of 50.
func (q ReportQuery) Normalize() ReportQuery {
	switch q.Sort {
	case SortByRespondent, SortByQuestion, SortBySentiment:
	default:
		q.Sort = SortBySentiment
	}
	if q.Direction != "asc" {
		q.Direction = "desc"
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 1000 {
		q.Limit = 50
	}
	return q
}

func (q ReportQuery) cacheKey() string {
	return fmt.Sprintf("sentiment:%s:%s:%s:%d:%d", q.SurveyID, q.Sort, q.Direction, q.Page, q.Limit)
}

type SentimentReport struct {
	Entries         *paginator.PaginatedResponse[models.SentimentEntry] `json:"entries"`
	Buckets         models.SentimentBuckets                             `json:"buckets"`
	PositivePercent float64                                             `json:"positivePercent"`
	NeutralPercent  float64                                             `json:"neutralPercent"`
	NegativePercent float64                                             `json:"negativePercent"`
}

type RatingSummary struct {
	QuestionID    string  `json:"questionId"`
	QuestionSlug  string  `json:"questionSlug"`
	QuestionTitle string  `json:"questionTitle"`
	Scale         int     `json:"scale"`
	Count         int     `json:"count"`
	Average       float64 `json:"average"`
	// NPS is only computed for 10-point scales.
	NPS *int `json:"nps,omitempty"`
}

// ReportStore reads the aggregates behind the reporting dashboard.
type ReportStore interface {
	SentimentEntries(ctx context.Context, q ReportQuery) (*paginator.PaginatedResponse[models.SentimentEntry], error)
	SentimentBuckets(ctx context.Context, surveyID string) (models.SentimentBuckets, error)
	RatingAnswers(ctx context.Context, surveyID string) ([]models.RatingAnswer, error)
}

// ReportCache keeps computed reports until the next sentiment score lands.
type ReportCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context) error
}

type ReportService interface {
	SentimentReport(ctx context.Context, q ReportQuery) (*SentimentReport, error)
	RatingSummary(ctx context.Context, surveyID string) ([]RatingSummary, error)
}

type reportServiceImpl struct {
	store  ReportStore
	cache  ReportCache
	logger *slog.Logger
}

// NewReportService builds the reporting service. cache may be nil.
func NewReportService(store ReportStore, cache ReportCache, logger *slog.Logger) ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &reportServiceImpl{store: store, cache: cache, logger: logger}
}

func (s *reportServiceImpl) SentimentReport(ctx context.Context, q ReportQuery) (*SentimentReport, error) {
	q = q.Normalize()

	if s.cache != nil {
		var cached SentimentReport
		hit, err := s.cache.Get(ctx, q.cacheKey(), &cached)
		if err != nil {
			s.logger.Warn("report cache read failed", slog.String("error", err.Error()))
		} else if hit {
			return &cached, nil
		}
	}

	entries, err := s.store.SentimentEntries(ctx, q)
	if err != nil {
		return nil, fault.NewInternalError("failed to load sentiment entries", err)
	}

	buckets, err := s.store.SentimentBuckets(ctx, q.SurveyID)
	if err != nil {
		return nil, fault.NewInternalError("failed to count sentiment buckets", err)
	}

	report := &SentimentReport{
		Entries:         entries,
		Buckets:         buckets,
		PositivePercent: percent(buckets.Positive, buckets.Total()),
		NeutralPercent:  percent(buckets.Neutral, buckets.Total()),
		NegativePercent: percent(buckets.Negative, buckets.Total()),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, q.cacheKey(), report); err != nil {
			s.logger.Warn("report cache write failed", slog.String("error", err.Error()))
		}
	}

	return report, nil
}

func (s *reportServiceImpl) RatingSummary(ctx context.Context, surveyID string) ([]RatingSummary, error) {
	answers, err := s.store.RatingAnswers(ctx, surveyID)
	if err != nil {
		return nil, fault.NewInternalError("failed to load rating answers", err)
	}

	type group struct {
		summary RatingSummary
		values  []float64
	}
	groups := map[string]*group{}
	var order []string

	for _, a := range answers {
		g, ok := groups[a.QuestionID]
		if !ok {
			scale := a.Scale
			if scale <= 0 {
				scale = models.DefaultRatingScale
			}
			g = &group{summary: RatingSummary{
				QuestionID:    a.QuestionID,
				QuestionSlug:  a.QuestionSlug,
				QuestionTitle: a.QuestionTitle,
				Scale:         scale,
			}}
			groups[a.QuestionID] = g
			order = append(order, a.QuestionID)
		}
		g.values = append(g.values, a.Value)
	}

	sort.Strings(order)

	summaries := make([]RatingSummary, 0, len(order))
	for _, id := range order {
		g := groups[id]
		sum := 0.0
		for _, v := range g.values {
			sum += v
		}
		g.summary.Count = len(g.values)
		g.summary.Average = math.Round(sum/float64(len(g.values))*100) / 100

		if g.summary.Scale == npsScale {
			nps := NPSFromRatings(g.values)
			score, err := nps.CalculateNPS()
			if err != nil {
				return nil, fault.NewInternalError("failed to compute nps", err)
			}
			g.summary.NPS = &score
		}
		summaries = append(summaries, g.summary)
	}

	return summaries, nil
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}
