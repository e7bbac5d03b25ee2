package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/paulexconde/surveypulse/internal/api"
	"github.com/paulexconde/surveypulse/internal/config"
	"github.com/paulexconde/surveypulse/internal/db"
	"github.com/paulexconde/surveypulse/internal/models"
	"github.com/paulexconde/surveypulse/internal/pkg/logging"
	"github.com/paulexconde/surveypulse/internal/repository"
	"github.com/paulexconde/surveypulse/pkg/fault"
	"gopkg.in/yaml.v2"
)

type fixtures struct {
	Respondents []models.Respondent `yaml:"respondents"`
	Questions   []models.Question   `yaml:"questions"`
	Surveys     []models.Survey     `yaml:"surveys"`
}

type seeder interface {
	SaveRespondent(ctx context.Context, respondent models.Respondent) (*models.Respondent, error)
	SaveQuestion(ctx context.Context, q models.Question) (*models.Question, error)
	SaveSurvey(ctx context.Context, s models.Survey) (string, error)
}

func main() {
	file := flag.String("file", "fixtures.yaml", "YAML file with respondents, questions and surveys")
	admin := flag.String("admin-token", "", "print a report access token for this subject and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.InitLogger(cfg.Logging)

	if *admin != "" {
		token, err := api.SignAdminToken(*admin, cfg.Auth.JWTSignKey, 24*time.Hour)
		if err != nil {
			logger.Error("failed to sign admin token", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		logger.Error("failed to read fixtures", slog.String("file", *file), slog.String("error", err.Error()))
		os.Exit(1)
	}

	f, err := parseFixtures(data)
	if err != nil {
		logger.Error("invalid fixtures", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	conn, err := db.Connect(ctx, db.Config{DSN: cfg.Database.DSN})
	if err != nil {
		logger.Error("database unavailable", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		logger.Error("migration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := seed(ctx, repository.NewSurveyRepository(conn), f, logger); err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFixtures(data []byte) (*fixtures, error) {
	var f fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	ids := map[string]bool{}
	for _, q := range f.Questions {
		if q.ID == "" || q.Slug == "" {
			return nil, fmt.Errorf("question %q needs an id and a slug", q.Title)
		}
		if !q.Type.Valid() {
			return nil, fmt.Errorf("question %s has an unsupported type %q", q.ID, q.Type)
		}
		ids[q.ID] = true
	}
	for _, q := range f.Questions {
		if q.Condition != nil && q.Condition.QuestionID != "" && !ids[q.Condition.QuestionID] {
			return nil, fmt.Errorf("question %s depends on unknown question %s", q.ID, q.Condition.QuestionID)
		}
	}
	for _, s := range f.Surveys {
		for _, ref := range s.Questions {
			if !ids[ref.QuestionID] {
				return nil, fmt.Errorf("survey %s references unknown question %s", s.ID, ref.QuestionID)
			}
		}
	}

	return &f, nil
}

// seed skips rows that already exist so it can be rerun.
func seed(ctx context.Context, store seeder, f *fixtures, logger *slog.Logger) error {
	for _, r := range f.Respondents {
		if _, err := store.SaveRespondent(ctx, r); err != nil {
			if !errors.Is(err, fault.ErrUniqueViolation) {
				return fmt.Errorf("respondent %s: %w", r.Email, err)
			}
			logger.Info("respondent exists", slog.String("email", r.Email))
		}
	}
	for _, q := range f.Questions {
		if _, err := store.SaveQuestion(ctx, q); err != nil {
			if !errors.Is(err, fault.ErrUniqueViolation) {
				return fmt.Errorf("question %s: %w", q.ID, err)
			}
			logger.Info("question exists", slog.String("questionID", q.ID))
		}
	}
	for _, s := range f.Surveys {
		if _, err := store.SaveSurvey(ctx, s); err != nil {
			if !errors.Is(err, fault.ErrUniqueViolation) {
				return fmt.Errorf("survey %s: %w", s.ID, err)
			}
			logger.Info("survey exists", slog.String("surveyID", s.ID))
		}
	}

	logger.Info("seed complete",
		slog.Int("respondents", len(f.Respondents)),
		slog.Int("questions", len(f.Questions)),
		slog.Int("surveys", len(f.Surveys)))
	return nil
}
