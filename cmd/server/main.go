package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paulexconde/surveypulse/internal/api"
	"github.com/paulexconde/surveypulse/internal/config"
	"github.com/paulexconde/surveypulse/internal/db"
	"github.com/paulexconde/surveypulse/internal/models"
	"github.com/paulexconde/surveypulse/internal/pkg/cache"
	"github.com/paulexconde/surveypulse/internal/pkg/logging"
	"github.com/paulexconde/surveypulse/internal/pkg/workerpool"
	"github.com/paulexconde/surveypulse/internal/repository"
	"github.com/paulexconde/surveypulse/internal/sentiment"
	"github.com/paulexconde/surveypulse/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.InitLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(ctx, db.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("database unavailable", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer conn.Close()

	if cfg.Database.Migrate {
		if err := db.Migrate(ctx, conn); err != nil {
			logger.Error("migration failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	redisClient := cache.NewRedisClient(cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	var reportCache services.ReportCache
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable: reports will not be cached", slog.String("error", err.Error()))
	} else {
		reportCache = cache.NewReportCache(redisClient, "reports", cfg.Redis.ReportTTL)
	}

	repo := repository.NewSurveyRepository(conn)

	// jobs outlive the request that queued them
	poolCtx, cancelPool := context.WithCancel(context.Background())
	defer cancelPool()
	pool := workerpool.NewWorkerPool(poolCtx, cfg.Sentiment.Workers, cfg.Sentiment.QueueSize, logger.With(slog.String("component", "sentiment")))

	if cfg.Sentiment.Enabled {
		scorer := sentiment.NewClient(sentiment.Config{
			BaseURL: cfg.Sentiment.BaseURL,
			APIKey:  cfg.Sentiment.APIKey,
			Model:   cfg.Sentiment.Model,
			Timeout: cfg.Sentiment.Timeout,
		}, logger)

		var invalidator sentiment.Invalidator
		if reportCache != nil {
			invalidator = reportCache
		}

		backfill := sentiment.NewBackfill(scorer, repo, invalidator, pool, sentiment.BackfillConfig{
			Retries:    cfg.Sentiment.Retries,
			RetryDelay: cfg.Sentiment.RetryDelay,
		}, logger)

		repo.OnItemCreated(func(item models.ResponseItem) {
			backfill.Enqueue(item)
		})
	}

	handler := api.NewHandler(
		services.NewSurveyService(repo),
		services.NewSurveyResponseService(repo, logger),
		services.NewReportService(repo, reportCache, logger),
		cfg.Auth.JWTSignKey,
		logger,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           api.NewRouter(handler, cfg.HTTP.AllowOrigins, cfg.HTTP.Debug),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", slog.String("error", err.Error()))
	}
	pool.Shutdown(shutdownCtx)
}
