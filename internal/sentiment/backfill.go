package sentiment

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/paulexconde/surveypulse/internal/models"
	"github.com/paulexconde/surveypulse/internal/pkg/workerpool"
)

// ScoreWriter persists the score of one response item.
type ScoreWriter interface {
	UpdateItemSentiment(ctx context.Context, itemID string, score float64) error
}

// Invalidator drops cached reports that include sentiment.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Submitter is the part of the worker pool the backfill needs.
type Submitter interface {
	Submit(job workerpool.Job) bool
}

type BackfillConfig struct {
	Retries    int
	RetryDelay time.Duration
}

// Backfill scores committed free-text answers in the background.
type Backfill struct {
	scorer Scorer
	writer ScoreWriter
	cache  Invalidator
	pool   Submitter
	cfg    BackfillConfig
	logger *slog.Logger
}

// NewBackfill wires the background scorer. cache may be nil.
func NewBackfill(scorer Scorer, writer ScoreWriter, cache Invalidator, pool Submitter, cfg BackfillConfig, logger *slog.Logger) *Backfill {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Retries < 1 {
		cfg.Retries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Backfill{
		scorer: scorer,
		writer: writer,
		cache:  cache,
		pool:   pool,
		cfg:    cfg,
		logger: logger,
	}
}

// Enqueue queues a textarea item for scoring. Other items and blank text
// are ignored. It never blocks.
func (b *Backfill) Enqueue(item models.ResponseItem) bool {
	if item.QuestionType != models.Textarea || item.ID == "" {
		return false
	}
	text, ok := item.Value.(models.TextValue)
	if !ok || strings.TrimSpace(string(text)) == "" {
		return false
	}

	logger := b.logger.With(slog.String("itemID", item.ID))

	job := workerpool.WithRetry(b.cfg.Retries, b.cfg.RetryDelay, logger, func(ctx context.Context) error {
		return b.process(ctx, item.ID, string(text))
	})

	if !b.pool.Submit(job) {
		logger.Warn("sentiment job dropped")
		return false
	}
	return true
}

func (b *Backfill) process(ctx context.Context, itemID, text string) error {
	score := b.scorer.Score(ctx, text)

	if err := b.writer.UpdateItemSentiment(ctx, itemID, score); err != nil {
		return err
	}

	if b.cache != nil {
		if err := b.cache.Invalidate(ctx); err != nil {
			b.logger.Warn("failed to invalidate report cache", slog.String("error", err.Error()))
		}
	}

	b.logger.Debug("sentiment stored", slog.String("itemID", itemID), slog.Float64("score", score))
	return nil
}
