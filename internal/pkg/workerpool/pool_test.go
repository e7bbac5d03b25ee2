package workerpool

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkerPoolRunsSubmittedJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := NewWorkerPool(ctx, 2, 10, quietLogger())

	var ran atomic.Int32
	for range 5 {
		if !pool.Submit(func(ctx context.Context) { ran.Add(1) }) {
			t.Fatalf("expected job to be accepted")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	pool.Shutdown(shutdownCtx)

	if got := ran.Load(); got != 5 {
		t.Errorf("expected 5 jobs to run, got %d", got)
	}
}

func TestWorkerPoolDropsWhenFull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	block := make(chan struct{})
	pool := NewWorkerPool(ctx, 1, 1, quietLogger())

	started := make(chan struct{})
	pool.Submit(func(ctx context.Context) {
		close(started)
		<-block
	})
	<-started

	if !pool.Submit(func(ctx context.Context) {}) {
		t.Fatalf("expected second job to fill the queue")
	}
	if pool.Submit(func(ctx context.Context) {}) {
		t.Errorf("expected third job to be dropped")
	}

	close(block)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	pool.Shutdown(shutdownCtx)
}

func TestWorkerPoolRejectsAfterShutdown(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, 1, quietLogger())
	pool.Shutdown(context.Background())

	if pool.Submit(func(ctx context.Context) {}) {
		t.Errorf("expected submit after shutdown to be rejected")
	}
}

func TestWithRetry(t *testing.T) {
	var attempts int
	job := WithRetry(3, time.Millisecond, quietLogger(), func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	})

	job(context.Background())

	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	var attempts int
	job := WithRetry(3, time.Millisecond, quietLogger(), func(ctx context.Context) error {
		attempts++
		return errors.New("permanent")
	})

	job(context.Background())

	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWorkerPoolShutdownAfterCancelReleasesQueuedJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewWorkerPool(ctx, 1, 4, quietLogger())

	started := make(chan struct{})
	pool.Submit(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})
	<-started

	var ran atomic.Int32
	for range 3 {
		if !pool.Submit(func(ctx context.Context) { ran.Add(1) }) {
			t.Fatalf("expected job to be queued")
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		pool.Shutdown(shutdownCtx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected shutdown to finish once the pool context is canceled")
	}

	if got := ran.Load(); got != 0 {
		t.Errorf("expected queued jobs to be dropped, %d ran", got)
	}
	if pool.Submit(func(ctx context.Context) {}) {
		t.Errorf("expected submit after cancel to be rejected")
	}
}
