package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"housingreview/internal/config"
	"housingreview/internal/port"
)

// ReviewQueueConfig holds settings for the review queue worker.
type ReviewQueueConfig struct {
	PollInterval   time.Duration
	MaxAttempts    int
	Concurrency    int
	ProcessTimeout time.Duration
}

// ReviewQueueConfigFrom builds a ReviewQueueConfig from queue settings.
func ReviewQueueConfigFrom(cfg *config.QueueConfig) ReviewQueueConfig {
	return ReviewQueueConfig{
		PollInterval:   time.Duration(cfg.PollIntervalSecs) * time.Second,
		MaxAttempts:    cfg.MaxRetries,
		Concurrency:    cfg.Concurrency,
		ProcessTimeout: 10 * time.Minute,
	}
}

// ReviewQueueWorker polls for queued reviews and processes them.
type ReviewQueueWorker struct {
	repo    port.ReviewRepository
	service ReviewService
	cfg     ReviewQueueConfig
	wg      sync.WaitGroup
}

// NewReviewQueueWorker creates a ReviewQueueWorker.
func NewReviewQueueWorker(repo port.ReviewRepository, service ReviewService, cfg ReviewQueueConfig) *ReviewQueueWorker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = 10 * time.Minute
	}
	return &ReviewQueueWorker{repo: repo, service: service, cfg: cfg}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight reviews have finished.
func (w *ReviewQueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)
	logger := zap.L().Named("reviewQueueWorker")
	logger.Info("started",
		zap.Duration("poll", w.cfg.PollInterval),
		zap.Int("concurrency", w.cfg.Concurrency),
		zap.Int("max_attempts", w.cfg.MaxAttempts),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down, waiting for in-flight reviews")
			w.wg.Wait()
			logger.Info("shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			reviews, err := w.repo.ClaimQueued(ctx, available)
			if err != nil {
				if ctx.Err() == nil {
					logger.Error("claim failed", zap.Error(err))
				}
				continue
			}

			for i := range reviews {
				review := reviews[i]

				sem <- struct{}{}
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }()

					// In-flight reviews finish even during shutdown.
					runCtx, cancel := context.WithTimeout(context.Background(), w.cfg.ProcessTimeout)
					defer cancel()

					logger.Info("dispatching review",
						zap.String("review_id", review.ID.String()),
						zap.Int("attempt", review.Attempts),
					)
					w.service.Process(runCtx, &review, w.cfg.MaxAttempts)
				}()
			}
		}
	}
}
