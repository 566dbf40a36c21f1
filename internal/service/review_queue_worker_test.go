package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"housingreview/internal/domain"
	"housingreview/internal/service"
	"housingreview/mocks"
)

func runWorker(worker *service.ReviewQueueWorker, d time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()
	time.Sleep(d)
	cancel()
	<-done
}

func TestReviewQueueWorker_ClaimsAndProcesses(t *testing.T) {
	repo := new(mocks.MockReviewRepo)
	svc := new(mocks.MockReviewService)

	review := domain.Review{ID: uuid.New(), Status: domain.ReviewStatusProcessing, Attempts: 1}
	repo.On("ClaimQueued", mock.Anything, mock.AnythingOfType("int")).Return([]domain.Review{review}, nil).Once()
	repo.On("ClaimQueued", mock.Anything, mock.AnythingOfType("int")).Return([]domain.Review{}, nil).Maybe()
	svc.On("Process", mock.Anything, mock.MatchedBy(func(r *domain.Review) bool { return r.ID == review.ID }), 5).Return()

	worker := service.NewReviewQueueWorker(repo, svc, service.ReviewQueueConfig{
		PollInterval: 20 * time.Millisecond,
		MaxAttempts:  5,
		Concurrency:  2,
	})
	runWorker(worker, 150*time.Millisecond)

	svc.AssertNumberOfCalls(t, "Process", 1)
}

func TestReviewQueueWorker_ClaimsOnlyFreeSlots(t *testing.T) {
	repo := new(mocks.MockReviewRepo)
	svc := new(mocks.MockReviewService)

	repo.On("ClaimQueued", mock.Anything, 3).Return([]domain.Review{}, nil)

	worker := service.NewReviewQueueWorker(repo, svc, service.ReviewQueueConfig{
		PollInterval: 20 * time.Millisecond,
		MaxAttempts:  5,
		Concurrency:  3,
	})
	runWorker(worker, 100*time.Millisecond)

	repo.AssertCalled(t, "ClaimQueued", mock.Anything, 3)
	svc.AssertNotCalled(t, "Process", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewQueueWorker_WaitsForInFlightOnShutdown(t *testing.T) {
	repo := new(mocks.MockReviewRepo)
	svc := new(mocks.MockReviewService)

	review := domain.Review{ID: uuid.New()}
	repo.On("ClaimQueued", mock.Anything, mock.Anything).Return([]domain.Review{review}, nil).Once()
	repo.On("ClaimQueued", mock.Anything, mock.Anything).Return([]domain.Review{}, nil).Maybe()

	finished := make(chan struct{})
	svc.On("Process", mock.Anything, mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		time.Sleep(100 * time.Millisecond)
		close(finished)
	}).Return()

	worker := service.NewReviewQueueWorker(repo, svc, service.ReviewQueueConfig{
		PollInterval: 10 * time.Millisecond,
		Concurrency:  1,
	})
	runWorker(worker, 40*time.Millisecond)

	select {
	case <-finished:
	default:
		t.Fatal("Start returned before the in-flight review finished")
	}
}
