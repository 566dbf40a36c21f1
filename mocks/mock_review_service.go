package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"housingreview/internal/domain"
	"housingreview/internal/service"
)

// MockReviewService is a mock implementation of service.ReviewService.
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Submit(ctx context.Context, input *service.SubmitReviewInput) (*domain.Review, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewService) List(ctx context.Context, status domain.ReviewStatus, offset, limit int) ([]domain.Review, int, error) {
	args := m.Called(ctx, status, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *MockReviewService) GetVerdict(ctx context.Context, id uuid.UUID) (*domain.Verdict, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Verdict), args.Error(1)
}

func (m *MockReviewService) GetFileURL(ctx context.Context, id uuid.UUID, index int) (string, error) {
	args := m.Called(ctx, id, index)
	return args.String(0), args.Error(1)
}

func (m *MockReviewService) Process(ctx context.Context, review *domain.Review, maxAttempts int) {
	m.Called(ctx, review, maxAttempts)
}
