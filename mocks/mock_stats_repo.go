package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"housingreview/internal/domain"
)

// MockStatsRepo is a mock implementation of port.StatsRepository.
type MockStatsRepo struct {
	mock.Mock
}

func (m *MockStatsRepo) GetReviewStats(ctx context.Context) (*domain.ReviewStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewStats), args.Error(1)
}

func (m *MockStatsRepo) GetSubmitterStats(ctx context.Context, submittedBy string) (*domain.ReviewStats, error) {
	args := m.Called(ctx, submittedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewStats), args.Error(1)
}
