package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"housingreview/internal/domain"
)

// MockStatsService is a mock implementation of service.StatsService.
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) GetStats(ctx context.Context, subject string, role domain.Role) (*domain.ReviewStats, error) {
	args := m.Called(ctx, subject, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewStats), args.Error(1)
}
