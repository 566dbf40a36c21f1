package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"housingreview/internal/domain"
)

// MockVerdictNotifier is a mock implementation of port.VerdictNotifier.
type MockVerdictNotifier struct {
	mock.Mock
}

func (m *MockVerdictNotifier) NotifyVerdict(ctx context.Context, review *domain.Review, verdict *domain.Verdict) error {
	args := m.Called(ctx, review, verdict)
	return args.Error(0)
}
