package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"housingreview/internal/domain"
	"housingreview/internal/service"
)

// MockTokenService is a mock implementation of service.TokenService.
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Issue(subject string, role domain.Role, ttl time.Duration) (string, error) {
	args := m.Called(subject, role, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}
