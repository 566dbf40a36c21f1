package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"housingreview/internal/port"
)

// MockExtractionCache is a mock implementation of port.ExtractionCache.
type MockExtractionCache struct {
	mock.Mock
}

func (m *MockExtractionCache) Get(ctx context.Context, key string) (*port.AnalyzeOutput, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*port.AnalyzeOutput), args.Bool(1), args.Error(2)
}

func (m *MockExtractionCache) Put(ctx context.Context, key string, out *port.AnalyzeOutput) error {
	args := m.Called(ctx, key, out)
	return args.Error(0)
}
