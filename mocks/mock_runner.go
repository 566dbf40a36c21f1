package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"housingreview/internal/loader"
	"housingreview/internal/service"
)

// MockRunner is a mock implementation of service.Runner.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, documentID string, files []loader.File, dual bool) (*service.PipelineResult, error) {
	args := m.Called(ctx, documentID, files, dual)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PipelineResult), args.Error(1)
}
