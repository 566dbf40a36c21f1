package service

import (
	"context"

	"housingreview/internal/domain"
	"housingreview/internal/port"
)

// StatsService provides aggregate statistics.
type StatsService interface {
	GetStats(ctx context.Context, subject string, role domain.Role) (*domain.ReviewStats, error)
}

type statsService struct {
	statsRepo port.StatsRepository
}

// NewStatsService creates a new StatsService implementation.
func NewStatsService(statsRepo port.StatsRepository) StatsService {
	return &statsService{statsRepo: statsRepo}
}

// GetStats returns totals for admins and viewers, and the caller's own
// submissions for officers.
func (s *statsService) GetStats(ctx context.Context, subject string, role domain.Role) (*domain.ReviewStats, error) {
	if role == domain.RoleAdmin || role == domain.RoleViewer {
		return s.statsRepo.GetReviewStats(ctx)
	}
	return s.statsRepo.GetSubmitterStats(ctx, subject)
}
