package port

import (
	"context"

	"housingreview/internal/domain"
)

// StatsRepository provides aggregate statistics queries.
type StatsRepository interface {
	GetReviewStats(ctx context.Context) (*domain.ReviewStats, error)
	GetSubmitterStats(ctx context.Context, submittedBy string) (*domain.ReviewStats, error)
}
