package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"

	"housingreview/internal/domain"
	"housingreview/internal/port"
)

type statsRepo struct {
	db *sqlx.DB
}

// NewStatsRepo creates a new PostgreSQL-backed StatsRepository.
func NewStatsRepo(db *sqlx.DB) port.StatsRepository {
	return &statsRepo{db: db}
}

const reviewStatsSelect = `SELECT
	COUNT(*) AS total_reviews,
	COUNT(CASE WHEN status = 'queued' THEN 1 END) AS queued,
	COUNT(CASE WHEN status = 'processing' THEN 1 END) AS processing,
	COUNT(CASE WHEN status = 'completed' THEN 1 END) AS completed,
	COUNT(CASE WHEN status = 'failed' THEN 1 END) AS failed,
	COUNT(CASE WHEN verdict_status = 'eligible' THEN 1 END) AS verdict_eligible,
	COUNT(CASE WHEN verdict_status = 'conditional' THEN 1 END) AS verdict_conditional,
	COUNT(CASE WHEN verdict_status = 'excluded' THEN 1 END) AS verdict_excluded,
	COUNT(CASE WHEN dual_validation THEN 1 END) AS dual_validation
FROM reviews`

func (r *statsRepo) GetReviewStats(ctx context.Context) (*domain.ReviewStats, error) {
	var stats domain.ReviewStats
	if err := r.db.GetContext(ctx, &stats, reviewStatsSelect); err != nil {
		return nil, eris.Wrap(err, "statsRepo.GetReviewStats")
	}
	return &stats, nil
}

func (r *statsRepo) GetSubmitterStats(ctx context.Context, submittedBy string) (*domain.ReviewStats, error) {
	var stats domain.ReviewStats
	if err := r.db.GetContext(ctx, &stats, reviewStatsSelect+" WHERE submitted_by = $1", submittedBy); err != nil {
		return nil, eris.Wrap(err, "statsRepo.GetSubmitterStats")
	}
	return &stats, nil
}
