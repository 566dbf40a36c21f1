package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rotisserie/eris"

	"housingreview/internal/domain"
	"housingreview/internal/port"
)

type reviewRepo struct {
	db *sqlx.DB
}

// NewReviewRepo creates a PostgreSQL-backed ReviewRepository.
func NewReviewRepo(db *sqlx.DB) port.ReviewRepository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) Create(ctx context.Context, review *domain.Review) error {
	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now
	if review.Status == "" {
		review.Status = domain.ReviewStatusQueued
	}

	query := `INSERT INTO reviews (
		id, application_no, status, dual_validation, files,
		record, verdict, verdict_status, error, attempts, retry_after,
		notify_email, submitted_by, completed_at, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10, $11,
		$12, $13, $14, $15, $16
	)`

	_, err := r.db.ExecContext(ctx, query,
		review.ID, review.ApplicationNo, review.Status, review.DualValidation, review.Files,
		review.Record, review.Verdict, review.VerdictStatus, review.Error, review.Attempts, review.RetryAfter,
		review.NotifyEmail, review.SubmittedBy, review.CompletedAt, review.CreatedAt, review.UpdatedAt)
	if err != nil {
		return eris.Wrap(err, "reviewRepo.Create")
	}
	return nil
}

func (r *reviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	var review domain.Review
	err := r.db.GetContext(ctx, &review, "SELECT * FROM reviews WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, eris.Wrap(err, "reviewRepo.GetByID")
	}
	return &review, nil
}

func (r *reviewRepo) List(ctx context.Context, status domain.ReviewStatus, offset, limit int) ([]domain.Review, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM reviews WHERE ($1 = '' OR status = $1)", string(status))
	if err != nil {
		return nil, 0, eris.Wrap(err, "reviewRepo.List count")
	}

	var reviews []domain.Review
	err = r.db.SelectContext(ctx, &reviews,
		`SELECT * FROM reviews WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		string(status), limit, offset)
	if err != nil {
		return nil, 0, eris.Wrap(err, "reviewRepo.List")
	}
	return reviews, total, nil
}

func (r *reviewRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.Review, error) {
	var reviews []domain.Review
	err := r.db.SelectContext(ctx, &reviews,
		`UPDATE reviews SET status = $1, attempts = attempts + 1, updated_at = NOW()
		 WHERE id IN (
			SELECT id FROM reviews
			WHERE status = $2 AND (retry_after IS NULL OR retry_after <= NOW())
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT $3
		 )
		 RETURNING *`,
		domain.ReviewStatusProcessing, domain.ReviewStatusQueued, limit)
	if err != nil {
		return nil, eris.Wrap(err, "reviewRepo.ClaimQueued")
	}
	return reviews, nil
}

func (r *reviewRepo) UpdateResult(ctx context.Context, review *domain.Review) error {
	review.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET status = $1, record = $2, verdict = $3, verdict_status = $4,
		 error = $5, retry_after = NULL, completed_at = $6, updated_at = $7
		 WHERE id = $8`,
		review.Status, review.Record, review.Verdict, review.VerdictStatus,
		review.Error, review.CompletedAt, review.UpdatedAt, review.ID)
	if err != nil {
		return eris.Wrap(err, "reviewRepo.UpdateResult")
	}
	return expectOneRow(result)
}

func (r *reviewRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET status = $1, error = $2, retry_after = NULL,
		 completed_at = NOW(), updated_at = NOW() WHERE id = $3`,
		domain.ReviewStatusFailed, reason, id)
	if err != nil {
		return eris.Wrap(err, "reviewRepo.MarkFailed")
	}
	return expectOneRow(result)
}

func (r *reviewRepo) Requeue(ctx context.Context, id uuid.UUID, retryAfter time.Time, reason string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET status = $1, error = $2, retry_after = $3, updated_at = NOW()
		 WHERE id = $4`,
		domain.ReviewStatusQueued, reason, retryAfter.UTC(), id)
	if err != nil {
		return eris.Wrap(err, "reviewRepo.Requeue")
	}
	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "postgres: rows affected")
	}
	if rows == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}
