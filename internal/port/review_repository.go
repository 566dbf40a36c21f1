package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"housingreview/internal/domain"
)

// ReviewRepository defines the contract for review persistence.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error)
	List(ctx context.Context, status domain.ReviewStatus, offset, limit int) ([]domain.Review, int, error)
	// ClaimQueued atomically moves up to limit due reviews to processing and
	// returns them. Concurrent callers never receive the same review.
	ClaimQueued(ctx context.Context, limit int) ([]domain.Review, error)
	UpdateResult(ctx context.Context, review *domain.Review) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	Requeue(ctx context.Context, id uuid.UUID, retryAfter time.Time, reason string) error
}
