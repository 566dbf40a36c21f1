package port

import (
	"context"

	"housingreview/internal/domain"
)

// VerdictNotifier tells the submitter that a review has finished.
type VerdictNotifier interface {
	NotifyVerdict(ctx context.Context, review *domain.Review, verdict *domain.Verdict) error
}
