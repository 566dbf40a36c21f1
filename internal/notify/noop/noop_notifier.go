package noop

import (
	"context"

	"go.uber.org/zap"

	"housingreview/internal/domain"
	"housingreview/internal/notify"
	"housingreview/internal/port"
)

type noopNotifier struct {
	frontendURL string
}

// NewNoopNotifier creates a VerdictNotifier that only logs.
func NewNoopNotifier(frontendURL string) port.VerdictNotifier {
	return &noopNotifier{frontendURL: frontendURL}
}

func (n *noopNotifier) NotifyVerdict(_ context.Context, review *domain.Review, verdict *domain.Verdict) error {
	zap.L().Info("noop notifier: verdict ready",
		zap.String("review_id", review.ID.String()),
		zap.String("application_no", review.ApplicationNo),
		zap.String("to", review.NotifyEmail),
		zap.String("status", string(verdict.Status)),
		zap.Strings("supplementary", verdict.SupplementaryIDs()),
		zap.String("url", notify.ReviewURL(n.frontendURL, review)),
	)
	return nil
}
