package ses

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rotisserie/eris"

	"housingreview/internal/config"
	"housingreview/internal/domain"
	"housingreview/internal/notify"
	"housingreview/internal/port"
)

// SendEmailAPI is the subset of the SES v2 client used here.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesNotifier struct {
	client      SendEmailAPI
	fromAddress string
	fromName    string
	frontendURL string
}

// NewSESNotifier creates an SES-backed VerdictNotifier.
func NewSESNotifier(ctx context.Context, cfg *config.EmailConfig) (port.VerdictNotifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, eris.Wrap(err, "ses: load AWS config")
	}
	return NewWithClient(sesv2.NewFromConfig(awsCfg), cfg), nil
}

// NewWithClient builds a notifier around an existing SES client.
func NewWithClient(client SendEmailAPI, cfg *config.EmailConfig) port.VerdictNotifier {
	return &sesNotifier{
		client:      client,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		frontendURL: cfg.FrontendURL,
	}
}

func (s *sesNotifier) NotifyVerdict(ctx context.Context, review *domain.Review, verdict *domain.Verdict) error {
	if review.NotifyEmail == "" {
		return nil
	}
	msg := notify.BuildVerdictMessage(review, verdict, s.frontendURL)
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{review.NotifyEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &msg.Subject},
				Body: &types.Body{
					Html: &types.Content{Data: &msg.HTML},
					Text: &types.Content{Data: &msg.Text},
				},
			},
		},
	})
	if err != nil {
		return eris.Wrapf(err, "ses: send verdict for review %s", review.ID)
	}
	return nil
}
