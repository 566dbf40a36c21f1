package ses_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housingreview/internal/config"
	"housingreview/internal/domain"
	"housingreview/internal/notify/ses"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sesv2.SendEmailOutput{}, f.err
}

var emailCfg = &config.EmailConfig{
	FromAddress: "noreply@housingreview.kr",
	FromName:    "Housing Review",
	FrontendURL: "http://localhost:3000",
}

func TestNotifyVerdict_SendsToSubmitter(t *testing.T) {
	client := &fakeSES{}
	n := ses.NewWithClient(client, emailCfg)

	review := &domain.Review{ID: uuid.New(), ApplicationNo: "A-1", NotifyEmail: "owner@example.kr"}
	err := n.NotifyVerdict(context.Background(), review, &domain.Verdict{Status: domain.VerdictEligible})
	require.NoError(t, err)

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, []string{"owner@example.kr"}, in.Destination.ToAddresses)
	assert.Equal(t, "Housing Review <noreply@housingreview.kr>", *in.FromEmailAddress)
	assert.Contains(t, *in.Content.Simple.Subject.Data, "적격")
}

func TestNotifyVerdict_NoAddressIsNoop(t *testing.T) {
	client := &fakeSES{}
	n := ses.NewWithClient(client, emailCfg)

	err := n.NotifyVerdict(context.Background(), &domain.Review{ID: uuid.New()}, &domain.Verdict{})
	require.NoError(t, err)
	assert.Empty(t, client.inputs)
}

func TestNotifyVerdict_WrapsSendError(t *testing.T) {
	n := ses.NewWithClient(&fakeSES{err: errors.New("throttled")}, emailCfg)
	review := &domain.Review{ID: uuid.New(), NotifyEmail: "x@example.kr"}

	err := n.NotifyVerdict(context.Background(), review, &domain.Verdict{Status: domain.VerdictExcluded})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}
