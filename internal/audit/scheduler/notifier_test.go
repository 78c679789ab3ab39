package scheduler

import (
	"context"
	"errors"
	"testing"

	"search-audit/internal/common/config"
	"search-audit/internal/common/logger"
	"search-audit/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmail struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeEmail) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{}, nil
}

type fakeSMS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSMS) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{}, nil
}

func notifierConfig(email, sms bool) config.NotificationConfig {
	var cfg config.NotificationConfig
	cfg.Email.Enabled = email
	cfg.Email.FromEmail = "audit@example.com"
	cfg.Email.To = []string{"oncall@example.com"}
	cfg.SMS.Enabled = sms
	cfg.SMS.PhoneNumber = "+15550100"
	return cfg
}

func testAlert() models.AlertRecord {
	return models.AlertRecord{
		Timestamp: "2026-09-01T00:00:00Z",
		PassRate:  85.5,
		Threshold: 90.0,
		FailingQueries: []models.FailingQuery{
			{Query: "train set", Verdict: "WORD_BOUNDARY", ResultCount: 4},
		},
	}
}

func TestNotifyBreachBothChannels(t *testing.T) {
	email := &fakeEmail{}
	sms := &fakeSMS{}
	n := NewNotifier(email, sms, notifierConfig(true, true), logger.NewTestLogger(t))

	err := n.NotifyBreach(context.Background(), testAlert())
	require.NoError(t, err)

	require.Len(t, email.inputs, 1)
	assert.Equal(t, "audit@example.com", *email.inputs[0].Source)
	assert.Contains(t, *email.inputs[0].Message.Subject.Data, "85.5%")
	assert.Contains(t, *email.inputs[0].Message.Body.Text.Data, "train set")

	require.Len(t, sms.inputs, 1)
	assert.Equal(t, "+15550100", *sms.inputs[0].PhoneNumber)
	assert.Contains(t, *sms.inputs[0].Message, "85.5%")
}

func TestNotifyBreachDisabledChannelsSkipped(t *testing.T) {
	email := &fakeEmail{}
	sms := &fakeSMS{}
	n := NewNotifier(email, sms, notifierConfig(true, false), logger.NewTestLogger(t))

	require.NoError(t, n.NotifyBreach(context.Background(), testAlert()))

	assert.Len(t, email.inputs, 1)
	assert.Empty(t, sms.inputs)
}

func TestNotifyBreachEmailFailureDoesNotBlockSMS(t *testing.T) {
	email := &fakeEmail{err: errors.New("ses throttled")}
	sms := &fakeSMS{}
	n := NewNotifier(email, sms, notifierConfig(true, true), logger.NewTestLogger(t))

	err := n.NotifyBreach(context.Background(), testAlert())
	require.Error(t, err)

	assert.Len(t, sms.inputs, 1, "sms still delivered")
}
