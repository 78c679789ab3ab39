package scheduler

import (
	"context"
	"fmt"
	"strings"

	"search-audit/internal/common/config"
	commonerrors "search-audit/internal/common/errors"
	"search-audit/internal/common/logger"
	"search-audit/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// EmailSender is the SES surface the notifier needs. Satisfied by the real
// client and by test fakes.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SMSSender is the SNS surface the notifier needs.
type SMSSender interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// Notifier fans a threshold-breach alert out to email and SMS. Channels are
// best effort and independent: one failing does not stop the other.
type Notifier struct {
	email EmailSender
	sms   SMSSender
	cfg   config.NotificationConfig
	log   logger.Logger
}

func NewNotifier(email EmailSender, sms SMSSender, cfg config.NotificationConfig, log logger.Logger) *Notifier {
	return &Notifier{email: email, sms: sms, cfg: cfg, log: log}
}

// NotifyBreach delivers the alert on every enabled channel. Returns the last
// delivery error, if any.
func (n *Notifier) NotifyBreach(ctx context.Context, alert models.AlertRecord) error {
	var lastErr error

	if n.cfg.Email.Enabled && n.email != nil {
		if err := n.sendEmail(ctx, alert); err != nil {
			n.log.Error("alert email failed", map[string]interface{}{"error": err.Error()})
			lastErr = err
		}
	}

	if n.cfg.SMS.Enabled && n.sms != nil {
		if err := n.sendSMS(ctx, alert); err != nil {
			n.log.Error("alert sms failed", map[string]interface{}{"error": err.Error()})
			lastErr = err
		}
	}

	return lastErr
}

func (n *Notifier) sendEmail(ctx context.Context, alert models.AlertRecord) error {
	subject := fmt.Sprintf("Search audit alert: pass rate %.1f%% (threshold %.1f%%)", alert.PassRate, alert.Threshold)
	body := buildAlertBody(alert)

	input := &ses.SendEmailInput{
		Source: aws.String(n.cfg.Email.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: n.cfg.Email.To,
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	}

	if _, err := n.email.SendEmail(ctx, input); err != nil {
		return commonerrors.NewNotificationSendFailedError("email", err)
	}
	return nil
}

func (n *Notifier) sendSMS(ctx context.Context, alert models.AlertRecord) error {
	msg := fmt.Sprintf("Search audit: pass rate %.1f%% below %.1f%%, %d failing queries",
		alert.PassRate, alert.Threshold, len(alert.FailingQueries))

	input := &sns.PublishInput{
		PhoneNumber: aws.String(n.cfg.SMS.PhoneNumber),
		Message:     aws.String(msg),
	}

	if _, err := n.sms.Publish(ctx, input); err != nil {
		return commonerrors.NewNotificationSendFailedError("sms", err)
	}
	return nil
}

func buildAlertBody(alert models.AlertRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Search quality dropped below the alert threshold.\n\n")
	fmt.Fprintf(&b, "Pass rate:  %.1f%%\n", alert.PassRate)
	fmt.Fprintf(&b, "Threshold:  %.1f%%\n", alert.Threshold)
	fmt.Fprintf(&b, "Timestamp:  %s\n", alert.Timestamp)
	if alert.Message != "" {
		fmt.Fprintf(&b, "Detail:     %s\n", alert.Message)
	}

	if len(alert.FailingQueries) > 0 {
		fmt.Fprintf(&b, "\nFailing queries:\n")
		for _, fq := range alert.FailingQueries {
			fmt.Fprintf(&b, "  - %q [%s] %d results\n", fq.Query, fq.Verdict, fq.ResultCount)
		}
	}

	return b.String()
}
