package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	pkglogger "github.com/monroy-qms/api/pkg/logger"
)

// Notifier tells account owners about security events on their account.
type Notifier interface {
	NotifyAccountLocked(ctx context.Context, email, name string, until time.Time) error
}

// sesSender is the subset of the SES client used here.
type sesSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// AWSSESNotifier sends notifications using AWS SES
type AWSSESNotifier struct {
	client      sesSender
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESNotifier loads the default AWS credential chain for region.
func NewAWSSESNotifier(ctx context.Context, region, fromAddress string, logger *slog.Logger) (*AWSSESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESNotifier{
		client:      ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// NotifyAccountLocked emails the owner that their account was locked until the given time.
func (n *AWSSESNotifier) NotifyAccountLocked(ctx context.Context, email, name string, until time.Time) error {
	untilText := until.UTC().Format("2006-01-02 15:04 MST")

	textBody := fmt.Sprintf(`Hello %s,

Your Monroy QMS account was locked after repeated failed sign-in attempts.
You can sign in again after %s.

If this was not you, contact your administrator so the password can be reset.

This is an automated message. Please do not reply to this email.
`, name, untilText)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <p>Hello %s,</p>
    <p>Your Monroy QMS account was locked after repeated failed sign-in attempts.</p>
    <p>You can sign in again after <strong>%s</strong>.</p>
    <p>If this was not you, contact your administrator so the password can be reset.</p>
    <p style="color: #666; font-size: 12px;">This is an automated message. Please do not reply to this email.</p>
</body>
</html>
`, name, untilText)

	input := &ses.SendEmailInput{
		Source: aws.String(n.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Your account has been locked"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := n.client.SendEmail(ctx, input)
	if err != nil {
		n.logger.Error("failed to send lockout email via SES",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.logger.Info("lockout email sent",
		slog.String("email", pkglogger.SanitizedEmail(email)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}

// LogNotifier only logs. Used when SES is not configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyAccountLocked(ctx context.Context, email, name string, until time.Time) error {
	n.logger.InfoContext(ctx, "lockout notification skipped: email disabled",
		slog.String("email", pkglogger.SanitizedEmail(email)),
		slog.Time("lock_until", until))
	return nil
}
