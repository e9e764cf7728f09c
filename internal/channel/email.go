// internal/channel/email.go
package channel

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/common/logger"
	"notification-service/internal/models"
)

// SESService is the slice of the SES client the email sender needs,
// defined here so tests can substitute a mock.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailSender delivers notifications over AWS SES. The record's recipient
// is the destination email address; the message body is already rendered.
type EmailSender struct {
	ses       SESService
	fromEmail string
	log       logger.Logger
}

func NewEmailSender(sesClient SESService, fromEmail string, log logger.Logger) *EmailSender {
	return &EmailSender{
		ses:       sesClient,
		fromEmail: fromEmail,
		log:       log.WithFields(map[string]interface{}{"channel": "email"}),
	}
}

func (s *EmailSender) Attempt(ctx context.Context, n *models.Notification) (bool, error) {
	subject := n.Subject
	if subject == "" {
		subject = "Notification"
	}

	_, err := s.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{n.Recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(n.Message)},
			},
		},
		Source: aws.String(s.fromEmail),
	})
	if err != nil {
		return false, apperrors.NewDeliveryError(string(models.ChannelEmail), fmt.Errorf("ses send: %w", err))
	}

	s.log.Debug("email delivered", map[string]interface{}{
		"notificationId": n.ID,
		"recipient":      n.Recipient,
	})
	return true, nil
}
