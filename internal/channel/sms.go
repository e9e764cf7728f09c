// internal/channel/sms.go
package channel

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/common/logger"
	"notification-service/internal/models"
)

// SNSService is the slice of the SNS client the SMS sender needs.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SMSSender delivers notifications over AWS SNS. The record's recipient is
// the destination phone number in E.164 form.
type SMSSender struct {
	sns      SNSService
	senderID string
	log      logger.Logger
}

func NewSMSSender(snsClient SNSService, senderID string, log logger.Logger) *SMSSender {
	return &SMSSender{
		sns:      snsClient,
		senderID: senderID,
		log:      log.WithFields(map[string]interface{}{"channel": "sms"}),
	}
}

func (s *SMSSender) Attempt(ctx context.Context, n *models.Notification) (bool, error) {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(n.Recipient),
		Message:     aws.String(n.Message),
	}
	if s.senderID != "" {
		input.MessageAttributes = map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(s.senderID),
			},
		}
	}

	if _, err := s.sns.Publish(ctx, input); err != nil {
		return false, apperrors.NewDeliveryError(string(models.ChannelSMS), fmt.Errorf("sns publish: %w", err))
	}

	s.log.Debug("sms delivered", map[string]interface{}{
		"notificationId": n.ID,
		"recipient":      n.Recipient,
	})
	return true, nil
}
