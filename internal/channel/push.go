// internal/channel/push.go
package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/common/httpclient"
	"notification-service/internal/common/logger"
	"notification-service/internal/models"
)

// PushSender delivers notifications through an HTTP push gateway (FCM-style
// relay). The record's recipient is the device registration token. A non-2xx
// gateway response means the provider rejected the message: the attempt
// returns false without error. Transport failures are delivery errors.
type PushSender struct {
	client     *httpclient.Client
	gatewayURL string
	apiKey     string
	log        logger.Logger
}

type pushRequest struct {
	Token string `json:"token"`
	Title string `json:"title,omitempty"`
	Body  string `json:"body"`
}

func NewPushSender(client *httpclient.Client, gatewayURL, apiKey string, log logger.Logger) *PushSender {
	return &PushSender{
		client:     client,
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		log:        log.WithFields(map[string]interface{}{"channel": "push"}),
	}
}

func (s *PushSender) Attempt(ctx context.Context, n *models.Notification) (bool, error) {
	payload, err := json.Marshal(pushRequest{
		Token: n.Recipient,
		Title: n.Subject,
		Body:  n.Message,
	})
	if err != nil {
		return false, apperrors.NewDeliveryError(string(models.ChannelPush), fmt.Errorf("encode payload: %w", err))
	}

	req, err := http.NewRequest(http.MethodPost, s.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return false, apperrors.NewDeliveryError(string(models.ChannelPush), fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.DoWithContext(ctx, req)
	if err != nil {
		return false, apperrors.NewDeliveryError(string(models.ChannelPush), fmt.Errorf("gateway request: %w", err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.log.Warn("push gateway rejected notification", map[string]interface{}{
			"notificationId": n.ID,
			"statusCode":     resp.StatusCode,
		})
		return false, nil
	}

	s.log.Debug("push delivered", map[string]interface{}{
		"notificationId": n.ID,
		"recipient":      n.Recipient,
	})
	return true, nil
}
