// internal/events/payment.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"notification-service/internal/common/logger"
	"notification-service/internal/models"
	"notification-service/internal/service"
)

// Payment event types.
const (
	EventPaymentSuccess = "payment.success"
	EventPaymentFailed  = "payment.failed"
)

type paymentEventData struct {
	TransactionID string  `json:"transactionId"`
	TripID        string  `json:"tripId"`
	RiderID       string  `json:"riderId"`
	Amount        float64 `json:"amount"`
}

// PaymentTranslator turns payment outcomes into rider notifications.
type PaymentTranslator struct {
	svc *service.Service
	log logger.Logger
}

func NewPaymentTranslator(svc *service.Service, log logger.Logger) *PaymentTranslator {
	return &PaymentTranslator{
		svc: svc,
		log: log.WithFields(map[string]interface{}{"translator": "payment"}),
	}
}

func (t *PaymentTranslator) Handle(ctx context.Context, env *Envelope) error {
	var data paymentEventData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return fmt.Errorf("decode payment event data: %w", err)
	}
	if data.RiderID == "" {
		return nil
	}

	switch env.EventType {
	case EventPaymentSuccess:
		_, err := t.svc.Submit(ctx, service.SubmitInput{
			Recipient: data.RiderID,
			Channel:   models.ChannelEmail,
			Subject:   "Payment Receipt",
			Message:   paymentReceiptMessage(data),
		})
		return err
	case EventPaymentFailed:
		_, err := t.svc.Submit(ctx, service.SubmitInput{
			Recipient: data.RiderID,
			Channel:   models.ChannelSMS,
			Subject:   "Payment Failed",
			Message:   fmt.Sprintf("Payment for trip %s failed. Please update your payment method.", data.TripID),
		})
		return err
	default:
		t.log.Debug("unhandled payment event type", map[string]interface{}{
			"eventType": env.EventType,
		})
		return nil
	}
}

func paymentReceiptMessage(data paymentEventData) string {
	var b strings.Builder
	b.WriteString("Payment Receipt\n")
	b.WriteString("===============\n")
	fmt.Fprintf(&b, "Transaction ID: %s\n", orNA(data.TransactionID))
	fmt.Fprintf(&b, "Trip ID: %s\n", orNA(data.TripID))
	fmt.Fprintf(&b, "Amount: $%g\n", data.Amount)
	b.WriteString("Status: Paid\n")
	fmt.Fprintf(&b, "Date: %s\n", time.Now().UTC().Format("2006-01-02"))
	b.WriteString("\nThank you for your payment!")
	return b.String()
}
