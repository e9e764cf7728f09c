// internal/events/trip.go
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

// Trip event types.
const (
	EventTripCompleted = "trip.completed"
	EventTripAccepted  = "trip.accepted"
	EventTripCancelled = "trip.cancelled"
)

type tripEventData struct {
	TripID   string  `json:"tripId"`
	RiderID  string  `json:"riderId"`
	DriverID string  `json:"driverId"`
	Fare     float64 `json:"fare"`
	Distance float64 `json:"distance"`
	Surge    float64 `json:"surge"`
}

// TripTranslator turns trip lifecycle events into rider and driver
// notifications.
type TripTranslator struct {
	svc *service.Service
	log logger.Logger
}

func NewTripTranslator(svc *service.Service, log logger.Logger) *TripTranslator {
	return &TripTranslator{
		svc: svc,
		log: log.WithFields(map[string]interface{}{"translator": "trip"}),
	}
}

func (t *TripTranslator) Handle(ctx context.Context, env *Envelope) error {
	var data tripEventData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return fmt.Errorf("decode trip event data: %w", err)
	}

	switch env.EventType {
	case EventTripCompleted:
		return t.handleCompleted(ctx, data)
	case EventTripAccepted:
		return t.handleAccepted(ctx, data)
	case EventTripCancelled:
		return t.handleCancelled(ctx, data)
	default:
		t.log.Debug("unhandled trip event type", map[string]interface{}{
			"eventType": env.EventType,
		})
		return nil
	}
}

func (t *TripTranslator) handleCompleted(ctx context.Context, data tripEventData) error {
	// Invoice summary to the rider, completion push to the driver.
	if data.RiderID != "" {
		if _, err := t.svc.Submit(ctx, service.SubmitInput{
			Recipient: data.RiderID,
			Channel:   models.ChannelEmail,
			Subject:   "Trip Completed - Invoice",
			Message:   tripSummaryMessage(data),
		}); err != nil {
			return err
		}
	}
	if data.DriverID != "" {
		if _, err := t.svc.Submit(ctx, service.SubmitInput{
			Recipient: data.DriverID,
			Channel:   models.ChannelPush,
			Subject:   "Trip Completed",
			Message:   fmt.Sprintf("Trip %s completed. Fare: $%g", data.TripID, data.Fare),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (t *TripTranslator) handleAccepted(ctx context.Context, data tripEventData) error {
	if data.RiderID == "" {
		return nil
	}
	_, err := t.svc.Submit(ctx, service.SubmitInput{
		Recipient: data.RiderID,
		Channel:   models.ChannelPush,
		Subject:   "Driver Assigned",
		Message:   "Your ride has been accepted. Driver is on the way!",
	})
	return err
}

func (t *TripTranslator) handleCancelled(ctx context.Context, data tripEventData) error {
	if data.RiderID == "" {
		return nil
	}
	_, err := t.svc.Submit(ctx, service.SubmitInput{
		Recipient: data.RiderID,
		Channel:   models.ChannelSMS,
		Subject:   "Trip Cancelled",
		Message:   fmt.Sprintf("Your trip %s has been cancelled.", data.TripID),
	})
	return err
}

func tripSummaryMessage(data tripEventData) string {
	var b strings.Builder
	b.WriteString("Ride Summary\n")
	b.WriteString("============\n")
	fmt.Fprintf(&b, "Trip ID: %s\n", orNA(data.TripID))
	fmt.Fprintf(&b, "Date: %s\n", time.Now().UTC().Format("2006-01-02"))
	if data.Distance > 0 {
		fmt.Fprintf(&b, "Distance: %g km\n", data.Distance)
	} else {
		b.WriteString("Distance: N/A km\n")
	}
	fmt.Fprintf(&b, "Fare: $%g\n", data.Fare)
	if data.Surge > 0 {
		fmt.Fprintf(&b, "Surge Multiplier: %gx\n", data.Surge)
	}
	b.WriteString("\nThank you for using our service!")
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
