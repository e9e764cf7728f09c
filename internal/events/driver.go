// internal/events/driver.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"notification-service/internal/common/logger"
	"notification-service/internal/models"
	"notification-service/internal/service"
)

// Driver event types.
const (
	EventDriverRegistered    = "driver.registered"
	EventDriverStatusChanged = "driver.status.changed"
	EventDriverUpdated       = "driver.updated"
)

type driverEventData struct {
	DriverID string                 `json:"driver_id"`
	Name     string                 `json:"name"`
	IsActive bool                   `json:"is_active"`
	Changes  map[string]interface{} `json:"changes"`
}

// DriverTranslator turns driver lifecycle events into driver notifications.
type DriverTranslator struct {
	svc *service.Service
	log logger.Logger
}

func NewDriverTranslator(svc *service.Service, log logger.Logger) *DriverTranslator {
	return &DriverTranslator{
		svc: svc,
		log: log.WithFields(map[string]interface{}{"translator": "driver"}),
	}
}

func (t *DriverTranslator) Handle(ctx context.Context, env *Envelope) error {
	var data driverEventData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return fmt.Errorf("decode driver event data: %w", err)
	}
	if data.DriverID == "" {
		return nil
	}

	switch env.EventType {
	case EventDriverRegistered:
		_, err := t.svc.Submit(ctx, service.SubmitInput{
			Recipient: data.DriverID,
			Channel:   models.ChannelEmail,
			Subject:   "Welcome to the Platform",
			Message:   fmt.Sprintf("Welcome %s! Your driver account has been successfully registered.", data.Name),
		})
		return err
	case EventDriverStatusChanged:
		status := "inactive"
		if data.IsActive {
			status = "active"
		}
		_, err := t.svc.Submit(ctx, service.SubmitInput{
			Recipient: data.DriverID,
			Channel:   models.ChannelPush,
			Subject:   "Status Changed",
			Message:   fmt.Sprintf("Your driver status has been changed to %s.", status),
		})
		return err
	case EventDriverUpdated:
		_, err := t.svc.Submit(ctx, service.SubmitInput{
			Recipient: data.DriverID,
			Channel:   models.ChannelPush,
			Subject:   "Profile Updated",
			Message:   fmt.Sprintf("Your driver profile was updated. Latest updates: %s.", changeSummary(data.Changes)),
		})
		return err
	default:
		t.log.Debug("unhandled driver event type", map[string]interface{}{
			"eventType": env.EventType,
		})
		return nil
	}
}

// changeSummary renders the changed fields in stable key order.
func changeSummary(changes map[string]interface{}) string {
	if len(changes) == 0 {
		return "profile details"
	}

	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]string, 0, len(keys))
	for _, k := range keys {
		v := changes[k]
		switch value := v.(type) {
		case nil:
			entries = append(entries, fmt.Sprintf("%s: null", k))
		case map[string]interface{}, []interface{}:
			encoded, err := json.Marshal(value)
			if err != nil {
				entries = append(entries, fmt.Sprintf("%s: %v", k, value))
				continue
			}
			entries = append(entries, fmt.Sprintf("%s: %s", k, encoded))
		default:
			entries = append(entries, fmt.Sprintf("%s: %v", k, value))
		}
	}
	return strings.Join(entries, ", ")
}
