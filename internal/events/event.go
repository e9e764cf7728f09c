// Package events ingests domain events from Kafka and translates them into
// notification submissions. Translators are thin glue: they map an event
// type and payload shape to a recipient, channel, and rendered message,
// then hand off to the submission service.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/common/logger"
)

// Envelope is the wire shape shared by all event topics.
type Envelope struct {
	EventType string          `json:"eventType"`
	Data      json.RawMessage `json:"data"`
}

const envelopeSchemaJSON = `{
	"type": "object",
	"properties": {
		"eventType": {"type": "string", "minLength": 1},
		"data": {"type": "object"}
	},
	"required": ["eventType", "data"]
}`

var envelopeSchema = gojsonschema.NewStringLoader(envelopeSchemaJSON)

// ParseEnvelope validates the raw payload against the envelope schema and
// decodes it. Malformed payloads are validation errors: they are logged and
// dropped by the consumer, never retried.
func ParseEnvelope(payload []byte) (*Envelope, error) {
	result, err := gojsonschema.Validate(envelopeSchema, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("event payload is not valid JSON: %v", err))
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, apperrors.NewValidationError(strings.Join(details, "; "))
	}

	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("decode event envelope: %v", err))
	}
	return &env, nil
}

// Translator handles one event family's envelope.
type Translator interface {
	Handle(ctx context.Context, env *Envelope) error
}

// Router validates inbound payloads and routes them to the translator for
// the topic's event family. Unroutable topics are logged and dropped; a
// translator error is logged and never crashes the consumer.
type Router struct {
	trip    Translator
	payment Translator
	driver  Translator
	log     logger.Logger
}

func NewRouter(trip, payment, driver Translator, log logger.Logger) *Router {
	return &Router{
		trip:    trip,
		payment: payment,
		driver:  driver,
		log:     log.WithFields(map[string]interface{}{"component": "event-router"}),
	}
}

// Route implements the consumer handler contract.
func (r *Router) Route(ctx context.Context, topic string, payload []byte) {
	env, err := ParseEnvelope(payload)
	if err != nil {
		r.log.Warn("dropping invalid event payload", map[string]interface{}{
			"topic": topic,
			"error": err.Error(),
		})
		return
	}

	var translator Translator
	switch {
	case strings.Contains(topic, "trip"):
		translator = r.trip
	case strings.Contains(topic, "payment"):
		translator = r.payment
	case strings.Contains(topic, "driver"):
		translator = r.driver
	default:
		r.log.Warn("no translator for topic", map[string]interface{}{"topic": topic})
		return
	}

	if err := translator.Handle(ctx, env); err != nil {
		r.log.WithError(err).Error("event handling failed", map[string]interface{}{
			"topic":     topic,
			"eventType": env.EventType,
		})
	}
}
